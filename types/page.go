/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import "math"

// DefaultLimit is the page size used when no limit is configured.
const DefaultLimit = 10

// PageRequest describes the requested window over a result set.
// Page is 1-based; non-positive pages and limits fall back to defaults.
type PageRequest struct {
	page         int
	limit        int
	defaultLimit int
	maxLimit     int
}

// NewPageRequest constructs a PageRequest from raw page and limit values.
func NewPageRequest(page int, limit int) *PageRequest {
	return &PageRequest{page: page, limit: limit, defaultLimit: DefaultLimit}
}

// WithLimits sets the fallback limit and an optional cap (0 disables the cap).
func (p *PageRequest) WithLimits(defaultLimit int, maxLimit int) *PageRequest {
	if defaultLimit > 0 {
		p.defaultLimit = defaultLimit
	}
	if maxLimit > 0 {
		p.maxLimit = maxLimit
	}
	return p
}

func (p *PageRequest) GetLimit() int {
	limit := p.limit
	if limit < 1 {
		limit = p.defaultLimit
	}
	if p.maxLimit > 0 && limit > p.maxLimit {
		limit = p.maxLimit
	}
	return limit
}

// GetPage returns the 1-based page, capped so that limit*(page+1) stays
// within int.
func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		return 1
	}
	if maxPage := math.MaxInt/p.GetLimit() - 1; p.page > maxPage {
		return maxPage
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetLimit()
}

// PrevPage reports the previous page number, if there is one.
func (p *PageRequest) PrevPage() (int, bool) {
	page := p.GetPage()
	if page <= 1 {
		return 0, false
	}
	return page - 1, true
}

// NextPage reports the next page number. A nil total means the total is
// unknown and a next page is always offered.
func (p *PageRequest) NextPage(total *int) (int, bool) {
	page := p.GetPage()
	if total != nil && (*total <= 0 || *total <= p.GetLimit()*(page+1)) {
		return 0, false
	}
	return page + 1, true
}

// Meta carries pagination metadata of a ResultSet.
type Meta struct {
	CurrentPage int     `json:"currentPage"`
	PerPage     int     `json:"perPage"`
	Total       *int    `json:"total,omitempty"`
	Prev        *string `json:"prev,omitempty"`
	Next        *string `json:"next,omitempty"`
}

// ResultSet is the list response envelope.
type ResultSet struct {
	Data []any `json:"data"`
	Meta Meta  `json:"meta"`
}

// NewResultSet wraps data with an otherwise empty Meta.
func NewResultSet(page int, data []any) *ResultSet {
	if data == nil {
		data = make([]any, 0)
	}
	return &ResultSet{Data: data, Meta: Meta{CurrentPage: page, PerPage: len(data)}}
}
