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

package filter

import (
	"strings"

	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/predicate"
	"github.com/tomoncle/restkit/request"
)

// SearchModeKey is the parameter selecting how filter predicates combine.
const SearchModeKey = "searchMode"

// SearchMode is the logical connective applied between filter predicates.
type SearchMode int

const (
	And SearchMode = iota
	Or
)

func (m SearchMode) String() string {
	if m == Or {
		return "or"
	}
	return "and"
}

// ParseSearchMode reads the search mode of a request. An absent or empty
// parameter selects And; values other than "and" and "or" are rejected.
func ParseSearchMode(rc *request.Context) (SearchMode, error) {
	raw := strings.TrimSpace(rc.Params().First(SearchModeKey))
	switch strings.ToLower(raw) {
	case "", "and":
		return And, nil
	case "or":
		return Or, nil
	}
	return And, errs.BadRequest(errs.InvalidArgument, "invalid %s %q, expected and or or", SearchModeKey, raw)
}

// Combine folds preds with the connective of mode. It reports false when
// there is nothing to combine.
func Combine[T any](mode SearchMode, preds []predicate.Predicate[T]) (predicate.Predicate[T], bool) {
	switch len(preds) {
	case 0:
		return predicate.Predicate[T]{}, false
	case 1:
		return preds[0], true
	}
	if mode == Or {
		return predicate.Or(preds[0], preds[1], preds[2:]...), true
	}
	return predicate.And(preds[0], preds[1], preds[2:]...), true
}
