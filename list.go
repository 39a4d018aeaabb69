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

package restkit

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/restkit/directive"
	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/filter"
	"github.com/tomoncle/restkit/query"
	"github.com/tomoncle/restkit/request"
	"github.com/tomoncle/restkit/scope"
	"github.com/tomoncle/restkit/types"
)

// List returns one page of the entities visible to the request.
func (r *Repository[T]) List(rc *request.Context) (*types.ResultSet, error) {
	q, err := r.baseQuery(rc)
	if err != nil {
		return nil, err
	}
	if q, err = r.order(q, rc); err != nil {
		return nil, r.reject(err)
	}
	q = directive.ApplyAll(r.directives, q, rc)

	mode, err := filter.ParseSearchMode(rc)
	if err != nil {
		return nil, r.reject(err)
	}
	preds, err := filter.BuildAll(r.filters, rc)
	if err != nil {
		return nil, r.reject(err)
	}
	if p, ok := filter.Combine(mode, preds); ok {
		q = q.Where(p)
	}
	if q, err = runQueryHooks(r.onFilter, q, rc); err != nil {
		return nil, err
	}

	page := r.pageRequest(rc)
	var total *int
	if r.config.ShowTotalCount {
		n, err := r.store.Count(rc.Context(), q)
		if err != nil {
			return nil, err
		}
		total = &n
	}

	q = q.Window(page.GetOffset(), page.GetLimit())
	items, err := r.store.Find(rc.Context(), q)
	if err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{
		"page":    page.GetPage(),
		"limit":   page.GetLimit(),
		"found":   len(items),
		"filters": len(preds),
		"mode":    mode.String(),
	}).Debug("Listed entities")

	rs := types.NewResultSet(page.GetPage(), r.transform(items, false))
	rs.Meta.Total = total
	if prev, ok := page.PrevPage(); ok {
		rs.Meta.Prev = r.link(rc, page.GetLimit(), prev)
	}
	if next, ok := page.NextPage(total); ok {
		rs.Meta.Next = r.link(rc, page.GetLimit(), next)
	}
	return rs, nil
}

func (r *Repository[T]) reject(err error) error {
	r.log.WithError(err).Warn("Rejected list request")
	return err
}

// baseQuery folds scopes and OnCreateQuery hooks over an empty query.
func (r *Repository[T]) baseQuery(rc *request.Context) (*query.Query[T], error) {
	q := scope.ApplyQuery(r.scopes, query.New[T](), rc)
	return runQueryHooks(r.onCreateQuery, q, rc)
}

func (r *Repository[T]) order(q *query.Query[T], rc *request.Context) (*query.Query[T], error) {
	raw := strings.TrimSpace(rc.Params().First(SortKey))
	if raw == "" {
		return q, nil
	}
	token := strings.TrimSpace(strings.Split(raw, ",")[0])
	desc := strings.HasPrefix(token, "-")
	name := strings.TrimPrefix(token, "-")
	f, ok := r.model.Lookup(name)
	if !ok {
		return nil, errs.BadRequest(errs.InvalidArgument, "cannot sort by unknown field %q", name)
	}
	return q.OrderBy(query.Order{Field: f.Name(), Column: f.Column(), Desc: desc}), nil
}

func (r *Repository[T]) pageRequest(rc *request.Context) *types.PageRequest {
	params := rc.Params()
	page, _ := strconv.Atoi(strings.TrimSpace(params.First(PageKey)))
	limit, _ := strconv.Atoi(strings.TrimSpace(params.First(LimitKey)))
	return types.NewPageRequest(page, limit).WithLimits(r.config.DefaultLimit, r.config.MaxLimit)
}

func (r *Repository[T]) link(rc *request.Context, limit, page int) *string {
	s := rc.Link(map[string]string{
		LimitKey: strconv.Itoa(limit),
		PageKey:  strconv.Itoa(page),
	})
	return &s
}
