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

package repository

import (
	"context"
	"fmt"

	"github.com/tomoncle/restkit/predicate"
	"github.com/tomoncle/restkit/query"
	"github.com/uptrace/bun"
)

const columnPrefix = "?TableAlias."

// BunStore runs queries through bun. T must be a bun model.
type BunStore[T any] struct {
	db bun.IDB
}

// NewBunStore returns a store over db, which may be a *bun.DB or a bun.Tx.
func NewBunStore[T any](db bun.IDB) *BunStore[T] {
	return &BunStore[T]{db: db}
}

// WithTx returns a store running on tx.
func (s *BunStore[T]) WithTx(tx bun.Tx) *BunStore[T] {
	return &BunStore[T]{db: tx}
}

// Select renders q as a bun select over dest, which must point to a *T or
// a []*T.
func (s *BunStore[T]) Select(dest any, q *query.Query[T]) (*bun.SelectQuery, error) {
	sel, err := s.where(s.db.NewSelect().Model(dest), q)
	if err != nil {
		return nil, err
	}
	for _, rel := range q.Relations() {
		sel = sel.Relation(rel)
	}
	for _, o := range q.Orders() {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		sel = sel.OrderExpr(columnPrefix+"? "+dir, bun.Ident(o.Column))
	}
	if q.Offset() > 0 {
		sel = sel.Offset(q.Offset())
	}
	if q.Limit() > 0 {
		sel = sel.Limit(q.Limit())
	}
	return sel, nil
}

func (s *BunStore[T]) where(sel *bun.SelectQuery, q *query.Query[T]) (*bun.SelectQuery, error) {
	for _, p := range q.Predicates() {
		sqlizer, err := predicate.ToSqlizer(p, columnPrefix)
		if err != nil {
			return nil, err
		}
		sql, args, err := sqlizer.ToSql()
		if err != nil {
			return nil, fmt.Errorf("repository: render %s: %w", p, err)
		}
		sel = sel.Where(sql, args...)
	}
	return sel, nil
}

func (s *BunStore[T]) Find(ctx context.Context, q *query.Query[T]) ([]*T, error) {
	entities := make([]*T, 0)
	sel, err := s.Select(&entities, q)
	if err != nil {
		return nil, err
	}
	if err := sel.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (s *BunStore[T]) Count(ctx context.Context, q *query.Query[T]) (int, error) {
	sel, err := s.where(s.db.NewSelect().Model((*T)(nil)), q)
	if err != nil {
		return 0, err
	}
	return sel.Count(ctx)
}

func (s *BunStore[T]) Insert(ctx context.Context, entity *T) error {
	_, err := s.db.NewInsert().Model(entity).Exec(ctx)
	return err
}

func (s *BunStore[T]) Update(ctx context.Context, entity *T) error {
	_, err := s.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (s *BunStore[T]) Delete(ctx context.Context, entity *T) error {
	_, err := s.db.NewDelete().Model(entity).WherePK().Exec(ctx)
	return err
}
