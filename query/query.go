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

// Package query holds the store-independent description of a read: which
// predicates narrow it, how it is ordered, which relations are loaded and
// which window is returned. A Query is never modified; every method
// returns a new one.
package query

import (
	"github.com/tomoncle/restkit/predicate"
)

// Order sorts by one field.
type Order struct {
	Field  string
	Column string
	Desc   bool
}

type Query[T any] struct {
	where     []predicate.Predicate[T]
	orders    []Order
	relations []string
	offset    int
	limit     int
}

// New returns the query matching every entity in natural order.
func New[T any]() *Query[T] {
	return &Query[T]{}
}

func (q *Query[T]) clone() *Query[T] {
	return &Query[T]{
		where:     append([]predicate.Predicate[T](nil), q.where...),
		orders:    append([]Order(nil), q.orders...),
		relations: append([]string(nil), q.relations...),
		offset:    q.offset,
		limit:     q.limit,
	}
}

// Where narrows q by p. The zero predicate and predicates already present
// leave q unchanged.
func (q *Query[T]) Where(p predicate.Predicate[T]) *Query[T] {
	if p.IsZero() {
		return q
	}
	for _, w := range q.where {
		if w.Equal(p) {
			return q
		}
	}
	cp := q.clone()
	cp.where = append(cp.where, p)
	return cp
}

// OrderBy appends a sort key.
func (q *Query[T]) OrderBy(o Order) *Query[T] {
	cp := q.clone()
	cp.orders = append(cp.orders, o)
	return cp
}

// Include requests eager loading of a relation.
func (q *Query[T]) Include(relation string) *Query[T] {
	for _, r := range q.relations {
		if r == relation {
			return q
		}
	}
	cp := q.clone()
	cp.relations = append(cp.relations, relation)
	return cp
}

// Window restricts the result to limit rows after skipping offset rows.
// A limit of zero means no limit.
func (q *Query[T]) Window(offset, limit int) *Query[T] {
	cp := q.clone()
	cp.offset = max(offset, 0)
	cp.limit = max(limit, 0)
	return cp
}

// Predicates returns the narrowing predicates in the order they were added.
func (q *Query[T]) Predicates() []predicate.Predicate[T] {
	return append([]predicate.Predicate[T](nil), q.where...)
}

// Predicate returns the conjunction of all narrowing predicates.
func (q *Query[T]) Predicate() predicate.Predicate[T] {
	switch len(q.where) {
	case 0:
		return predicate.Predicate[T]{}
	case 1:
		return q.where[0]
	}
	return predicate.And(q.where[0], q.where[1], q.where[2:]...)
}

func (q *Query[T]) Orders() []Order       { return append([]Order(nil), q.orders...) }
func (q *Query[T]) Relations() []string   { return append([]string(nil), q.relations...) }
func (q *Query[T]) Offset() int           { return q.offset }
func (q *Query[T]) Limit() int            { return q.limit }
func (q *Query[T]) Windowed() bool        { return q.offset > 0 || q.limit > 0 }
