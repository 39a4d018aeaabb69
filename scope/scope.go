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

// Package scope restricts what a caller may read and create. Scopes run on
// every request, before filters and before persistence.
package scope

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tomoncle/restkit/predicate"
	"github.com/tomoncle/restkit/query"
	"github.com/tomoncle/restkit/request"
	"github.com/tomoncle/restkit/schema"
)

// Scope transforms queries and new entities for the current request.
type Scope[T any] interface {
	QueryCreating(q *query.Query[T], rc *request.Context) *query.Query[T]
	EntityCreating(e *T, rc *request.Context) *T
}

type (
	QueryFunc[T any]  func(q *query.Query[T], rc *request.Context) *query.Query[T]
	EntityFunc[T any] func(e *T, rc *request.Context) *T
)

// PropertyScope is a Scope made of two functions. A nil function leaves its
// input unchanged.
type PropertyScope[T any] struct {
	query  QueryFunc[T]
	entity EntityFunc[T]
}

func Property[T any](q QueryFunc[T], e EntityFunc[T]) *PropertyScope[T] {
	return &PropertyScope[T]{query: q, entity: e}
}

func (s *PropertyScope[T]) QueryCreating(q *query.Query[T], rc *request.Context) *query.Query[T] {
	if s.query == nil {
		return q
	}
	return s.query(q, rc)
}

func (s *PropertyScope[T]) EntityCreating(e *T, rc *request.Context) *T {
	if s.entity == nil {
		return e
	}
	return s.entity(e, rc)
}

// Owner limits access to entities whose field equals the principal
// attribute, which must hold a UUID, and stamps that value on new entities.
// Requests without a usable attribute see nothing.
func Owner[T any](field *schema.Field[T], attribute string) *PropertyScope[T] {
	if field.Kind() != schema.KindUUID {
		panic(fmt.Sprintf("scope: owner field %s must be a uuid", field.Name()))
	}
	nothing, _ := predicate.In(field)
	return Property(
		func(q *query.Query[T], rc *request.Context) *query.Query[T] {
			id, ok := ownerOf(rc, attribute)
			if !ok {
				return q.Where(nothing)
			}
			p, _ := predicate.Eq(field, id)
			return q.Where(p)
		},
		func(e *T, rc *request.Context) *T {
			if id, ok := ownerOf(rc, attribute); ok {
				_ = field.Set(e, id)
			}
			return e
		},
	)
}

func ownerOf(rc *request.Context, attribute string) (uuid.UUID, bool) {
	p, ok := rc.Principal()
	if !ok {
		return uuid.Nil, false
	}
	raw, ok := p.Attribute(attribute)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ApplyQuery folds the query transforms of scopes in order.
func ApplyQuery[T any](scopes []Scope[T], q *query.Query[T], rc *request.Context) *query.Query[T] {
	for _, s := range scopes {
		q = s.QueryCreating(q, rc)
	}
	return q
}

// ApplyEntity folds the entity transforms of scopes in order.
func ApplyEntity[T any](scopes []Scope[T], e *T, rc *request.Context) *T {
	for _, s := range scopes {
		e = s.EntityCreating(e, rc)
	}
	return e
}
