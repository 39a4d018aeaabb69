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

// Package directive attaches optional query behaviour requested by the
// client, such as eager loading of relations.
package directive

import (
	"fmt"
	"strings"

	"github.com/tomoncle/restkit/query"
	"github.com/tomoncle/restkit/request"
	"github.com/tomoncle/restkit/schema"
)

// IncludeKey is the repeatable parameter listing relations to load.
const IncludeKey = "with"

// Directive adjusts a query according to the request.
type Directive[T any] interface {
	Apply(q *query.Query[T], rc *request.Context) *query.Query[T]
}

// Include loads one relation when the request names it in "with".
type Include[T any] struct {
	relation string
	key      string
}

// Option customizes an Include.
type Option func(*includeOptions)

type includeOptions struct {
	key string
}

// WithKey sets the token clients use for the relation.
func WithKey(key string) Option {
	return func(o *includeOptions) { o.key = key }
}

// NewInclude binds relation, which must be declared on m.
func NewInclude[T any](m *schema.Model[T], relation string, opts ...Option) (*Include[T], error) {
	name, ok := m.Relation(relation)
	if !ok {
		return nil, fmt.Errorf("directive: %s has no relation %q", m.Name(), relation)
	}
	o := includeOptions{key: name}
	for _, opt := range opts {
		opt(&o)
	}
	return &Include[T]{relation: name, key: o.key}, nil
}

// MustInclude is like NewInclude but panics on error.
func MustInclude[T any](m *schema.Model[T], relation string, opts ...Option) *Include[T] {
	d, err := NewInclude(m, relation, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Include[T]) Key() string { return d.key }

func (d *Include[T]) Apply(q *query.Query[T], rc *request.Context) *query.Query[T] {
	for _, value := range rc.Params().Get(IncludeKey) {
		for _, token := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(token), d.key) {
				return q.Include(d.relation)
			}
		}
	}
	return q
}

// ApplyAll applies directives in order.
func ApplyAll[T any](directives []Directive[T], q *query.Query[T], rc *request.Context) *query.Query[T] {
	for _, d := range directives {
		q = d.Apply(q, rc)
	}
	return q
}
