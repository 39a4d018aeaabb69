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

// Package filter turns request parameters into predicates. Each filter is
// bound to one entity field and reads its tokens from one repeatable
// parameter, by default named after the field.
package filter

import (
	"fmt"

	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/predicate"
	"github.com/tomoncle/restkit/request"
	"github.com/tomoncle/restkit/schema"
)

// Filter builds the predicates one field contributes to a request.
type Filter[T any] interface {
	Build(rc *request.Context) ([]predicate.Predicate[T], error)
	FieldName() string
}

// DefaultMarker is the wildcard character of String filters.
const DefaultMarker = "~"

type options struct {
	key    string
	marker string
}

// Option customizes a filter.
type Option func(*options)

// WithKey binds the filter to a parameter name other than the field name.
func WithKey(key string) Option {
	return func(o *options) { o.key = key }
}

// WithMarker changes the wildcard character of a String filter.
func WithMarker(marker string) Option {
	return func(o *options) { o.marker = marker }
}

type base[T any] struct {
	field *schema.Field[T]
	key   string
}

func newBase[T any](field *schema.Field[T], kind schema.Kind, opts []Option) (base[T], options) {
	if field == nil {
		panic("filter: nil field")
	}
	if field.Kind() != kind {
		panic(fmt.Sprintf("filter: field %s is %s, want %s", field.Name(), field.Kind(), kind))
	}
	o := options{key: field.Name(), marker: DefaultMarker}
	for _, opt := range opts {
		opt(&o)
	}
	return base[T]{field: field, key: o.key}, o
}

func (b base[T]) FieldName() string { return b.key }

// tokens returns the non-empty values of the bound parameter.
func (b base[T]) tokens(rc *request.Context) []string {
	var out []string
	for _, v := range rc.Params().Get(b.key) {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (b base[T]) parseError(token, reason string) error {
	return &errs.ParseError{Field: b.key, Token: token, Reason: reason}
}

func (b base[T]) each(rc *request.Context, build func(token string) (predicate.Predicate[T], error)) ([]predicate.Predicate[T], error) {
	tokens := b.tokens(rc)
	if len(tokens) == 0 {
		return nil, nil
	}
	out := make([]predicate.Predicate[T], 0, len(tokens))
	for _, token := range tokens {
		p, err := build(token)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// BuildAll runs filters in order and concatenates their predicates. The
// first failing filter aborts the build.
func BuildAll[T any](filters []Filter[T], rc *request.Context) ([]predicate.Predicate[T], error) {
	var out []predicate.Predicate[T]
	for _, f := range filters {
		preds, err := f.Build(rc)
		if err != nil {
			return nil, err
		}
		out = append(out, preds...)
	}
	return out, nil
}
