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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/restkit/predicate"
	"github.com/tomoncle/restkit/request"
	"github.com/tomoncle/restkit/schema"
	"github.com/tomoncle/restkit/types"
)

// BoolFilter accepts "true" or "false" in any case.
type BoolFilter[T any] struct{ base[T] }

// Bool filters a boolean field.
func Bool[T any](field *schema.Field[T], opts ...Option) *BoolFilter[T] {
	b, _ := newBase(field, schema.KindBool, opts)
	return &BoolFilter[T]{b}
}

func (f *BoolFilter[T]) Build(rc *request.Context) ([]predicate.Predicate[T], error) {
	return f.each(rc, func(token string) (predicate.Predicate[T], error) {
		var v bool
		switch strings.ToLower(token) {
		case "true":
			v = true
		case "false":
			v = false
		default:
			return predicate.Predicate[T]{}, f.parseError(token, "expected true or false")
		}
		return predicate.Eq(f.field, v)
	})
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DateFilter accepts a date optionally prefixed by <=, >=, < or >.
type DateFilter[T any] struct{ base[T] }

// Date filters a time field.
func Date[T any](field *schema.Field[T], opts ...Option) *DateFilter[T] {
	b, _ := newBase(field, schema.KindTime, opts)
	return &DateFilter[T]{b}
}

func (f *DateFilter[T]) Build(rc *request.Context) ([]predicate.Predicate[T], error) {
	return f.each(rc, func(token string) (predicate.Predicate[T], error) {
		build, literal := predicate.Eq[T], token
		switch {
		case strings.HasPrefix(token, "<="):
			build, literal = predicate.Lte[T], token[2:]
		case strings.HasPrefix(token, ">="):
			build, literal = predicate.Gte[T], token[2:]
		case strings.HasPrefix(token, "<"):
			build, literal = predicate.Lt[T], token[1:]
		case strings.HasPrefix(token, ">"):
			build, literal = predicate.Gt[T], token[1:]
		}
		t, ok := parseDate(strings.TrimSpace(literal))
		if !ok {
			return predicate.Predicate[T]{}, f.parseError(token, "expected a date such as 2006-01-02 or an RFC 3339 timestamp")
		}
		return build(f.field, t)
	})
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UUIDFilter accepts one identifier or a comma-separated list of them.
type UUIDFilter[T any] struct{ base[T] }

// UUID filters an identifier field.
func UUID[T any](field *schema.Field[T], opts ...Option) *UUIDFilter[T] {
	b, _ := newBase(field, schema.KindUUID, opts)
	return &UUIDFilter[T]{b}
}

func (f *UUIDFilter[T]) Build(rc *request.Context) ([]predicate.Predicate[T], error) {
	return f.each(rc, func(token string) (predicate.Predicate[T], error) {
		if !strings.Contains(token, ",") {
			id, err := uuid.Parse(strings.TrimSpace(token))
			if err != nil {
				return predicate.Predicate[T]{}, f.parseError(token, err.Error())
			}
			return predicate.Eq(f.field, id)
		}
		parts := strings.Split(token, ",")
		ids := make([]any, 0, len(parts))
		for _, part := range parts {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				return predicate.Predicate[T]{}, f.parseError(token, err.Error())
			}
			ids = append(ids, id)
		}
		return predicate.In(f.field, ids...)
	})
}

// EnumFilter accepts a declared enum name in any case, or its number.
type EnumFilter[T any] struct{ base[T] }

// Enum filters an enum field against its declared values.
func Enum[T any](field *schema.Field[T], opts ...Option) *EnumFilter[T] {
	b, _ := newBase(field, schema.KindEnum, opts)
	return &EnumFilter[T]{b}
}

func (f *EnumFilter[T]) Build(rc *request.Context) ([]predicate.Predicate[T], error) {
	values := f.field.EnumValues()
	return f.each(rc, func(token string) (predicate.Predicate[T], error) {
		v, ok := types.LookupEnum(values, strings.TrimSpace(token))
		if !ok {
			if n, err := strconv.Atoi(strings.TrimSpace(token)); err == nil {
				v, ok = types.EnumOf(values, n)
			}
		}
		if !ok {
			return predicate.Predicate[T]{}, f.parseError(token, "unknown value")
		}
		return predicate.Eq(f.field, v)
	})
}

// StringFilter matches text ignoring case. A marker at the start and end of
// the token means "contains"; a leading marker alone means "ends with" and a
// trailing marker alone means "starts with".
type StringFilter[T any] struct {
	base[T]
	marker string
}

// String filters a text field. The marker defaults to "~".
func String[T any](field *schema.Field[T], opts ...Option) *StringFilter[T] {
	b, o := newBase(field, schema.KindString, opts)
	if o.marker == "" {
		o.marker = DefaultMarker
	}
	return &StringFilter[T]{base: b, marker: o.marker}
}

func (f *StringFilter[T]) Build(rc *request.Context) ([]predicate.Predicate[T], error) {
	return f.each(rc, func(token string) (predicate.Predicate[T], error) {
		leading := strings.HasPrefix(token, f.marker)
		trailing := len(token) > len(f.marker) && strings.HasSuffix(token, f.marker)
		value := strings.ReplaceAll(token, f.marker, "")
		switch {
		case leading && trailing:
			return predicate.IContains(f.field, value)
		case leading:
			return predicate.IHasSuffix(f.field, value)
		case trailing:
			return predicate.IHasPrefix(f.field, value)
		}
		return predicate.IEq(f.field, value)
	})
}
