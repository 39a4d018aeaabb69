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

// Package schema describes entity types to the query engine: which fields
// exist, how they are typed and how to read or write them by name.
package schema

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/types"
)

// Kind is the value type of a field.
type Kind int

const (
	KindBool Kind = iota + 1
	KindTime
	KindUUID
	KindEnum
	KindString
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindUUID:
		return "uuid"
	case KindEnum:
		return "enum"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "invalid"
	}
}

// Field is a typed slot of entity T addressable by name.
type Field[T any] struct {
	name   string
	column string
	kind   Kind
	get    func(*T) any
	set    func(*T, any)
	accept func(any) (any, bool)
	enums  []types.BaseEnum
}

func (f *Field[T]) Name() string   { return f.name }
func (f *Field[T]) Column() string { return f.column }
func (f *Field[T]) Kind() Kind     { return f.kind }

// EnumValues lists the declared values of an enum field in declaration order.
func (f *Field[T]) EnumValues() []types.BaseEnum {
	out := make([]types.BaseEnum, len(f.enums))
	copy(out, f.enums)
	return out
}

// Get reads the field from e.
func (f *Field[T]) Get(e *T) any {
	return f.get(e)
}

// Set writes v into e after checking its type.
func (f *Field[T]) Set(e *T, v any) error {
	nv, err := f.Normalize(v)
	if err != nil {
		return err
	}
	f.set(e, nv)
	return nil
}

// Normalize checks that v can be stored in the field and returns it in the
// field's canonical representation (int64 for integers, float64 for floats).
func (f *Field[T]) Normalize(v any) (any, error) {
	if nv, ok := f.accept(v); ok {
		return nv, nil
	}
	return nil, &errs.TypeMismatchError{Field: f.name, Expected: f.kind.String(), Actual: fmt.Sprintf("%T", v)}
}

func newField[T, V any](name, column string, kind Kind, ref func(*T) *V) *Field[T] {
	return &Field[T]{
		name:   name,
		column: column,
		kind:   kind,
		get:    func(e *T) any { return *ref(e) },
		set:    func(e *T, v any) { *ref(e) = v.(V) },
		accept: func(v any) (any, bool) {
			tv, ok := v.(V)
			return tv, ok
		},
	}
}

// Bool declares a boolean field.
func Bool[T any](name, column string, ref func(*T) *bool) *Field[T] {
	return newField(name, column, KindBool, ref)
}

// Time declares a date/time field.
func Time[T any](name, column string, ref func(*T) *time.Time) *Field[T] {
	return newField(name, column, KindTime, ref)
}

// UUID declares an identifier field.
func UUID[T any](name, column string, ref func(*T) *uuid.UUID) *Field[T] {
	return newField(name, column, KindUUID, ref)
}

// String declares a text field.
func String[T any](name, column string, ref func(*T) *string) *Field[T] {
	return newField(name, column, KindString, ref)
}

// Float declares a float64 field. float32 literals are widened.
func Float[T any](name, column string, ref func(*T) *float64) *Field[T] {
	f := newField(name, column, KindFloat, ref)
	f.accept = func(v any) (any, bool) {
		switch n := v.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		}
		return nil, false
	}
	return f
}

// Int declares an integer field of any signed integer type.
func Int[T any, N ~int | ~int8 | ~int16 | ~int32 | ~int64](name, column string, ref func(*T) *N) *Field[T] {
	return &Field[T]{
		name:   name,
		column: column,
		kind:   KindInt,
		get:    func(e *T) any { return int64(*ref(e)) },
		set:    func(e *T, v any) { *ref(e) = N(v.(int64)) },
		accept: func(v any) (any, bool) {
			switch n := v.(type) {
			case int:
				return int64(n), true
			case int32:
				return int64(n), true
			case int64:
				return n, true
			case N:
				return int64(n), true
			}
			return nil, false
		},
	}
}

// Enum declares a field holding an enum value E. values is the declared
// enumeration in order; the first value is the enum's default.
func Enum[T any, E types.BaseEnum](name, column string, ref func(*T) *E, values ...E) *Field[T] {
	f := newField(name, column, KindEnum, ref)
	f.enums = make([]types.BaseEnum, len(values))
	for i, v := range values {
		f.enums[i] = v
	}
	return f
}
