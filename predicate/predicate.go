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

// Package predicate builds boolean expressions over entity fields. A
// Predicate is plain data: stores translate it into their own query form.
package predicate

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/schema"
	"github.com/tomoncle/restkit/types"
)

// Op is the operator of a predicate node.
type Op string

const (
	OpEq         Op = "="
	OpGt         Op = ">"
	OpGte        Op = ">="
	OpLt         Op = "<"
	OpLte        Op = "<="
	OpIn         Op = "IN"
	OpIEq        Op = "IEQ"
	OpIContains  Op = "ICONTAINS"
	OpIHasPrefix Op = "IHASPREFIX"
	OpIHasSuffix Op = "IHASSUFFIX"
	OpAnd        Op = "AND"
	OpOr         Op = "OR"
)

// Predicate is a boolean expression over entities of type T. Leaf nodes
// compare one field with Value; AND/OR nodes combine Children.
type Predicate[T any] struct {
	Op       Op
	Field    string
	Column   string
	Kind     schema.Kind
	Value    any
	Children []Predicate[T]
}

// IsZero reports whether p is the empty predicate.
func (p Predicate[T]) IsZero() bool {
	return p.Op == ""
}

// IsLogical reports whether p combines other predicates.
func (p Predicate[T]) IsLogical() bool {
	return p.Op == OpAnd || p.Op == OpOr
}

func leaf[T any](op Op, f *schema.Field[T], v any) (Predicate[T], error) {
	nv, err := f.Normalize(v)
	if err != nil {
		return Predicate[T]{}, err
	}
	return Predicate[T]{Op: op, Field: f.Name(), Column: f.Column(), Kind: f.Kind(), Value: nv}, nil
}

// Eq matches entities whose field equals v. It fails with a
// TypeMismatchError when v does not fit the field.
func Eq[T any](f *schema.Field[T], v any) (Predicate[T], error) { return leaf(OpEq, f, v) }

// Gt matches entities whose field is greater than v.
func Gt[T any](f *schema.Field[T], v any) (Predicate[T], error) { return leaf(OpGt, f, v) }

// Gte matches entities whose field is greater than or equal to v.
func Gte[T any](f *schema.Field[T], v any) (Predicate[T], error) { return leaf(OpGte, f, v) }

// Lt matches entities whose field is less than v.
func Lt[T any](f *schema.Field[T], v any) (Predicate[T], error) { return leaf(OpLt, f, v) }

// Lte matches entities whose field is less than or equal to v.
func Lte[T any](f *schema.Field[T], v any) (Predicate[T], error) { return leaf(OpLte, f, v) }

// In matches entities whose field equals one of values. An empty list
// matches nothing.
func In[T any](f *schema.Field[T], values ...any) (Predicate[T], error) {
	list := make([]any, 0, len(values))
	for _, v := range values {
		nv, err := f.Normalize(v)
		if err != nil {
			return Predicate[T]{}, err
		}
		list = append(list, nv)
	}
	return Predicate[T]{Op: OpIn, Field: f.Name(), Column: f.Column(), Kind: f.Kind(), Value: list}, nil
}

func text[T any](op Op, f *schema.Field[T], s string) (Predicate[T], error) {
	if f.Kind() != schema.KindString {
		return Predicate[T]{}, &errs.TypeMismatchError{Field: f.Name(), Expected: f.Kind().String(), Actual: "string"}
	}
	return Predicate[T]{Op: op, Field: f.Name(), Column: f.Column(), Kind: schema.KindString, Value: strings.ToLower(s)}, nil
}

// IEq matches a string field equal to s ignoring case.
func IEq[T any](f *schema.Field[T], s string) (Predicate[T], error) { return text(OpIEq, f, s) }

// IContains matches a string field containing s ignoring case.
func IContains[T any](f *schema.Field[T], s string) (Predicate[T], error) {
	return text(OpIContains, f, s)
}

// IHasPrefix matches a string field starting with s ignoring case.
func IHasPrefix[T any](f *schema.Field[T], s string) (Predicate[T], error) {
	return text(OpIHasPrefix, f, s)
}

// IHasSuffix matches a string field ending with s ignoring case.
func IHasSuffix[T any](f *schema.Field[T], s string) (Predicate[T], error) {
	return text(OpIHasSuffix, f, s)
}

// And returns a predicate true when all of a, b and rest are. Zero
// predicates among the operands are ignored.
func And[T any](a, b Predicate[T], rest ...Predicate[T]) Predicate[T] {
	return combine(OpAnd, append([]Predicate[T]{a, b}, rest...))
}

// Or returns a predicate true when any of a, b and rest is.
func Or[T any](a, b Predicate[T], rest ...Predicate[T]) Predicate[T] {
	return combine(OpOr, append([]Predicate[T]{a, b}, rest...))
}

func combine[T any](op Op, operands []Predicate[T]) Predicate[T] {
	children := make([]Predicate[T], 0, len(operands))
	for _, p := range operands {
		if !p.IsZero() {
			children = append(children, p)
		}
	}
	switch len(children) {
	case 0:
		return Predicate[T]{}
	case 1:
		return children[0]
	}
	return Predicate[T]{Op: op, Children: children}
}

// Equal reports whether p and o are structurally identical.
func (p Predicate[T]) Equal(o Predicate[T]) bool {
	if p.Op != o.Op || p.Field != o.Field || p.Column != o.Column || p.Kind != o.Kind {
		return false
	}
	if len(p.Children) != len(o.Children) || !valueEqual(p.Value, o.Value) {
		return false
	}
	for i := range p.Children {
		if !p.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}

func (p Predicate[T]) String() string {
	switch p.Op {
	case "":
		return "TRUE"
	case OpAnd, OpOr:
		parts := make([]string, len(p.Children))
		for i, c := range p.Children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " "+string(p.Op)+" ") + ")"
	case OpIn:
		values := p.Value.([]any)
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = formatValue(v)
		}
		return fmt.Sprintf("%s IN (%s)", p.Field, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("%s %s %s", p.Field, p.Op, formatValue(p.Value))
	}
}

func formatValue(v any) string {
	switch tv := v.(type) {
	case string:
		return fmt.Sprintf("%q", tv)
	case time.Time:
		return tv.Format(time.RFC3339Nano)
	case types.BaseEnum:
		return tv.Name()
	default:
		return fmt.Sprint(v)
	}
}
