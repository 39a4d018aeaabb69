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

package predicate

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/restkit/schema"
	"github.com/tomoncle/restkit/types"
)

// Evaluate reports whether entity e satisfies p. The zero predicate
// matches everything.
func Evaluate[T any](p Predicate[T], m *schema.Model[T], e *T) (bool, error) {
	switch p.Op {
	case "":
		return true, nil
	case OpAnd:
		for _, c := range p.Children {
			ok, err := Evaluate(c, m, e)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OpOr:
		for _, c := range p.Children {
			ok, err := Evaluate(c, m, e)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}

	actual, err := m.Get(e, p.Field)
	if err != nil {
		return false, err
	}
	switch p.Op {
	case OpIn:
		for _, v := range p.Value.([]any) {
			if c, err := Compare(p.Kind, actual, v); err != nil {
				return false, err
			} else if c == 0 {
				return true, nil
			}
		}
		return false, nil
	case OpIEq, OpIContains, OpIHasPrefix, OpIHasSuffix:
		s, ok := actual.(string)
		if !ok {
			return false, fmt.Errorf("predicate: %s is not a string field", p.Field)
		}
		return matchText(p.Op, strings.ToLower(s), p.Value.(string)), nil
	}

	c, err := Compare(p.Kind, actual, p.Value)
	if err != nil {
		return false, err
	}
	switch p.Op {
	case OpEq:
		return c == 0, nil
	case OpGt:
		return c > 0, nil
	case OpGte:
		return c >= 0, nil
	case OpLt:
		return c < 0, nil
	case OpLte:
		return c <= 0, nil
	}
	return false, fmt.Errorf("predicate: unknown operator %q", p.Op)
}

func matchText(op Op, s, pattern string) bool {
	switch op {
	case OpIContains:
		return strings.Contains(s, pattern)
	case OpIHasPrefix:
		return strings.HasPrefix(s, pattern)
	case OpIHasSuffix:
		return strings.HasSuffix(s, pattern)
	default:
		return s == pattern
	}
}

// Compare orders two normalized values of the given kind.
func Compare(kind schema.Kind, a, b any) (int, error) {
	switch kind {
	case schema.KindBool:
		av, aok := a.(bool)
		bv, bok := b.(bool)
		if aok && bok {
			return boolRank(av) - boolRank(bv), nil
		}
	case schema.KindTime:
		av, aok := a.(time.Time)
		bv, bok := b.(time.Time)
		if aok && bok {
			return av.Compare(bv), nil
		}
	case schema.KindUUID:
		av, aok := a.(uuid.UUID)
		bv, bok := b.(uuid.UUID)
		if aok && bok {
			return bytes.Compare(av[:], bv[:]), nil
		}
	case schema.KindEnum:
		av, aok := a.(types.BaseEnum)
		bv, bok := b.(types.BaseEnum)
		if aok && bok {
			return cmp.Compare(av.Number(), bv.Number()), nil
		}
	case schema.KindString:
		av, aok := a.(string)
		bv, bok := b.(string)
		if aok && bok {
			return strings.Compare(av, bv), nil
		}
	case schema.KindInt:
		av, aok := a.(int64)
		bv, bok := b.(int64)
		if aok && bok {
			return cmp.Compare(av, bv), nil
		}
	case schema.KindFloat:
		av, aok := a.(float64)
		bv, bok := b.(float64)
		if aok && bok {
			return cmp.Compare(av, bv), nil
		}
	}
	return 0, fmt.Errorf("predicate: cannot compare %T with %T as %s", a, b, kind)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
