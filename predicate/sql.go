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
	"database/sql/driver"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/tomoncle/restkit/types"
)

const likeEscape = "!"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ToSqlizer renders p as a squirrel expression. prefix is prepended to
// every column, e.g. "?TableAlias." for bun queries.
func ToSqlizer[T any](p Predicate[T], prefix string) (sq.Sqlizer, error) {
	col := prefix + p.Column
	switch p.Op {
	case OpAnd, OpOr:
		parts := make([]sq.Sqlizer, 0, len(p.Children))
		for _, c := range p.Children {
			s, err := ToSqlizer(c, prefix)
			if err != nil {
				return nil, err
			}
			parts = append(parts, s)
		}
		if p.Op == OpAnd {
			return sq.And(parts), nil
		}
		return sq.Or(parts), nil
	case OpIn:
		values := p.Value.([]any)
		args := make([]any, len(values))
		for i, v := range values {
			a, err := sqlValue(v)
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return sq.Eq{col: args}, nil
	case OpIEq:
		return sq.Expr("LOWER("+col+") = ?", p.Value), nil
	case OpIContains:
		return like(col, "%"+likeEscaper.Replace(p.Value.(string))+"%"), nil
	case OpIHasPrefix:
		return like(col, likeEscaper.Replace(p.Value.(string))+"%"), nil
	case OpIHasSuffix:
		return like(col, "%"+likeEscaper.Replace(p.Value.(string))), nil
	}

	v, err := sqlValue(p.Value)
	if err != nil {
		return nil, err
	}
	switch p.Op {
	case OpEq:
		return sq.Eq{col: v}, nil
	case OpGt:
		return sq.Gt{col: v}, nil
	case OpGte:
		return sq.GtOrEq{col: v}, nil
	case OpLt:
		return sq.Lt{col: v}, nil
	case OpLte:
		return sq.LtOrEq{col: v}, nil
	}
	return nil, fmt.Errorf("predicate: cannot render operator %q", p.Op)
}

func like(col, pattern string) sq.Sqlizer {
	return sq.Expr("LOWER("+col+") LIKE ? ESCAPE '"+likeEscape+"'", pattern)
}

func sqlValue(v any) (any, error) {
	switch tv := v.(type) {
	case types.BaseEnum:
		return tv.Number(), nil
	case driver.Valuer:
		return tv.Value()
	}
	return v, nil
}
