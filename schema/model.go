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

package schema

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tomoncle/restkit/errs"
)

// IDField is the name every model must declare for its identifier.
const IDField = "id"

// Model is the descriptor table of entity T. It is built once at startup
// and only read afterwards.
type Model[T any] struct {
	name      string
	id        *Field[T]
	fields    []*Field[T]
	index     map[string]*Field[T]
	relations map[string]string
}

// NewModel builds a descriptor from fields. One field must be named "id"
// and be of KindUUID. Names are unique ignoring case.
func NewModel[T any](name string, fields ...*Field[T]) (*Model[T], error) {
	m := &Model[T]{
		name:      name,
		index:     make(map[string]*Field[T], len(fields)),
		relations: make(map[string]string),
	}
	for _, f := range fields {
		if f == nil {
			return nil, fmt.Errorf("schema: nil field in model %s", name)
		}
		key := strings.ToLower(f.name)
		if _, dup := m.index[key]; dup {
			return nil, fmt.Errorf("schema: duplicate field %q in model %s", f.name, name)
		}
		m.index[key] = f
		m.fields = append(m.fields, f)
	}
	id, ok := m.index[IDField]
	if !ok || id.kind != KindUUID {
		return nil, fmt.Errorf("schema: model %s needs a uuid field named %q", name, IDField)
	}
	m.id = id
	return m, nil
}

// MustModel is like NewModel but panics on error.
func MustModel[T any](name string, fields ...*Field[T]) *Model[T] {
	m, err := NewModel(name, fields...)
	if err != nil {
		panic(err)
	}
	return m
}

// WithRelations declares relations that may be eager-loaded. Names are the
// relation names understood by the store (bun relation field names).
func (m *Model[T]) WithRelations(names ...string) *Model[T] {
	for _, n := range names {
		m.relations[strings.ToLower(n)] = n
	}
	return m
}

func (m *Model[T]) Name() string   { return m.name }
func (m *Model[T]) ID() *Field[T]  { return m.id }
func (m *Model[T]) IDOf(e *T) uuid.UUID {
	return m.id.Get(e).(uuid.UUID)
}

// Fields returns the declared fields in declaration order.
func (m *Model[T]) Fields() []*Field[T] {
	out := make([]*Field[T], len(m.fields))
	copy(out, m.fields)
	return out
}

// Lookup resolves a field by name, ignoring case.
func (m *Model[T]) Lookup(name string) (*Field[T], bool) {
	f, ok := m.index[strings.ToLower(name)]
	return f, ok
}

// Relation resolves a declared relation by name, ignoring case, and returns
// its declared spelling.
func (m *Model[T]) Relation(name string) (string, bool) {
	r, ok := m.relations[strings.ToLower(name)]
	return r, ok
}

// Get reads field name of e.
func (m *Model[T]) Get(e *T, name string) (any, error) {
	f, ok := m.Lookup(name)
	if !ok {
		return nil, errs.BadRequest(errs.FieldMissing, "%s has no field %q", m.name, name)
	}
	return f.Get(e), nil
}

// Set writes v into field name of e.
func (m *Model[T]) Set(e *T, name string, v any) error {
	f, ok := m.Lookup(name)
	if !ok {
		return errs.BadRequest(errs.FieldMissing, "%s has no field %q", m.name, name)
	}
	return f.Set(e, v)
}
