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

package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mohae/deepcopy"
	"github.com/tomoncle/restkit/predicate"
	"github.com/tomoncle/restkit/query"
	"github.com/tomoncle/restkit/schema"
)

// MemoryStore keeps entities in memory and evaluates predicates with the
// model's accessors. Relations are not loaded. Rows are deep copied on the
// way in and out, so callers never share storage with the store.
type MemoryStore[T any] struct {
	model *schema.Model[T]
	mu    sync.RWMutex
	order []uuid.UUID
	rows  map[uuid.UUID]T
}

// NewMemoryStore returns a store holding copies of seed.
func NewMemoryStore[T any](model *schema.Model[T], seed ...*T) *MemoryStore[T] {
	s := &MemoryStore[T]{model: model, rows: make(map[uuid.UUID]T)}
	for _, e := range seed {
		id := model.IDOf(e)
		if _, ok := s.rows[id]; !ok {
			s.order = append(s.order, id)
		}
		s.rows[id] = clone(e)
	}
	return s
}

func clone[T any](e *T) T {
	return deepcopy.Copy(*e).(T)
}

func (s *MemoryStore[T]) match(ctx context.Context, q *query.Query[T]) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := q.Predicate()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.order))
	for _, id := range s.order {
		row := s.rows[id]
		ok, err := predicate.Evaluate(p, s.model, &row)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, &row)
		}
	}
	return out, nil
}

func (s *MemoryStore[T]) Find(ctx context.Context, q *query.Query[T]) ([]*T, error) {
	rows, err := s.match(ctx, q)
	if err != nil {
		return nil, err
	}
	if orders := q.Orders(); len(orders) > 0 {
		var sortErr error
		sort.SliceStable(rows, func(i, j int) bool {
			for _, o := range orders {
				f, ok := s.model.Lookup(o.Field)
				if !ok {
					continue
				}
				c, err := predicate.Compare(f.Kind(), f.Get(rows[i]), f.Get(rows[j]))
				if err != nil {
					sortErr = err
					return false
				}
				if c != 0 {
					return (c < 0) != o.Desc
				}
			}
			return false
		})
		if sortErr != nil {
			return nil, sortErr
		}
	}
	start := min(q.Offset(), len(rows))
	end := len(rows)
	if q.Limit() > 0 {
		end = min(start+q.Limit(), end)
	}
	out := make([]*T, 0, end-start)
	for _, row := range rows[start:end] {
		cp := clone(row)
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore[T]) Count(ctx context.Context, q *query.Query[T]) (int, error) {
	rows, err := s.match(ctx, q)
	return len(rows), err
}

func (s *MemoryStore[T]) Insert(ctx context.Context, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := s.model.IDOf(entity)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; ok {
		return ErrDuplicate
	}
	s.rows[id] = clone(entity)
	s.order = append(s.order, id)
	return nil
}

func (s *MemoryStore[T]) Update(ctx context.Context, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := s.model.IDOf(entity)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrMissing
	}
	s.rows[id] = clone(entity)
	return nil
}

func (s *MemoryStore[T]) Delete(ctx context.Context, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := s.model.IDOf(entity)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return ErrMissing
	}
	delete(s.rows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored entities.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
