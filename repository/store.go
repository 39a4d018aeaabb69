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
	"errors"
	"sync"

	"github.com/tomoncle/restkit/query"
)

var (
	// ErrDuplicate is returned by stores without a database when an entity
	// with the same identifier already exists.
	ErrDuplicate = errors.New("repository: duplicate key")
	// ErrMissing is returned by stores without a database when the entity
	// to update or delete does not exist.
	ErrMissing = errors.New("repository: entity does not exist")
)

// Reader materializes queries.
type Reader[T any] interface {
	// Find returns the entities matching q, ordered and windowed.
	Find(ctx context.Context, q *query.Query[T]) ([]*T, error)

	// Count returns how many entities match q, ignoring its window.
	Count(ctx context.Context, q *query.Query[T]) (int, error)
}

// Writer persists single entities. Each call is one commit.
type Writer[T any] interface {
	Insert(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, entity *T) error
}

// Store is the persistence capability the resource repository runs on.
type Store[T any] interface {
	Reader[T]
	Writer[T]
}

type lazyStore[T any] struct {
	once  sync.Once
	init  func() Store[T]
	store Store[T]
}

// Lazy defers building the store until its first use.
func Lazy[T any](init func() Store[T]) Store[T] {
	return &lazyStore[T]{init: init}
}

func (s *lazyStore[T]) get() Store[T] {
	s.once.Do(func() { s.store = s.init() })
	return s.store
}

func (s *lazyStore[T]) Find(ctx context.Context, q *query.Query[T]) ([]*T, error) {
	return s.get().Find(ctx, q)
}

func (s *lazyStore[T]) Count(ctx context.Context, q *query.Query[T]) (int, error) {
	return s.get().Count(ctx, q)
}

func (s *lazyStore[T]) Insert(ctx context.Context, entity *T) error {
	return s.get().Insert(ctx, entity)
}

func (s *lazyStore[T]) Update(ctx context.Context, entity *T) error {
	return s.get().Update(ctx, entity)
}

func (s *lazyStore[T]) Delete(ctx context.Context, entity *T) error {
	return s.get().Delete(ctx, entity)
}
