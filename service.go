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

package restkit

import (
	"github.com/google/uuid"
	"github.com/tomoncle/restkit/database"
	"github.com/tomoncle/restkit/repository"
	"github.com/tomoncle/restkit/request"
	"github.com/tomoncle/restkit/schema"
	"github.com/tomoncle/restkit/types"
	"github.com/uptrace/bun"
)

type Service[T any] interface {
	// List returns one page of the entities visible to the request.
	List(rc *request.Context) (*types.ResultSet, error)

	// Get returns the projection of a single entity by its identifier.
	Get(rc *request.Context, id uuid.UUID) (any, bool, error)

	// Create inserts a new entity and returns its projection.
	Create(rc *request.Context, e *T) (any, error)

	// Patch applies a JSON Patch document to an existing entity.
	Patch(rc *request.Context, id uuid.UUID, payload []byte) (any, bool, error)

	// Delete removes an entity by its identifier.
	Delete(rc *request.Context, id uuid.UUID) (bool, error)
}

var _ Service[struct{}] = (*Repository[struct{}])(nil)

// NewService returns a Repository backed by the global database
// connection. The connection is resolved on first use, so services may be
// declared before database.InitDB runs.
func NewService[T any](model *schema.Model[T], opts ...Option) *Repository[T] {
	store := repository.Lazy(func() repository.Store[T] {
		return repository.NewBunStore[T](database.GetDB())
	})
	return New(model, store, opts...)
}

// Factory creates repositories sharing one database handle and one set of
// options.
type Factory struct {
	db   bun.IDB
	opts []Option
}

func NewFactory(db bun.IDB, opts ...Option) *Factory {
	return &Factory{db: db, opts: opts}
}

// Create returns a Repository for model bound to the factory's database.
func Create[T any](f *Factory, model *schema.Model[T], opts ...Option) *Repository[T] {
	all := append(append([]Option(nil), f.opts...), opts...)
	return New(model, repository.NewBunStore[T](f.db), all...)
}
