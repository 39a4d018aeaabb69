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
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BaseEntity carries the identifier and timestamps shared by entities.
// Embed it and declare its fields with BaseFields.
type BaseEntity struct {
	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

var _ bun.BeforeAppendModelHook = (*BaseEntity)(nil)

// BeforeAppendModel assigns a missing identifier and maintains timestamps.
func (b *BaseEntity) BeforeAppendModel(_ context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		b.UpdatedAt = now
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

// BaseFields declares id, createdAt and updatedAt for an entity embedding
// BaseEntity.
func BaseFields[T any](ref func(*T) *BaseEntity) []*Field[T] {
	return []*Field[T]{
		UUID(IDField, "id", func(e *T) *uuid.UUID { return &ref(e).ID }),
		Time("createdAt", "created_at", func(e *T) *time.Time { return &ref(e).CreatedAt }),
		Time("updatedAt", "updated_at", func(e *T) *time.Time { return &ref(e).UpdatedAt }),
	}
}
