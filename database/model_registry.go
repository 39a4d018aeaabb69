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

package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/uptrace/bun"
)

var defaultRegistry = &modelRegistry{}

// SQLModel is a bun model registered for table creation. Lower priorities
// are created first.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

type modelRegistry struct {
	mu     sync.RWMutex
	models []SQLModel
}

func (r *modelRegistry) register(m SQLModel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = append(r.models, m)
}

func (r *modelRegistry) sorted() []SQLModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]SQLModel(nil), r.models...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() < out[j].Priority() })
	return out
}

type modelAdapter struct {
	instance interface{}
	priority int
}

func (a *modelAdapter) Instance() interface{} { return a.instance }
func (a *modelAdapter) Priority() int         { return a.priority }

// RegisterModel adds a bun model pointer, e.g. (*Post)(nil), to the
// default registry.
func RegisterModel(instance interface{}, priority int) {
	defaultRegistry.register(&modelAdapter{instance: instance, priority: priority})
}

// RegisteredModels returns the registered models by ascending priority.
func RegisteredModels() []SQLModel {
	return defaultRegistry.sorted()
}

func RegisteredModelInstances() []interface{} {
	models := RegisteredModels()
	out := make([]interface{}, len(models))
	for i, m := range models {
		out[i] = m.Instance()
	}
	return out
}

// CreateTables creates the tables of models that do not exist yet. Without
// arguments it creates every registered model.
func CreateTables(ctx context.Context, db bun.IDB, models ...interface{}) error {
	if len(models) == 0 {
		models = RegisteredModelInstances()
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}
