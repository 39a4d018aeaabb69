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
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/restkit/directive"
	"github.com/tomoncle/restkit/filter"
	"github.com/tomoncle/restkit/query"
	"github.com/tomoncle/restkit/repository"
	"github.com/tomoncle/restkit/request"
	"github.com/tomoncle/restkit/schema"
	"github.com/tomoncle/restkit/scope"
	"github.com/tomoncle/restkit/utils"
)

const (
	LimitKey = "limit"
	PageKey  = "page"
	SortKey  = "sort"
)

type (
	// QueryHook adjusts the query of a request. Returning an error rejects
	// the request before anything is read.
	QueryHook[T any] func(q *query.Query[T], rc *request.Context) (*query.Query[T], error)
	// EntityHook inspects or modifies an entity before it is written.
	// Returning an error aborts the write.
	EntityHook[T any] func(e *T, rc *request.Context) error
	// PatchHook runs before a patch is applied to the stored entity.
	PatchHook[T any] func(e *T, patch jsonpatch.Patch, rc *request.Context) error
	// AfterHook runs once a write has been committed.
	AfterHook[T any] func(e *T, rc *request.Context)
	// SendHook projects entities into the values sent to the client.
	SendHook[T any] func(items []*T, creating bool) []any
)

var defaultLogger = utils.NewLogger("RESTKIT")

type settings struct {
	config Config
	logger logrus.FieldLogger
}

// Option configures a Repository or a Factory.
type Option func(*settings)

func WithConfig(cfg Config) Option {
	return func(s *settings) { s.config = cfg }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *settings) { s.logger = l }
}

func newSettings(opts []Option) settings {
	s := settings{config: DefaultConfig(), logger: defaultLogger}
	for _, opt := range opts {
		opt(&s)
	}
	s.config = s.config.normalized()
	return s
}

// Repository serves list, get, create, patch and delete for entity T.
//
// Filters, scopes, directives and hooks are registered while the
// repository is configured. After that it only reads them and may serve
// concurrent requests.
type Repository[T any] struct {
	model  *schema.Model[T]
	store  repository.Store[T]
	config Config
	log    logrus.FieldLogger

	filters    []filter.Filter[T]
	scopes     []scope.Scope[T]
	directives []directive.Directive[T]

	onCreateQuery []QueryHook[T]
	onFilter      []QueryHook[T]
	beforeCreate  []EntityHook[T]
	beforePatch   []PatchHook[T]
	beforeSave    []EntityHook[T]
	beforeDelete  []EntityHook[T]
	afterCreate   []AfterHook[T]
	afterDelete   []AfterHook[T]
	beforeSend    SendHook[T]
}

// New returns a Repository for model backed by store.
func New[T any](model *schema.Model[T], store repository.Store[T], opts ...Option) *Repository[T] {
	s := newSettings(opts)
	r := &Repository[T]{
		model:  model,
		store:  store,
		config: s.config,
		log:    s.logger.WithField("entity", model.Name()),
	}
	r.log.WithFields(logrus.Fields{
		"default_limit":    r.config.DefaultLimit,
		"show_total_count": r.config.ShowTotalCount,
	}).Debug("Initialized repository")
	return r
}

func (r *Repository[T]) Model() *schema.Model[T] { return r.model }
func (r *Repository[T]) Config() Config          { return r.config }

// AddFilter registers filters. Their predicates are combined in
// registration order.
func (r *Repository[T]) AddFilter(filters ...filter.Filter[T]) *Repository[T] {
	r.filters = append(r.filters, filters...)
	return r
}

// AddScope registers scopes, applied to every request in registration order.
func (r *Repository[T]) AddScope(scopes ...scope.Scope[T]) *Repository[T] {
	r.scopes = append(r.scopes, scopes...)
	return r
}

// AddDirective registers directives, applied in registration order.
func (r *Repository[T]) AddDirective(directives ...directive.Directive[T]) *Repository[T] {
	r.directives = append(r.directives, directives...)
	return r
}

// OnCreateQuery runs h after scopes on every query the repository builds.
func (r *Repository[T]) OnCreateQuery(h QueryHook[T]) *Repository[T] {
	r.onCreateQuery = append(r.onCreateQuery, h)
	return r
}

// OnFilter runs h on list queries once filters have been applied.
func (r *Repository[T]) OnFilter(h QueryHook[T]) *Repository[T] {
	r.onFilter = append(r.onFilter, h)
	return r
}

func (r *Repository[T]) BeforeCreate(h EntityHook[T]) *Repository[T] {
	r.beforeCreate = append(r.beforeCreate, h)
	return r
}

func (r *Repository[T]) BeforePatch(h PatchHook[T]) *Repository[T] {
	r.beforePatch = append(r.beforePatch, h)
	return r
}

// BeforeSave runs h before every insert and update, after scopes.
func (r *Repository[T]) BeforeSave(h EntityHook[T]) *Repository[T] {
	r.beforeSave = append(r.beforeSave, h)
	return r
}

func (r *Repository[T]) BeforeDelete(h EntityHook[T]) *Repository[T] {
	r.beforeDelete = append(r.beforeDelete, h)
	return r
}

func (r *Repository[T]) AfterCreate(h AfterHook[T]) *Repository[T] {
	r.afterCreate = append(r.afterCreate, h)
	return r
}

func (r *Repository[T]) AfterDelete(h AfterHook[T]) *Repository[T] {
	r.afterDelete = append(r.afterDelete, h)
	return r
}

// BeforeSend sets the projection applied to entities before they are
// returned. Without one, entities are returned as they are.
func (r *Repository[T]) BeforeSend(h SendHook[T]) *Repository[T] {
	r.beforeSend = h
	return r
}

func (r *Repository[T]) transform(items []*T, creating bool) []any {
	if r.beforeSend != nil {
		return r.beforeSend(items, creating)
	}
	out := make([]any, len(items))
	for i, e := range items {
		out[i] = e
	}
	return out
}

func (r *Repository[T]) transformOne(e *T, creating bool) any {
	out := r.transform([]*T{e}, creating)
	if len(out) == 0 {
		return nil
	}
	return out[0]
}

func runEntityHooks[T any](hooks []EntityHook[T], e *T, rc *request.Context) error {
	for _, h := range hooks {
		if err := h(e, rc); err != nil {
			return err
		}
	}
	return nil
}

func runQueryHooks[T any](hooks []QueryHook[T], q *query.Query[T], rc *request.Context) (*query.Query[T], error) {
	for _, h := range hooks {
		var err error
		if q, err = h(q, rc); err != nil {
			return nil, err
		}
	}
	return q, nil
}
