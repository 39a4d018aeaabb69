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
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/restkit/directive"
	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/predicate"
	"github.com/tomoncle/restkit/query"
	"github.com/tomoncle/restkit/request"
	"github.com/tomoncle/restkit/scope"
)

const invalidPatchMessage = "Input is not in valid JsonPatch format."

// Get returns the projection of the entity with the given id. found is
// false when no visible entity has that id.
func (r *Repository[T]) Get(rc *request.Context, id uuid.UUID) (v any, found bool, err error) {
	q, err := r.baseQuery(rc)
	if err != nil {
		return nil, false, err
	}
	q = directive.ApplyAll(r.directives, q, rc)
	e, err := r.first(rc, q, id)
	if err != nil || e == nil {
		return nil, false, err
	}
	return r.transformOne(e, false), true, nil
}

// Find loads the visible entity with the given id without projecting it.
// It returns nil when there is none.
func (r *Repository[T]) Find(rc *request.Context, id uuid.UUID) (*T, error) {
	q, err := r.baseQuery(rc)
	if err != nil {
		return nil, err
	}
	return r.first(rc, q, id)
}

func (r *Repository[T]) first(rc *request.Context, q *query.Query[T], id uuid.UUID) (*T, error) {
	p, err := predicate.Eq(r.model.ID(), id)
	if err != nil {
		return nil, err
	}
	items, err := r.store.Find(rc.Context(), q.Where(p).Window(0, 1))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// Create stores a new entity and returns its projection.
func (r *Repository[T]) Create(rc *request.Context, e *T) (any, error) {
	if err := runEntityHooks(r.beforeCreate, e, rc); err != nil {
		return nil, err
	}
	e = scope.ApplyEntity(r.scopes, e, rc)
	if err := runEntityHooks(r.beforeSave, e, rc); err != nil {
		return nil, err
	}
	if r.model.IDOf(e) == uuid.Nil {
		if err := r.model.ID().Set(e, uuid.New()); err != nil {
			return nil, err
		}
	}
	if err := r.store.Insert(rc.Context(), e); err != nil {
		return nil, err
	}
	r.log.WithField("id", r.model.IDOf(e)).Info("Created entity")
	for _, h := range r.afterCreate {
		h(e, rc)
	}
	return r.transformOne(e, true), nil
}

// Patch applies an RFC 6902 document to the entity with the given id.
func (r *Repository[T]) Patch(rc *request.Context, id uuid.UUID, payload []byte) (v any, found bool, err error) {
	if len(payload) == 0 {
		return nil, false, errs.BadRequest(errs.InvalidArgument, invalidPatchMessage)
	}
	patch, err := jsonpatch.DecodePatch(payload)
	if err != nil {
		return nil, false, errs.BadRequest(errs.InvalidArgument, invalidPatchMessage)
	}

	e, err := r.Find(rc, id)
	if err != nil || e == nil {
		return nil, false, err
	}
	for _, h := range r.beforePatch {
		if err := h(e, patch, rc); err != nil {
			return nil, true, err
		}
	}

	patched, err := applyPatch(e, patch)
	if err != nil {
		return nil, true, err
	}
	if r.model.IDOf(patched) != r.model.IDOf(e) {
		return nil, true, errs.BadRequest(errs.InvalidOperation, "the %s of an entity cannot be changed", r.model.ID().Name())
	}

	patched = scope.ApplyEntity(r.scopes, patched, rc)
	if err := runEntityHooks(r.beforeSave, patched, rc); err != nil {
		return nil, true, err
	}
	if err := r.store.Update(rc.Context(), patched); err != nil {
		return nil, true, err
	}
	r.log.WithFields(logrus.Fields{"id": id, "operations": len(patch)}).Info("Patched entity")
	return r.transformOne(patched, false), true, nil
}

// applyPatch applies patch to the JSON form of e and decodes the result
// into a new value. e is left untouched; fields removed by the patch are
// zeroed.
func applyPatch[T any](e *T, patch jsonpatch.Patch) (*T, error) {
	doc, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	out, err := patch.Apply(doc)
	if err != nil {
		return nil, errs.BadRequest(errs.InvalidArgument, "%s", err.Error())
	}
	var cp T
	if err := json.Unmarshal(out, &cp); err != nil {
		return nil, errs.BadRequest(errs.InvalidArgument, "%s", err.Error())
	}
	return &cp, nil
}

// Delete removes the entity with the given id.
func (r *Repository[T]) Delete(rc *request.Context, id uuid.UUID) (found bool, err error) {
	e, err := r.Find(rc, id)
	if err != nil || e == nil {
		return false, err
	}
	if err := runEntityHooks(r.beforeDelete, e, rc); err != nil {
		return true, err
	}
	if err := r.store.Delete(rc.Context(), e); err != nil {
		return true, err
	}
	r.log.WithField("id", id).Info("Deleted entity")
	for _, h := range r.afterDelete {
		h(e, rc)
	}
	return true, nil
}
