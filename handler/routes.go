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

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/restkit"
	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/utils"
)

var defaultLogger = utils.NewLogger("HANDLER")

type Option func(*options)

type options struct {
	log logrus.FieldLogger
}

// WithLogger sets the logger unexpected errors are reported to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// Resource serves one restkit service over HTTP.
type Resource[T any] struct {
	svc restkit.Service[T]
	log logrus.FieldLogger
}

// Register mounts the routes of svc under path:
//
//	GET    path       list
//	GET    path/:id   get
//	POST   path       create
//	PATCH  path/:id   patch
//	DELETE path/:id   delete
func Register[T any](r gin.IRouter, path string, svc restkit.Service[T], opts ...Option) *Resource[T] {
	o := options{log: defaultLogger}
	for _, opt := range opts {
		opt(&o)
	}
	res := &Resource[T]{svc: svc, log: o.log.WithField("resource", path)}

	g := r.Group(path)
	g.GET("", res.List)
	g.GET("/:id", res.Get)
	g.POST("", res.Create)
	g.PATCH("/:id", res.Patch)
	g.DELETE("/:id", res.Delete)
	return res
}

func (res *Resource[T]) List(c *gin.Context) {
	rs, err := res.svc.List(RequestContext(c))
	if err != nil {
		RenderError(c, res.log, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (res *Resource[T]) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	v, found, err := res.svc.Get(RequestContext(c), id)
	res.respond(c, http.StatusOK, v, found, err)
}

func (res *Resource[T]) Create(c *gin.Context) {
	e := new(T)
	if err := c.ShouldBindJSON(e); err != nil {
		RenderError(c, res.log, errs.BadRequest(errs.FormErrors, "%s", err.Error()))
		return
	}
	v, err := res.svc.Create(RequestContext(c), e)
	res.respond(c, http.StatusCreated, v, true, err)
}

func (res *Resource[T]) Patch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	payload, err := c.GetRawData()
	if err != nil {
		RenderError(c, res.log, err)
		return
	}
	v, found, err := res.svc.Patch(RequestContext(c), id, payload)
	res.respond(c, http.StatusOK, v, found, err)
}

func (res *Resource[T]) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	found, err := res.svc.Delete(RequestContext(c), id)
	res.respond(c, http.StatusNoContent, nil, found, err)
}

func (res *Resource[T]) respond(c *gin.Context, status int, v any, found bool, err error) {
	switch {
	case err != nil:
		RenderError(c, res.log, err)
	case !found:
		c.AbortWithStatus(http.StatusNotFound)
	case status == http.StatusNoContent:
		c.Status(status)
	default:
		c.JSON(status, v)
	}
}

// pathID parses the :id parameter. An identifier that is not a UUID names
// no entity and is answered with 404.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}
