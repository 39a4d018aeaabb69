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
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/restkit/database"
	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/repository"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Message string    `json:"message"`
	Code    errs.Code `json:"code"`
	Data    any       `json:"data,omitempty"`
}

// StatusOf maps err to the HTTP status it is reported with.
func StatusOf(err error) int {
	switch {
	case errs.IsForbidden(err):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrMissing):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicate) || database.IsDuplicateKey(err):
		return http.StatusConflict
	}
	if _, ok := errs.AsCoded(err); ok {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// RenderError aborts the request with the response for err. Errors without
// a client facing code are logged and hidden behind a generic message.
func RenderError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := StatusOf(err)
	switch status {
	case http.StatusNotFound:
		c.AbortWithStatus(status)
		return
	case http.StatusConflict:
		c.AbortWithStatusJSON(status, ErrorBody{Message: "entity already exists", Code: errs.Conflict})
		return
	case http.StatusInternalServerError:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		c.AbortWithStatusJSON(status, ErrorBody{Message: "internal server error", Code: errs.InternalError})
		return
	}

	coded, _ := errs.AsCoded(err)
	body := ErrorBody{Message: err.Error(), Code: coded.ErrorCode()}
	var bad *errs.BadRequestError
	if errors.As(err, &bad) {
		body.Message = bad.Message
		body.Data = bad.Data
	}
	c.AbortWithStatusJSON(status, body)
}
