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

// Package errs defines the errors raised while composing and executing
// resource requests.
package errs

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code carried by client errors.
type Code string

const (
	FieldMissing     Code = "FieldMissing"
	InvalidArgument  Code = "InvalidArgument"
	MultipleErrors   Code = "MultipleErrors"
	InvalidOperation Code = "InvalidOperation"
	Conflict         Code = "Conflict"
	FormErrors       Code = "FormErrors"
	Forbidden        Code = "Forbidden"
	Unauthorized     Code = "Unauthorized"
	InternalError    Code = "InternalError"
)

// Coded is implemented by errors that surface to clients as {message, code}.
type Coded interface {
	error
	ErrorCode() Code
}

// BadRequestError rejects a request that cannot be served as asked.
type BadRequestError struct {
	Message string
	Code    Code
	Data    any
}

// BadRequest returns a BadRequestError with a formatted message.
func BadRequest(code Code, format string, args ...any) *BadRequestError {
	return &BadRequestError{Message: fmt.Sprintf(format, args...), Code: code}
}

func (e *BadRequestError) Error() string   { return e.Message }
func (e *BadRequestError) ErrorCode() Code { return e.Code }

// WithData attaches extra payload for the client.
func (e *BadRequestError) WithData(data any) *BadRequestError {
	e.Data = data
	return e
}

// ParseError reports a filter token that does not match its grammar.
type ParseError struct {
	Field  string
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", e.Token, e.Field, e.Reason)
}

func (e *ParseError) ErrorCode() Code { return InvalidArgument }

// TypeMismatchError reports a literal whose type disagrees with the field.
type TypeMismatchError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %s expects %s, got %s", e.Field, e.Expected, e.Actual)
}

func (e *TypeMismatchError) ErrorCode() Code { return InvalidArgument }

// ForbiddenError denies an operation to the caller.
type ForbiddenError struct {
	Message string
}

// Forbid returns a ForbiddenError.
func Forbid(format string, args ...any) *ForbiddenError {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

func (e *ForbiddenError) Error() string   { return e.Message }
func (e *ForbiddenError) ErrorCode() Code { return Forbidden }

// AsCoded extracts the client-facing error from err's chain.
func AsCoded(err error) (Coded, bool) {
	var c Coded
	if errors.As(err, &c) {
		return c, true
	}
	return nil, false
}

// IsForbidden reports whether err denies access.
func IsForbidden(err error) bool {
	var f *ForbiddenError
	return errors.As(err, &f)
}
