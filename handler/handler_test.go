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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/restkit"
	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/filter"
	"github.com/tomoncle/restkit/internal/fixture"
	"github.com/tomoncle/restkit/query"
	"github.com/tomoncle/restkit/repository"
	"github.com/tomoncle/restkit/request"
	"github.com/tomoncle/restkit/scope"
	"github.com/tomoncle/restkit/types"
)

var (
	secret = []byte("test-secret")
	owner  = fixture.ID("aaaaaaaa-0000-0000-0000-000000000001")
)

type server struct {
	engine *gin.Engine
	repo   *restkit.Repository[fixture.Post]
	store  *repository.MemoryStore[fixture.Post]
	logs   *test.Hook
}

func newServer(t *testing.T, seed ...*fixture.Post) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	model := fixture.PostModel()
	store := repository.NewMemoryStore(model, seed...)
	ownerField, _ := model.Lookup("ownerId")
	published, _ := model.Lookup("published")
	repo := restkit.New(model, store).
		AddScope(scope.Owner(ownerField, "sub")).
		AddFilter(filter.Bool(published))

	log, hook := test.NewNullLogger()
	engine := gin.New()
	engine.Use(RequestID(), Logger(log), Authenticate(secret, false))
	Register[fixture.Post](engine, "/posts", repo, WithLogger(log))
	return &server{engine: engine, repo: repo, store: store, logs: hook}
}

func token(t *testing.T, subject uuid.UUID) string {
	t.Helper()
	tok, err := IssueToken(secret, &request.Principal{Subject: subject.String()}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s *server) do(method, target, body, auth string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func seedPost(title string, published bool) *fixture.Post {
	p := &fixture.Post{OwnerID: owner, Title: title, Published: published}
	p.ID = uuid.New()
	return p
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestListRoute(t *testing.T) {
	s := newServer(t, seedPost("one", true), seedPost("two", false))

	w := s.do(http.MethodGet, "/posts?published=true&limit=1", "", token(t, owner))
	require.Equal(t, http.StatusOK, w.Code)
	var rs struct {
		Data []fixture.Post `json:"data"`
		Meta types.Meta     `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rs))
	require.Len(t, rs.Data, 1)
	assert.Equal(t, "one", rs.Data[0].Title)
	assert.Equal(t, 1, *rs.Meta.Total)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = s.do(http.MethodGet, "/posts", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"meta":{"currentPage":1,"perPage":0,"total":0}}`, w.Body.String())
}

func TestListRouteRejectsBadFilter(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/posts?published=sometimes", "", token(t, owner))
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, errs.InvalidArgument, body.Code)
	assert.Contains(t, body.Message, "sometimes")
}

func TestGetRoute(t *testing.T) {
	p := seedPost("one", true)
	s := newServer(t, p)

	w := s.do(http.MethodGet, "/posts/"+p.ID.String(), "", token(t, owner))
	require.Equal(t, http.StatusOK, w.Code)
	var got fixture.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, p.ID, got.ID)

	for _, target := range []string{"/posts/" + uuid.NewString(), "/posts/not-a-uuid", "/posts/" + p.ID.String()} {
		auth := token(t, uuid.New())
		if target != "/posts/"+p.ID.String() {
			auth = token(t, owner)
		}
		w := s.do(http.MethodGet, target, "", auth)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Empty(t, w.Body.String())
	}
}

func TestCreateRoute(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodPost, "/posts", `{"title":"hello"}`, token(t, owner))
	require.Equal(t, http.StatusCreated, w.Code)
	var got fixture.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, owner, got.OwnerID)
	assert.Equal(t, 1, s.store.Len())

	w = s.do(http.MethodPost, "/posts", `{"title":`, token(t, owner))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errs.FormErrors, decodeError(t, w).Code)

	w = s.do(http.MethodPost, "/posts", `{"id":"`+got.ID.String()+`","title":"again"}`, token(t, owner))
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, errs.Conflict, decodeError(t, w).Code)
}

func TestPatchRoute(t *testing.T) {
	p := seedPost("draft", false)
	s := newServer(t, p)
	target := "/posts/" + p.ID.String()

	w := s.do(http.MethodPatch, target, `[{"op":"replace","path":"/published","value":true}]`, token(t, owner))
	require.Equal(t, http.StatusOK, w.Code)
	var got fixture.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Published)

	w = s.do(http.MethodPatch, target, `{"published":true}`, token(t, owner))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrorBody{Message: "Input is not in valid JsonPatch format.", Code: errs.InvalidArgument}, decodeError(t, w))

	w = s.do(http.MethodPatch, target, `[{"op":"replace","path":"/id","value":"`+uuid.NewString()+`"}]`, token(t, owner))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errs.InvalidOperation, decodeError(t, w).Code)

	w = s.do(http.MethodPatch, "/posts/"+uuid.NewString(), `[]`, token(t, owner))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRoute(t *testing.T) {
	p := seedPost("doomed", false)
	s := newServer(t, p)

	w := s.do(http.MethodDelete, "/posts/"+p.ID.String(), "", token(t, owner))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, s.store.Len())

	w = s.do(http.MethodDelete, "/posts/"+p.ID.String(), "", token(t, owner))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForbiddenAndInternalErrors(t *testing.T) {
	p := seedPost("guarded", false)
	s := newServer(t, p)
	s.repo.
		OnCreateQuery(func(q *query.Query[fixture.Post], rc *request.Context) (*query.Query[fixture.Post], error) {
			if rc.Params().Has("secret") {
				return nil, errs.Forbid("secret listings are not allowed")
			}
			return q, nil
		}).
		BeforeDelete(func(*fixture.Post, *request.Context) error { return errors.New("disk on fire") })

	w := s.do(http.MethodGet, "/posts?secret=1", "", token(t, owner))
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, ErrorBody{Message: "secret listings are not allowed", Code: errs.Forbidden}, decodeError(t, w))

	s.logs.Reset()
	w = s.do(http.MethodDelete, "/posts/"+p.ID.String(), "", token(t, owner))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrorBody{Message: "internal server error", Code: errs.InternalError}, decodeError(t, w))

	var failed *logrus.Entry
	for _, e := range s.logs.AllEntries() {
		if e.Message == "Request failed" {
			failed = e
		}
	}
	require.NotNil(t, failed)
	assert.EqualError(t, failed.Data[logrus.ErrorKey].(error), "disk on fire")
}

func TestAuthenticate(t *testing.T) {
	s := newServer(t)

	w := s.do(http.MethodGet, "/posts", "", "Bearer not.a.token")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, errs.Unauthorized, decodeError(t, w).Code)

	w = s.do(http.MethodGet, "/posts", "", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other, err := IssueToken([]byte("other"), &request.Principal{Subject: owner.String()}, time.Hour)
	require.NoError(t, err)
	w = s.do(http.MethodGet, "/posts", "", "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := IssueToken(secret, &request.Principal{Subject: owner.String()}, -time.Minute)
	require.NoError(t, err)
	w = s.do(http.MethodGet, "/posts", "", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", Authenticate(secret, true), func(c *gin.Context) {
		p, _ := RequestContext(c).Principal()
		c.JSON(http.StatusOK, gin.H{"sub": p.Subject, "admin": p.HasRole("admin")})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := IssueToken(secret, &request.Principal{Subject: "u1", Roles: []string{"Admin"}}, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sub":"u1","admin":true}`, w.Body.String())
}

func TestLoggerMiddleware(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/posts/nope", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	entry := s.logs.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "req-42", entry.Data["request_id"])
	assert.Equal(t, http.StatusNotFound, entry.Data["status_code"])
	assert.Equal(t, "/posts/nope", entry.Data["req_uri"])
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusOf(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.Equal(t, http.StatusConflict, StatusOf(errors.New("UNIQUE constraint failed: posts.id")))
	assert.Equal(t, http.StatusNotFound, StatusOf(repository.ErrMissing))
	assert.Equal(t, http.StatusBadRequest, StatusOf(&errs.TypeMismatchError{}))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}
