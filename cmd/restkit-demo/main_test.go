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

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/restkit"
	"github.com/tomoncle/restkit/database"
	"github.com/tomoncle/restkit/handler"
	"github.com/tomoncle/restkit/request"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RESTKIT_DEMO_SERVER_ADDR", ":9090")
	t.Setenv("RESTKIT_MAX_LIMIT", "20")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 2*time.Second, cfg.Database.SlowQueryTime)
	assert.Equal(t, restkit.Config{DefaultLimit: 10, MaxLimit: 20, ShowTotalCount: true}, cfg.Restkit)
}

func TestStage(t *testing.T) {
	assert.Equal(t, "review", Review.Name())
	assert.Equal(t, "unknown", Stage(9).Name())
	assert.False(t, Stage(-1).IsValid())
}

func TestArticlesAPI(t *testing.T) {
	sqldb, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "demo.db"))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.CreateTables(context.Background(), db, (*Writer)(nil), (*Article)(nil)))
	database.SetDB(db)
	t.Cleanup(func() { database.SetDB(nil) })

	gin.SetMode(gin.TestMode)
	secret := []byte("demo")
	engine := gin.New()
	api := engine.Group("/api", handler.Authenticate(secret, true))
	handler.Register[Article](api, "/articles", articles(nil))

	user := uuid.New()
	call := func(method, target, body string, roles ...string) *httptest.ResponseRecorder {
		tok, err := handler.IssueToken(secret, &request.Principal{Subject: user.String(), Roles: roles}, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	w := call(http.MethodPost, "/api/articles", `{"title":"  Launch  ","stage":2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID        uuid.UUID `json:"id"`
		Title     string    `json:"title"`
		OwnerID   uuid.UUID `json:"ownerId"`
		StageName string    `json:"stageName"`
		Created   bool      `json:"created"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Launch", created.Title)
	assert.Equal(t, user, created.OwnerID)
	assert.Equal(t, "live", created.StageName)
	assert.True(t, created.Created)

	w = call(http.MethodPost, "/api/articles", `{"title":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = call(http.MethodGet, "/api/articles?stage=live&q=*aun*", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Launch"`)

	target := "/api/articles/" + created.ID.String()
	patch := `[{"op":"replace","path":"/featured","value":true}]`
	w = call(http.MethodPatch, target, patch)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = call(http.MethodPatch, target, patch, "editor")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"featured":true`)

	w = call(http.MethodDelete, target, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
