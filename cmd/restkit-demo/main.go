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

// Command restkit-demo serves articles and writers through restkit.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tomoncle/restkit"
	"github.com/tomoncle/restkit/database"
	"github.com/tomoncle/restkit/directive"
	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/filter"
	"github.com/tomoncle/restkit/handler"
	"github.com/tomoncle/restkit/request"
	"github.com/tomoncle/restkit/schema"
	"github.com/tomoncle/restkit/scope"
	"github.com/tomoncle/restkit/utils"
)

var log = utils.NewLogger("DEMO")

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	database.RegisterModel((*Writer)(nil), 0)
	database.RegisterModel((*Article)(nil), 1)

	ctx := context.Background()
	db, err := database.InitDB(ctx, &cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = database.CloseDB() }()
	if err := database.CreateTables(ctx, db); err != nil {
		log.WithError(err).Fatal("Failed to create tables")
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), handler.RequestID(), handler.Logger(log))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", handler.RequestIDHeader},
		ExposeHeaders: []string{handler.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	secret := []byte(cfg.Auth.Secret)
	if cfg.Auth.DevTokens {
		engine.GET("/token", func(c *gin.Context) {
			sub := c.Query("sub")
			if _, err := uuid.Parse(sub); err != nil {
				sub = uuid.NewString()
			}
			roles := strings.Split(c.Query("roles"), ",")
			tok, err := handler.IssueToken(secret, &request.Principal{Subject: sub, Roles: roles}, time.Hour)
			if err != nil {
				handler.RenderError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": tok, "sub": sub})
		})
	}
	engine.GET("/health", func(c *gin.Context) {
		status := database.GetHealthStatus(c.Request.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	api := engine.Group("/api", handler.Authenticate(secret, cfg.Auth.Required))
	opts := []restkit.Option{restkit.WithConfig(cfg.Restkit), restkit.WithLogger(log)}
	handler.Register[Writer](api, "/writers", writers(opts), handler.WithLogger(log))
	handler.Register[Article](api, "/articles", articles(opts), handler.WithLogger(log))

	serve(engine, cfg.Server)
}

func writers(opts []restkit.Option) *restkit.Repository[Writer] {
	m := writerModel()
	owner, _ := m.Lookup("ownerId")
	name, _ := m.Lookup("name")
	return restkit.NewService(m, opts...).
		AddScope(scope.Owner(owner, "sub")).
		AddFilter(filter.String(name))
}

func articles(opts []restkit.Option) *restkit.Repository[Article] {
	m := articleModel()
	field := func(name string) *schema.Field[Article] {
		f, _ := m.Lookup(name)
		return f
	}
	return restkit.NewService(m, opts...).
		AddScope(scope.Owner(field("ownerId"), "sub")).
		AddFilter(
			filter.UUID(field("writerId"), filter.WithKey("writer")),
			filter.String(field("title"), filter.WithKey("q"), filter.WithMarker("*")),
			filter.Enum(field("stage")),
			filter.Bool(field("featured")),
			filter.Date(field("createdAt"), filter.WithKey("created")),
		).
		AddDirective(directive.MustInclude(m, "Writer")).
		BeforeSave(func(a *Article, _ *request.Context) error {
			normalizeTitle(a)
			if a.Title == "" {
				return errs.BadRequest(errs.FieldMissing, "title is required")
			}
			return nil
		}).
		BeforePatch(func(a *Article, _ jsonpatch.Patch, rc *request.Context) error {
			if a.Stage == Live {
				if p, ok := rc.Principal(); !ok || !p.HasRole("editor") {
					return errs.Forbid("only editors may change live articles")
				}
			}
			return nil
		}).
		AfterCreate(func(a *Article, _ *request.Context) {
			log.WithField("id", a.ID).Info("Article created")
		}).
		BeforeSend(func(items []*Article, creating bool) []any {
			out := make([]any, len(items))
			for i, a := range items {
				out[i] = articleView{Article: a, StageName: a.Stage.Name(), Created: creating}
			}
			return out
		})
}

func serve(engine *gin.Engine, cfg ServerConfig) {
	srv := &http.Server{Addr: cfg.Addr, Handler: engine, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.WithField("addr", cfg.Addr).Info("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	log.Info("Server exited")
}
