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
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func sqliteConfig(t *testing.T) *ConnectionConfig {
	t.Helper()
	cfg := DefaultConnectionConfig()
	cfg.DBName = filepath.Join(t.TempDir(), "restkit.db")
	cfg.MaxOpenConns = 1
	return cfg
}

func TestConnectionConfigDSN(t *testing.T) {
	cfg := &ConnectionConfig{Type: "MySQL", Host: "db", Port: 3306, Username: "u", Password: "p", DBName: "app",
		ConnectTimeout: time.Second, ReadTimeout: time.Second, WriteTimeout: time.Second}
	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "u:p@tcp(db:3306)/app?charset=utf8mb4&parseTime=True&loc=Local&timeout=1s&readTimeout=1s&writeTimeout=1s", dsn)

	cfg.Type, cfg.Port = "postgresql", 5432
	dsn, err = cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/app?sslmode=disable&connect_timeout=1", dsn)

	for name, want := range map[string]string{
		"app":           "app.db",
		"data/app.db":   "data/app.db",
		":memory:":      ":memory:",
		"file::memory:": "file::memory:",
	} {
		cfg := &ConnectionConfig{Type: "sqlite3", DBName: name}
		dsn, err := cfg.DSN()
		require.NoError(t, err)
		assert.Equal(t, want, dsn)
	}

	_, err = (&ConnectionConfig{Type: "oracle"}).DSN()
	assert.ErrorContains(t, err, "unsupported database type")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig().ApplyEnv()
	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "pg.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.True(t, cfg.EnableQueryLog)
	assert.Equal(t, "restkit", cfg.DBName)
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewManager(sqliteConfig(t))
	log, _ := test.NewNullLogger()
	m.SetLogger(log)

	assert.ErrorIs(t, m.Ping(ctx), ErrNotConnected)
	assert.False(t, m.HealthCheck(ctx).Healthy)

	require.NoError(t, m.Connect(ctx))
	require.NoError(t, m.Connect(ctx))
	require.NotNil(t, m.DB())
	require.NoError(t, m.Ping(ctx))

	status := m.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.MaxOpenConns)
	assert.Equal(t, 1, m.Stats().MaxOpenConns)

	require.NoError(t, m.Reconnect(ctx))
	require.NoError(t, m.Ping(ctx))

	require.NoError(t, m.Close())
	assert.Nil(t, m.DB())
	assert.ErrorIs(t, m.Ping(ctx), ErrNotConnected)
	assert.Equal(t, &DBStats{}, m.Stats())
}

func TestManagerRejectsUnsupportedType(t *testing.T) {
	m := NewManager(&ConnectionConfig{Type: "oracle"})
	err := m.Connect(context.Background())
	assert.ErrorContains(t, err, "unsupported database type")
	assert.Nil(t, m.DB())
}

func TestGlobalConnection(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { _ = CloseDB() })

	assert.False(t, GetHealthStatus(ctx).Healthy)

	db, err := InitDB(ctx, sqliteConfig(t))
	require.NoError(t, err)
	assert.Same(t, db, GetDB())
	assert.True(t, GetHealthStatus(ctx).Healthy)

	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())

	_, err = InitDB(ctx, nil)
	assert.Error(t, err)
}

type widget struct {
	bun.BaseModel `bun:"table:widgets"`
	ID            int64  `bun:"id,pk,autoincrement"`
	Name          string `bun:"name,unique"`
}

func TestCreateTablesAndDuplicateKey(t *testing.T) {
	ctx := context.Background()
	m := NewManager(sqliteConfig(t))
	require.NoError(t, m.Connect(ctx))
	t.Cleanup(func() { _ = m.Close() })
	db := m.DB()

	require.NoError(t, CreateTables(ctx, db, (*widget)(nil)))
	require.NoError(t, CreateTables(ctx, db, (*widget)(nil)))

	_, err := db.NewInsert().Model(&widget{Name: "gear"}).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&widget{Name: "gear"}).Exec(ctx)
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))

	err = db.NewSelect().Model(&widget{}).Where("name = ?", "none").Scan(ctx)
	kind, ok := Classify(err)
	assert.True(t, ok)
	assert.Equal(t, NoRowsErr, kind)
}

func TestRegisteredModelsOrderedByPriority(t *testing.T) {
	saved := defaultRegistry
	defaultRegistry = &modelRegistry{}
	t.Cleanup(func() { defaultRegistry = saved })

	RegisterModel((*widget)(nil), 20)
	RegisterModel("first", 10)
	RegisterModel("second", 10)
	assert.Equal(t, []interface{}{"first", "second", (*widget)(nil)}, RegisteredModelInstances())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		kind SQLError
		ok   bool
	}{
		{&mysql.MySQLError{Number: 1062}, DuplicateKeyErr, true},
		{&mysql.MySQLError{Number: 1146}, NoTableErr, true},
		{&mysql.MySQLError{Number: 9999}, UnknownErr, true},
		{fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), DuplicateKeyErr, true},
		{&pq.Error{Code: "23503"}, ForeignKeyViolationErr, true},
		{errors.New("UNIQUE constraint failed: widgets.name"), DuplicateKeyErr, true},
		{errors.New("no such table: widgets"), NoTableErr, true},
		{errors.New(`relation "widgets" already exists`), ExistTableErr, true},
		{sql.ErrNoRows, NoRowsErr, true},
		{errors.New("connection refused"), UnknownErr, false},
		{nil, UnknownErr, false},
	}
	for _, tc := range cases {
		kind, ok := Classify(tc.err)
		assert.Equal(t, tc.ok, ok, "%v", tc.err)
		assert.Equal(t, tc.kind, kind, "%v", tc.err)
	}

	is, kind := IsSqlError(&pq.Error{Code: "42P01"})
	assert.True(t, is)
	assert.Equal(t, "no_table", kind.String())
}

func TestQueryHook(t *testing.T) {
	ctx := context.Background()
	sqldb, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "hook.db"))
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	log, hook := test.NewNullLogger()
	db.AddQueryHook(NewQueryHook(log, time.Nanosecond))

	_, err = db.ExecContext(ctx, "SELECT * FROM missing")
	require.Error(t, err)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "no_table", entry.Data["sql_error"])

	hook.Reset()
	_, err = db.ExecContext(ctx, "SELECT 1")
	require.NoError(t, err)
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "SELECT", entry.Data["operation"])
}
