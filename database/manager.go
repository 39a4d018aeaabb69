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
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/restkit/utils"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

var ErrNotConnected = errors.New("database not connected")

var defaultLogger = utils.NewLogger("DATABASE")

// Manager owns one bun connection: it opens it, watches its health and
// reconnects when the health check fails.
type Manager struct {
	config *ConnectionConfig
	log    logrus.FieldLogger

	mu             sync.RWMutex
	db             *bun.DB
	sqlDB          *sql.DB
	connected      bool
	lastError      error
	reconnectTries int

	stopHealthCheck chan struct{}
	healthCheckOnce sync.Once
}

// NewManager returns a Manager for config. A nil config selects
// DefaultConnectionConfig.
func NewManager(config *ConnectionConfig) *Manager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &Manager{config: config, log: defaultLogger, stopHealthCheck: make(chan struct{})}
}

func (m *Manager) SetLogger(l logrus.FieldLogger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = l
}

func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected && m.db != nil {
		return nil
	}

	sqlDB, db, err := m.open()
	if err != nil {
		m.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	timeout := m.config.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		m.lastError = err
		return fmt.Errorf("database connection test failed: %w", err)
	}

	m.sqlDB, m.db = sqlDB, db
	m.connected = true
	m.lastError = nil
	m.reconnectTries = 0

	if m.config.HealthCheckInterval > 0 {
		m.startHealthCheck()
	}
	m.log.WithFields(logrus.Fields{"type": m.config.Type, "host": m.config.Host}).Info("Database connected")
	return nil
}

func (m *Manager) open() (*sql.DB, *bun.DB, error) {
	driver, err := m.config.Driver()
	if err != nil {
		return nil, nil, err
	}
	dsn, err := m.config.DSN()
	if err != nil {
		return nil, nil, err
	}

	var sqlDB *sql.DB
	var db *bun.DB
	switch driver {
	case "mysql":
		if sqlDB, err = sql.Open("mysql", dsn); err == nil {
			db = bun.NewDB(sqlDB, mysqldialect.New())
		}
	case "postgres":
		if sqlDB, err = sql.Open("postgres", dsn); err == nil {
			db = bun.NewDB(sqlDB, pgdialect.New())
		}
	default:
		if sqlDB, err = sql.Open(sqliteshim.ShimName, dsn); err == nil {
			db = bun.NewDB(sqlDB, sqlitedialect.New())
		}
	}
	if err != nil {
		return nil, nil, err
	}

	if m.config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	}
	if m.config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)

	if m.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	db.AddQueryHook(NewQueryHook(m.log, m.config.SlowQueryTime))
	return sqlDB, db, nil
}

// Close stops the health check and closes the connection.
func (m *Manager) Close() error {
	select {
	case m.stopHealthCheck <- struct{}{}:
	default:
	}
	return m.disconnect()
}

func (m *Manager) disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db, m.sqlDB = nil, nil
	m.connected = false
	if err != nil {
		m.log.WithError(err).Error("Failed to close database connection")
	} else {
		m.log.Info("Database connection closed")
	}
	return err
}

func (m *Manager) Reconnect(ctx context.Context) error {
	m.log.Info("Attempting to reconnect to the database")
	if err := m.disconnect(); err != nil {
		m.log.WithError(err).Warn("Error disconnecting existing connection")
	}
	return m.Connect(ctx)
}

func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()
	if db == nil {
		return ErrNotConnected
	}
	return db.PingContext(ctx)
}

// DB returns the connection, or nil before Connect succeeds.
func (m *Manager) DB() *bun.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *Manager) HealthCheck(ctx context.Context) *HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start, Connected: m.connected}
	if m.db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	err := m.db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.Connected = false
		status.LastError = err.Error()
	} else {
		status.Healthy = true
		status.Connected = true
	}
	m.lastError = err

	stats := m.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (m *Manager) Stats() *DBStats {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()
	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:  stats.MaxOpenConnections,
		OpenConns:     stats.OpenConnections,
		InUse:         stats.InUse,
		Idle:          stats.Idle,
		WaitCount:     stats.WaitCount,
		WaitDuration:  stats.WaitDuration,
		MaxIdleClosed: stats.MaxIdleClosed,
	}
}

func (m *Manager) startHealthCheck() {
	m.healthCheckOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(m.config.HealthCheckInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
					status := m.HealthCheck(ctx)
					cancel()
					if !status.Healthy && m.config.EnableReconnect {
						m.reconnect()
					}
				case <-m.stopHealthCheck:
					return
				}
			}
		}()
	})
}

func (m *Manager) reconnect() {
	if m.reconnectTries >= m.config.MaxReconnectTries {
		m.log.WithField("tries", m.reconnectTries).Error("Max reconnect attempts reached")
		return
	}
	m.reconnectTries++

	ctx, cancel := context.WithTimeout(context.Background(), m.config.ConnectTimeout)
	defer cancel()
	if err := m.Reconnect(ctx); err != nil {
		m.log.WithError(err).WithField("try", m.reconnectTries).Error("Reconnect failed")
	}
}
