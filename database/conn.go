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
	"fmt"
	"sync"

	"github.com/uptrace/bun"
)

var (
	globalMu      sync.RWMutex
	globalManager *Manager
	globalDB      *bun.DB
)

// InitDB connects the process wide database described by cfg, replacing
// any previous one.
func InitDB(ctx context.Context, cfg *ConnectionConfig) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	manager := NewManager(cfg)
	if err := manager.Connect(ctx); err != nil {
		return nil, err
	}
	db := manager.DB()
	db.RegisterModel(RegisteredModelInstances()...)

	globalMu.Lock()
	previous := globalManager
	globalManager, globalDB = manager, db
	globalMu.Unlock()
	if previous != nil {
		_ = previous.Close()
	}
	return db, nil
}

// SetDB installs an externally managed connection as the global one.
func SetDB(db *bun.DB) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager, globalDB = nil, db
}

// GetDB returns the global connection, or nil before InitDB or SetDB.
func GetDB() *bun.DB {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalDB
}

// CloseDB closes a connection opened by InitDB.
func CloseDB() error {
	globalMu.Lock()
	manager := globalManager
	globalManager, globalDB = nil, nil
	globalMu.Unlock()
	if manager != nil {
		return manager.Close()
	}
	return nil
}

// GetHealthStatus checks the global connection.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	globalMu.RLock()
	manager := globalManager
	globalMu.RUnlock()
	if manager == nil {
		return &HealthStatus{LastError: "Database not initialized"}
	}
	return manager.HealthCheck(ctx)
}
