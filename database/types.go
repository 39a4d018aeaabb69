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
	"fmt"
	"strings"
	"time"

	"github.com/tomoncle/restkit/utils"
)

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	MaxOpenConns  int           `json:"max_open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql pool statistics.
type DBStats struct {
	MaxOpenConns  int           `json:"max_open_conns"`
	OpenConns     int           `json:"open_conns"`
	InUse         int           `json:"in_use"`
	Idle          int           `json:"idle"`
	WaitCount     int64         `json:"wait_count"`
	WaitDuration  time.Duration `json:"wait_duration"`
	MaxIdleClosed int64         `json:"max_idle_closed"`
}

// ConnectionConfig describes how to connect to a database and tune its pool.
type ConnectionConfig struct {
	Type                string        `json:"type" yaml:"type" mapstructure:"type"` // postgres, mysql, sqlite
	Host                string        `json:"host" yaml:"host" mapstructure:"host"`
	Port                int           `json:"port" yaml:"port" mapstructure:"port"`
	Username            string        `json:"username" yaml:"username" mapstructure:"username"`
	Password            string        `json:"password" yaml:"password" mapstructure:"password"`
	DBName              string        `json:"dbname" yaml:"dbname" mapstructure:"dbname"`
	SSLMode             string        `json:"sslmode" yaml:"sslmode" mapstructure:"sslmode"`
	MaxIdleConns        int           `json:"max_idle_conns" yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	MaxOpenConns        int           `json:"max_open_conns" yaml:"max_open_conns" mapstructure:"max_open_conns"`
	ConnMaxLifetime     time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime     time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
	ConnectTimeout      time.Duration `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout"`
	ReadTimeout         time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout        time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	HealthCheckInterval time.Duration `json:"health_check_interval" yaml:"health_check_interval" mapstructure:"health_check_interval"`
	EnableReconnect     bool          `json:"enable_reconnect" yaml:"enable_reconnect" mapstructure:"enable_reconnect"`
	MaxReconnectTries   int           `json:"max_reconnect_tries" yaml:"max_reconnect_tries" mapstructure:"max_reconnect_tries"`
	EnableQueryLog      bool          `json:"enable_query_log" yaml:"enable_query_log" mapstructure:"enable_query_log"`
	SlowQueryTime       time.Duration `json:"slow_query_time" yaml:"slow_query_time" mapstructure:"slow_query_time"`
}

// DefaultConnectionConfig returns a SQLite connection with pool defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:              "sqlite",
		DBName:            "restkit",
		MaxIdleConns:      10,
		MaxOpenConns:      100,
		ConnMaxLifetime:   time.Hour,
		ConnMaxIdleTime:   time.Minute * 30,
		ConnectTimeout:    time.Second * 10,
		ReadTimeout:       time.Second * 30,
		WriteTimeout:      time.Second * 30,
		EnableReconnect:   true,
		MaxReconnectTries: 3,
		SlowQueryTime:     time.Second * 2,
	}
}

// ApplyEnv overrides connection settings from DB_TYPE, DB_HOST, DB_PORT,
// DB_USERNAME, DB_PASSWORD, DB_NAME, DB_SSLMODE and DB_QUERY_LOG.
func (c *ConnectionConfig) ApplyEnv() *ConnectionConfig {
	c.Type = utils.EnvDefaultString("DB_TYPE", c.Type)
	c.Host = utils.EnvDefaultString("DB_HOST", c.Host)
	c.Port = utils.EnvDefaultInt("DB_PORT", c.Port)
	c.Username = utils.EnvDefaultString("DB_USERNAME", c.Username)
	c.Password = utils.EnvDefaultString("DB_PASSWORD", c.Password)
	c.DBName = utils.EnvDefaultString("DB_NAME", c.DBName)
	c.SSLMode = utils.EnvDefaultString("DB_SSLMODE", c.SSLMode)
	c.EnableQueryLog = utils.EnvDefaultBool("DB_QUERY_LOG", c.EnableQueryLog)
	return c
}

// Driver normalizes Type to mysql, postgres or sqlite.
func (c *ConnectionConfig) Driver() (string, error) {
	switch strings.ToLower(c.Type) {
	case "mysql":
		return "mysql", nil
	case "postgres", "postgresql", "pg":
		return "postgres", nil
	case "sqlite", "sqlite3":
		return "sqlite", nil
	}
	return "", fmt.Errorf("unsupported database type: %s, supported types: mysql, postgres, sqlite", c.Type)
}

// DSN renders the data source name for the configured driver.
func (c *ConnectionConfig) DSN() (string, error) {
	driver, err := c.Driver()
	if err != nil {
		return "", err
	}
	switch driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
			c.Username, c.Password, c.Host, c.Port, c.DBName,
			c.ConnectTimeout, c.ReadTimeout, c.WriteTimeout), nil
	case "postgres":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
			c.Username, c.Password, c.Host, c.Port, c.DBName,
			sslMode, int(c.ConnectTimeout.Seconds())), nil
	}
	if c.DBName == ":memory:" || strings.HasPrefix(c.DBName, "file:") || strings.HasSuffix(c.DBName, ".db") {
		return c.DBName, nil
	}
	return c.DBName + ".db", nil
}
