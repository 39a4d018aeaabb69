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
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tomoncle/restkit"
	"github.com/tomoncle/restkit/database"
)

type Config struct {
	Server   ServerConfig              `mapstructure:"server"`
	Auth     AuthConfig                `mapstructure:"auth"`
	Database database.ConnectionConfig `mapstructure:"database"`
	Restkit  restkit.Config            `mapstructure:"restkit"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowOrigins    []string      `mapstructure:"allow_origins"`
}

type AuthConfig struct {
	Secret    string `mapstructure:"secret"`
	Required  bool   `mapstructure:"required"`
	DevTokens bool   `mapstructure:"dev_tokens"`
}

// loadConfig reads .env, then restkit-demo.yaml from ./configs or the
// working directory, then RESTKIT_DEMO_* environment variables.
func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("restkit-demo")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.SetEnvPrefix("RESTKIT_DEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Database.ApplyEnv()
	cfg.Restkit = cfg.Restkit.WithEnv()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	db := database.DefaultConnectionConfig()
	rk := restkit.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("auth.secret", "change-me")
	v.SetDefault("auth.required", false)
	v.SetDefault("auth.dev_tokens", true)
	v.SetDefault("database.type", db.Type)
	v.SetDefault("database.dbname", "restkit-demo")
	v.SetDefault("database.max_idle_conns", db.MaxIdleConns)
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.conn_max_lifetime", db.ConnMaxLifetime)
	v.SetDefault("database.connect_timeout", db.ConnectTimeout)
	v.SetDefault("database.health_check_interval", time.Minute)
	v.SetDefault("database.enable_reconnect", db.EnableReconnect)
	v.SetDefault("database.max_reconnect_tries", db.MaxReconnectTries)
	v.SetDefault("database.slow_query_time", db.SlowQueryTime)
	v.SetDefault("restkit.default_limit", rk.DefaultLimit)
	v.SetDefault("restkit.max_limit", 100)
	v.SetDefault("restkit.show_total_count", rk.ShowTotalCount)
}
