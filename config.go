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

package restkit

import (
	"fmt"
	"os"

	"github.com/tomoncle/restkit/types"
	"github.com/tomoncle/restkit/utils"
	"gopkg.in/yaml.v3"
)

// Config controls list behaviour of a Repository.
type Config struct {
	// DefaultLimit is the page size used when the request sends none.
	DefaultLimit int `yaml:"defaultLimit" mapstructure:"default_limit"`
	// MaxLimit caps the page size a client may request. Zero disables the cap.
	MaxLimit int `yaml:"maxLimit" mapstructure:"max_limit"`
	// ShowTotalCount counts matching rows and reports meta.total.
	ShowTotalCount bool `yaml:"showTotalCount" mapstructure:"show_total_count"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:   types.DefaultLimit,
		ShowTotalCount: true,
	}
}

// LoadConfig reads a YAML file over DefaultConfig and applies environment
// overrides. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("restkit: parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return cfg, fmt.Errorf("restkit: read %s: %w", path, err)
		}
	}
	return cfg.WithEnv(), nil
}

// WithEnv applies RESTKIT_DEFAULT_LIMIT, RESTKIT_MAX_LIMIT and
// RESTKIT_SHOW_TOTAL_COUNT.
func (c Config) WithEnv() Config {
	c.DefaultLimit = utils.EnvDefaultInt("RESTKIT_DEFAULT_LIMIT", c.DefaultLimit)
	c.MaxLimit = utils.EnvDefaultInt("RESTKIT_MAX_LIMIT", c.MaxLimit)
	c.ShowTotalCount = utils.EnvDefaultBool("RESTKIT_SHOW_TOTAL_COUNT", c.ShowTotalCount)
	return c
}

func (c Config) normalized() Config {
	if c.DefaultLimit < 1 {
		c.DefaultLimit = types.DefaultLimit
	}
	if c.MaxLimit < 0 {
		c.MaxLimit = 0
	}
	return c
}
