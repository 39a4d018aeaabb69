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

package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON maps a column holding a JSON document to a Go value.
type JSON[V any] struct {
	Data V
}

// NewJSON wraps v.
func NewJSON[V any](v V) JSON[V] {
	return JSON[V]{Data: v}
}

// Value implements driver.Valuer.
func (j JSON[V]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (j *JSON[V]) Scan(value interface{}) error {
	var zero V
	switch v := value.(type) {
	case nil:
		j.Data = zero
		return nil
	case []byte:
		return json.Unmarshal(v, &j.Data)
	case string:
		return json.Unmarshal([]byte(v), &j.Data)
	default:
		return fmt.Errorf("types: cannot scan %T into JSON", value)
	}
}

func (j JSON[V]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Data)
}

func (j *JSON[V]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &j.Data)
}
