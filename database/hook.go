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
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
)

// QueryHook logs failed queries and queries slower than a threshold.
type QueryHook struct {
	log      logrus.FieldLogger
	slowTime time.Duration
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook returns a hook logging to log. A non-positive slowTime
// disables slow query reports.
func NewQueryHook(log logrus.FieldLogger, slowTime time.Duration) *QueryHook {
	return &QueryHook{log: log, slowTime: slowTime}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	fields := logrus.Fields{
		"operation": event.Operation(),
		"duration":  duration.Round(time.Microsecond).String(),
		"query":     event.Query,
	}
	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) && !errors.Is(event.Err, sql.ErrTxDone):
		if kind, ok := Classify(event.Err); ok {
			fields["sql_error"] = kind.String()
		}
		h.log.WithFields(fields).WithError(event.Err).Error("Database query failed")
	case h.slowTime > 0 && duration > h.slowTime:
		fields["slow_threshold"] = h.slowTime.String()
		h.log.WithFields(fields).Warn("Database slow query detected")
	}
}
