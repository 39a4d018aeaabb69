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
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var sqlErrorNames = map[SQLError]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no_rows",
	NoIndexErr:                  "no_index",
	NoColumnErr:                 "no_column",
	ExistIndexErr:               "index_exists",
	ExistColumnErr:              "column_exists",
	NoTableErr:                  "no_table",
	ExistTableErr:               "table_exists",
	DuplicateKeyErr:             "duplicate_key",
	NotNullViolationErr:         "not_null_violation",
	ForeignKeyViolationErr:      "foreign_key_violation",
	CheckConstraintViolationErr: "check_violation",
	DataTruncatedErr:            "data_truncated",
	InvalidTypeCastErr:          "invalid_type_cast",
}

func (e SQLError) String() string {
	if n, ok := sqlErrorNames[e]; ok {
		return n
	}
	return sqlErrorNames[UnknownErr]
}

var mysqlCodes = map[uint16]SQLError{
	1091: NoIndexErr,
	1054: NoColumnErr,
	1061: ExistIndexErr,
	1060: ExistColumnErr,
	1146: NoTableErr,
	1050: ExistTableErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1406: DataTruncatedErr,
}

var postgresCodes = map[pq.ErrorCode]SQLError{
	"42704": NoIndexErr,
	"42703": NoColumnErr,
	"42701": ExistColumnErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42804": InvalidTypeCastErr,
}

// IsSqlError reports whether err comes from the database and which kind of
// failure it is.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	sqlErr, is = Classify(err)
	return is, sqlErr
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	kind, ok := Classify(err)
	return ok && kind == DuplicateKeyErr
}

// Classify maps driver errors to a SQLError. MySQL and PostgreSQL errors
// are matched by code; anything else, SQLite included, by message.
func Classify(err error) (SQLError, bool) {
	if err == nil {
		return UnknownErr, false
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NoRowsErr, true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if kind, ok := mysqlCodes[mysqlErr.Number]; ok {
			return kind, true
		}
		return UnknownErr, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if kind, ok := postgresCodes[pqErr.Code]; ok {
			return kind, true
		}
		return UnknownErr, true
	}
	return classifyMessage(strings.ToLower(err.Error()))
}

func classifyMessage(s string) (SQLError, bool) {
	contains := func(parts ...string) bool {
		for _, p := range parts {
			if strings.Contains(s, p) {
				return true
			}
		}
		return false
	}
	switch {
	case contains("sqlstate 42703", "undefined column", "no such column"):
		return NoColumnErr, true
	case contains("sqlstate 42704", "no such index"),
		strings.Contains(s, "does not exist") && strings.Contains(s, "index"):
		return NoIndexErr, true
	case contains("sqlstate 42p01", "undefined table", "no such table"):
		return NoTableErr, true
	case strings.Contains(s, "already exists") && strings.Contains(s, "index"):
		return ExistIndexErr, true
	case strings.Contains(s, "already exists") && contains("table", "relation"):
		return ExistTableErr, true
	case contains("duplicate key value", "unique constraint failed", "sqlstate 23505"):
		return DuplicateKeyErr, true
	case contains("not-null constraint", "sqlstate 23502", "not null constraint failed"):
		return NotNullViolationErr, true
	case contains("foreign key violation", "foreign key constraint failed", "sqlstate 23503"):
		return ForeignKeyViolationErr, true
	case contains("check constraint", "sqlstate 23514"):
		return CheckConstraintViolationErr, true
	case contains("string data right truncation", "sqlstate 22001", "data truncated"):
		return DataTruncatedErr, true
	case contains("datatype mismatch", "sqlstate 42804"):
		return InvalidTypeCastErr, true
	}
	return UnknownErr, false
}
