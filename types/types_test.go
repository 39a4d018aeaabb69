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
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequest(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
		wantOffset          int
	}{
		{1, 10, 1, 10, 0},
		{3, 10, 3, 10, 20},
		{0, 10, 1, 10, 0},
		{-4, 5, 1, 5, 0},
		{2, 0, 2, DefaultLimit, DefaultLimit},
		{2, -1, 2, DefaultLimit, DefaultLimit},
	}
	for _, tc := range cases {
		p := NewPageRequest(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, p.GetPage())
		assert.Equal(t, tc.wantLimit, p.GetLimit())
		assert.Equal(t, tc.wantOffset, p.GetOffset())
	}

	p := NewPageRequest(1, 500).WithLimits(25, 100)
	assert.Equal(t, 100, p.GetLimit())
	assert.Equal(t, 25, NewPageRequest(1, 0).WithLimits(25, 0).GetLimit())
}

func TestPrevAndNextPage(t *testing.T) {
	_, ok := NewPageRequest(1, 10).PrevPage()
	assert.False(t, ok)
	prev, ok := NewPageRequest(3, 10).PrevPage()
	assert.True(t, ok)
	assert.Equal(t, 2, prev)

	total := func(n int) *int { return &n }
	next, ok := NewPageRequest(1, 10).NextPage(total(25))
	assert.True(t, ok)
	assert.Equal(t, 2, next)
	_, ok = NewPageRequest(2, 10).NextPage(total(25))
	assert.False(t, ok)
	_, ok = NewPageRequest(1, 10).NextPage(total(0))
	assert.False(t, ok)
	next, ok = NewPageRequest(7, 10).NextPage(nil)
	assert.True(t, ok)
	assert.Equal(t, 8, next)
}

func TestHugePageDoesNotOverflow(t *testing.T) {
	p := NewPageRequest(math.MaxInt, 10)
	assert.Equal(t, math.MaxInt/10-1, p.GetPage())
	assert.Positive(t, p.GetOffset())

	total := 25
	_, ok := p.NextPage(&total)
	assert.False(t, ok)
	prev, ok := p.PrevPage()
	assert.True(t, ok)
	assert.Equal(t, p.GetPage()-1, prev)

	p = NewPageRequest(1_000_000_000_000_000_000, 10)
	assert.Equal(t, (p.GetPage()-1)*10, p.GetOffset())
	assert.Positive(t, p.GetOffset())
}

func TestResultSetJSON(t *testing.T) {
	rs := NewResultSet(1, nil)
	b, err := json.Marshal(rs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"meta":{"currentPage":1,"perPage":0}}`, string(b))

	n, next := 3, "/x?page=2"
	rs = NewResultSet(1, []any{"a", "b"})
	rs.Meta.Total, rs.Meta.Next = &n, &next
	b, err = json.Marshal(rs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":["a","b"],"meta":{"currentPage":1,"perPage":2,"total":3,"next":"/x?page=2"}}`, string(b))
}

func TestJSONColumn(t *testing.T) {
	tags := NewJSON([]string{"go", "sql"})
	v, err := tags.Value()
	require.NoError(t, err)
	assert.Equal(t, `["go","sql"]`, v)

	var scanned JSON[[]string]
	require.NoError(t, scanned.Scan([]byte(`["a"]`)))
	assert.Equal(t, []string{"a"}, scanned.Data)
	require.NoError(t, scanned.Scan(`["b","c"]`))
	assert.Equal(t, []string{"b", "c"}, scanned.Data)
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned.Data)
	assert.Error(t, scanned.Scan(42))

	var doc struct {
		Tags JSON[map[string]int] `json:"tags"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tags":{"x":1}}`), &doc))
	assert.Equal(t, map[string]int{"x": 1}, doc.Tags.Data)
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tags":{"x":1}}`, string(b))
}

type color int

func (c color) IsValid() bool  { return c >= 0 && c < 2 }
func (c color) Number() int    { return int(c) }
func (c color) String() string { return c.Name() }
func (c color) Desc() string   { return c.Name() }
func (c color) Name() string {
	switch c {
	case 0:
		return "red"
	case 1:
		return "green"
	}
	return IllegalName
}

func TestLookupEnum(t *testing.T) {
	values := []color{0, 1, 5}
	c, ok := LookupEnum(values, "GREEN")
	assert.True(t, ok)
	assert.Equal(t, color(1), c)
	_, ok = LookupEnum(values, "unknown")
	assert.False(t, ok)

	c, ok = EnumOf(values, 0)
	assert.True(t, ok)
	assert.Equal(t, color(0), c)
	_, ok = EnumOf(values, 5)
	assert.False(t, ok)
}
