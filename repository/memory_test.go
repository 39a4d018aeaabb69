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

package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/restkit/internal/fixture"
	"github.com/tomoncle/restkit/predicate"
	"github.com/tomoncle/restkit/query"
	"github.com/tomoncle/restkit/schema"
	"github.com/tomoncle/restkit/types"
)

func seedPosts(n int) []*fixture.Post {
	posts := make([]*fixture.Post, n)
	for i := range posts {
		posts[i] = &fixture.Post{
			BaseEntity: schema.BaseEntity{ID: uuid.New(), CreatedAt: fixture.Day(2023, 1, i+1)},
			Title:      string(rune('a' + i)),
			Views:      i,
			Published:  i%2 == 0,
		}
	}
	return posts
}

func TestMemoryStoreFindOrdersAndWindows(t *testing.T) {
	model := fixture.PostModel()
	posts := seedPosts(6)
	s := NewMemoryStore(model, posts...)
	ctx := context.Background()

	published, _ := model.Lookup("published")
	p, err := predicate.Eq(published, true)
	require.NoError(t, err)

	q := query.New[fixture.Post]().Where(p).OrderBy(query.Order{Field: "views", Column: "views", Desc: true})
	n, err := s.Count(ctx, q.Window(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.Find(ctx, q.Window(1, 5))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Views)
	assert.Equal(t, 0, got[1].Views)

	got, err = s.Find(ctx, q.Window(10, 5))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStoreWrites(t *testing.T) {
	model := fixture.PostModel()
	s := NewMemoryStore[fixture.Post](model)
	ctx := context.Background()
	post := &fixture.Post{BaseEntity: schema.BaseEntity{ID: uuid.New()}, Title: "first"}

	require.NoError(t, s.Insert(ctx, post))
	assert.ErrorIs(t, s.Insert(ctx, post), ErrDuplicate)

	post.Title = "changed"
	stored, err := s.Find(ctx, query.New[fixture.Post]())
	require.NoError(t, err)
	assert.Equal(t, "first", stored[0].Title, "stored rows must not alias caller entities")

	require.NoError(t, s.Update(ctx, post))
	stored, err = s.Find(ctx, query.New[fixture.Post]())
	require.NoError(t, err)
	assert.Equal(t, "changed", stored[0].Title)

	require.NoError(t, s.Delete(ctx, post))
	assert.Equal(t, 0, s.Len())
	assert.ErrorIs(t, s.Delete(ctx, post), ErrMissing)
	assert.ErrorIs(t, s.Update(ctx, post), ErrMissing)
}

func TestMemoryStoreRowsDoNotShareSlices(t *testing.T) {
	model := fixture.PostModel()
	post := seedPosts(1)[0]
	post.Tags = types.NewJSON([]string{"a", "b"})
	s := NewMemoryStore(model, post)
	ctx := context.Background()

	post.Tags.Data[0] = "seed"
	got, err := s.Find(ctx, query.New[fixture.Post]())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"a", "b"}, got[0].Tags.Data)

	got[0].Tags.Data[1] = "found"
	require.NoError(t, s.Update(ctx, got[0]))
	got[0].Tags.Data[0] = "updated"

	again, err := s.Find(ctx, query.New[fixture.Post]())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "found"}, again[0].Tags.Data)
}

func TestMemoryStoreHonoursCancellation(t *testing.T) {
	s := NewMemoryStore(fixture.PostModel(), seedPosts(2)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Find(ctx, query.New[fixture.Post]())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLazyStoreBuildsOnce(t *testing.T) {
	calls := 0
	model := fixture.PostModel()
	s := Lazy(func() Store[fixture.Post] {
		calls++
		return NewMemoryStore(model, seedPosts(3)...)
	})
	assert.Equal(t, 0, calls)

	ctx := context.Background()
	n, err := s.Count(ctx, query.New[fixture.Post]())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = s.Find(ctx, query.New[fixture.Post]())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
