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

// Package fixture provides the sample entities shared by the package tests.
package fixture

import (
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/restkit/schema"
	"github.com/tomoncle/restkit/types"
	"github.com/uptrace/bun"
)

type Status int

const (
	Draft Status = iota
	Published
	Archived
)

var Statuses = []Status{Draft, Published, Archived}

var statusNames = map[Status]string{Draft: "draft", Published: "published", Archived: "archived"}

func (s Status) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) Number() int { return int(s) }

func (s Status) Name() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return types.IllegalName
}
func (s Status) String() string { return s.Name() }
func (s Status) Desc() string   { return "post is " + s.Name() }

type Author struct {
	bun.BaseModel `bun:"table:authors,alias:a"`
	schema.BaseEntity

	Name string `bun:"name,notnull" json:"name"`
}

type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`
	schema.BaseEntity

	OwnerID   uuid.UUID            `bun:"owner_id,type:uuid" json:"ownerId"`
	AuthorID  uuid.UUID            `bun:"author_id,type:uuid,nullzero" json:"authorId"`
	Title     string               `bun:"title,notnull" json:"title"`
	Published bool                 `bun:"published,notnull,default:false" json:"published"`
	Status    Status               `bun:"status,notnull,default:0" json:"status"`
	Views     int                  `bun:"views,notnull,default:0" json:"views"`
	Rating    float64              `bun:"rating,notnull,default:0" json:"rating"`
	Tags      types.JSON[[]string] `bun:"tags,type:text" json:"tags"`
	Author    *Author              `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
}

// PostModel describes Post.
func PostModel() *schema.Model[Post] {
	fields := schema.BaseFields(func(p *Post) *schema.BaseEntity { return &p.BaseEntity })
	fields = append(fields,
		schema.UUID("ownerId", "owner_id", func(p *Post) *uuid.UUID { return &p.OwnerID }),
		schema.UUID("authorId", "author_id", func(p *Post) *uuid.UUID { return &p.AuthorID }),
		schema.String("title", "title", func(p *Post) *string { return &p.Title }),
		schema.Bool("published", "published", func(p *Post) *bool { return &p.Published }),
		schema.Enum("status", "status", func(p *Post) *Status { return &p.Status }, Statuses...),
		schema.Int("views", "views", func(p *Post) *int { return &p.Views }),
		schema.Float("rating", "rating", func(p *Post) *float64 { return &p.Rating }),
	)
	return schema.MustModel("post", fields...).WithRelations("Author")
}

// AuthorModel describes Author.
func AuthorModel() *schema.Model[Author] {
	fields := schema.BaseFields(func(a *Author) *schema.BaseEntity { return &a.BaseEntity })
	fields = append(fields, schema.String("name", "name", func(a *Author) *string { return &a.Name }))
	return schema.MustModel("author", fields...)
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ID parses s and panics on malformed input.
func ID(s string) uuid.UUID {
	return uuid.MustParse(s)
}
