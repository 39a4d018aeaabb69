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
	"strings"

	"github.com/google/uuid"
	"github.com/tomoncle/restkit/schema"
	"github.com/tomoncle/restkit/types"
	"github.com/uptrace/bun"
)

type Stage int

const (
	Draft Stage = iota
	Review
	Live
)

var stages = []Stage{Draft, Review, Live}

var stageNames = []string{"draft", "review", "live"}

func (s Stage) IsValid() bool { return s >= Draft && s <= Live }
func (s Stage) Number() int   { return int(s) }
func (s Stage) Desc() string  { return "article stage " + s.Name() }
func (s Stage) String() string {
	return s.Name()
}

func (s Stage) Name() string {
	if !s.IsValid() {
		return types.IllegalName
	}
	return stageNames[s]
}

type Writer struct {
	bun.BaseModel `bun:"table:writers,alias:w"`
	schema.BaseEntity

	OwnerID uuid.UUID `bun:"owner_id,type:uuid" json:"ownerId"`
	Name    string    `bun:"name,notnull" json:"name"`
}

type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`
	schema.BaseEntity

	OwnerID  uuid.UUID            `bun:"owner_id,type:uuid" json:"ownerId"`
	WriterID uuid.UUID            `bun:"writer_id,type:uuid,nullzero" json:"writerId"`
	Title    string               `bun:"title,notnull" json:"title"`
	Stage    Stage                `bun:"stage,notnull,default:0" json:"stage"`
	Featured bool                 `bun:"featured,notnull,default:false" json:"featured"`
	Labels   types.JSON[[]string] `bun:"labels,type:text" json:"labels"`
	Writer   *Writer              `bun:"rel:belongs-to,join:writer_id=id" json:"writer,omitempty"`
}

// articleView is what clients receive for an article.
type articleView struct {
	*Article
	StageName string `json:"stageName"`
	Created   bool   `json:"created,omitempty"`
}

func writerModel() *schema.Model[Writer] {
	fields := schema.BaseFields(func(w *Writer) *schema.BaseEntity { return &w.BaseEntity })
	fields = append(fields,
		schema.UUID("ownerId", "owner_id", func(w *Writer) *uuid.UUID { return &w.OwnerID }),
		schema.String("name", "name", func(w *Writer) *string { return &w.Name }),
	)
	return schema.MustModel("writer", fields...)
}

func articleModel() *schema.Model[Article] {
	fields := schema.BaseFields(func(a *Article) *schema.BaseEntity { return &a.BaseEntity })
	fields = append(fields,
		schema.UUID("ownerId", "owner_id", func(a *Article) *uuid.UUID { return &a.OwnerID }),
		schema.UUID("writerId", "writer_id", func(a *Article) *uuid.UUID { return &a.WriterID }),
		schema.String("title", "title", func(a *Article) *string { return &a.Title }),
		schema.Enum("stage", "stage", func(a *Article) *Stage { return &a.Stage }, stages...),
		schema.Bool("featured", "featured", func(a *Article) *bool { return &a.Featured }),
	)
	return schema.MustModel("article", fields...).WithRelations("Writer")
}

func normalizeTitle(a *Article) {
	a.Title = strings.TrimSpace(a.Title)
}
