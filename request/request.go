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

// Package request carries the per-request inputs of the query engine:
// query parameters, the request URL and the authenticated principal.
package request

import (
	"context"
	"net/url"
	"sort"
	"strings"
)

// Params is a read-only view over query parameters with case-insensitive keys.
type Params struct {
	raw    url.Values
	folded map[string][]string
}

// NewParams indexes values. Values of keys differing only in case are merged
// in key order.
func NewParams(values url.Values) Params {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	folded := make(map[string][]string, len(values))
	for _, k := range keys {
		lk := strings.ToLower(k)
		folded[lk] = append(folded[lk], values[k]...)
	}
	return Params{raw: values, folded: folded}
}

// Get returns every value of key.
func (p Params) Get(key string) []string {
	return p.folded[strings.ToLower(key)]
}

// First returns the first value of key, or "".
func (p Params) First(key string) string {
	if v := p.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Has reports whether key was sent, even with an empty value.
func (p Params) Has(key string) bool {
	_, ok := p.folded[strings.ToLower(key)]
	return ok
}

// Replace returns the query string with every spelling of the given keys
// replaced by the given values.
func (p Params) Replace(values map[string]string) string {
	out := make(url.Values, len(p.raw)+len(values))
	for k, v := range p.raw {
		out[k] = v
	}
	for key, value := range values {
		for k := range out {
			if strings.EqualFold(k, key) {
				delete(out, k)
			}
		}
		out.Set(key, value)
	}
	return out.Encode()
}

// Principal is the authenticated caller.
type Principal struct {
	Subject    string
	Roles      []string
	Attributes map[string]string
}

// Attribute returns a named attribute of the principal.
func (p *Principal) Attribute(name string) (string, bool) {
	if name == "sub" {
		return p.Subject, p.Subject != ""
	}
	v, ok := p.Attributes[name]
	return v, ok
}

// HasRole reports whether the principal carries role, ignoring case.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Context is the request seen by filters, scopes, directives and hooks.
type Context struct {
	ctx       context.Context
	url       *url.URL
	params    Params
	principal *Principal
}

// New builds a Context for the request at u.
func New(ctx context.Context, u *url.URL) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if u == nil {
		u = &url.URL{}
	}
	return &Context{ctx: ctx, url: u, params: NewParams(u.Query())}
}

// FromQuery builds a Context from a raw query string, e.g. in tests.
func FromQuery(ctx context.Context, path, rawQuery string) *Context {
	return New(ctx, &url.URL{Path: path, RawQuery: rawQuery})
}

// WithPrincipal returns a copy of c carrying p.
func (c *Context) WithPrincipal(p *Principal) *Context {
	cp := *c
	cp.principal = p
	return &cp
}

func (c *Context) Context() context.Context { return c.ctx }
func (c *Context) Params() Params           { return c.params }
func (c *Context) URL() *url.URL            { return c.url }

// Principal returns the authenticated caller, if any.
func (c *Context) Principal() (*Principal, bool) {
	return c.principal, c.principal != nil
}

// Link returns the request URL with the given query parameters replaced.
func (c *Context) Link(values map[string]string) string {
	u := *c.url
	u.RawQuery = c.params.Replace(values)
	return u.String()
}
