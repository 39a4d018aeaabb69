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

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tomoncle/restkit/errs"
	"github.com/tomoncle/restkit/request"
)

const principalKey = "restkit.principal"

// Claims is the JWT payload carrying a request.Principal.
type Claims struct {
	Roles      []string          `json:"roles,omitempty"`
	Attributes map[string]string `json:"attrs,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts the claims into the caller seen by scopes and hooks.
func (c *Claims) Principal() *request.Principal {
	return &request.Principal{Subject: c.Subject, Roles: c.Roles, Attributes: c.Attributes}
}

// IssueToken signs an HS256 token for p that expires after ttl.
func IssueToken(secret []byte, p *request.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Roles:      p.Roles,
		Attributes: p.Attributes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(secret []byte, token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Authenticate reads a bearer token and stores the principal it carries.
// Requests without a token pass through anonymously unless required is
// set. A token that fails validation is always rejected.
func Authenticate(secret []byte, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				unauthorized(c, "missing authorization header")
				return
			}
			c.Next()
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			unauthorized(c, "invalid authorization header format")
			return
		}
		claims, err := ParseToken(secret, strings.TrimSpace(token))
		if err != nil {
			unauthorized(c, err.Error())
			return
		}
		c.Set(principalKey, claims.Principal())
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorBody{Message: message, Code: errs.Unauthorized})
}

// RequestContext builds the request.Context of c, carrying the principal
// stored by Authenticate.
func RequestContext(c *gin.Context) *request.Context {
	rc := request.New(c.Request.Context(), c.Request.URL)
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*request.Principal); ok {
			rc = rc.WithPrincipal(p)
		}
	}
	return rc
}
