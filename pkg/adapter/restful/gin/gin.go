// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gin wraps the gin-gonic engine creation, so resources can be
// registered on an engine which tags each request with an identifier.
// The identifier is taken from the X-Request-ID header (or generated
// if it is missing) and is attached to the request context, so all
// logs of that request, including those of the queued session
// operations, can be correlated.
package gin

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/momeni/clientstx/pkg/core/log"
)

type HandlerFunc = gin.HandlerFunc
type Engine = gin.Engine

// RequestIDHeader is the request and response header which carries
// the request identifier.
const RequestIDHeader = "X-Request-ID"

// New creates an engine which runs the RequestID middleware before
// the given middlewares. The gin.Context may be used as a
// context.Context by handlers since it falls back to the request
// context values.
func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.ContextWithFallback = true
	e.Use(RequestID())
	e.Use(middlewares...)
	return e
}

// RequestID returns a middleware which attaches a request identifier
// to the request context and echoes it in the response header.
func RequestID() HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		ctx := log.WithRequestID(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
