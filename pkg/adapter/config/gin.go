// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"errors"
	"log/slog"

	ginslogger "github.com/FabienMht/ginslog/logger"
	ginslogrecovery "github.com/FabienMht/ginslog/recovery"
	"github.com/momeni/clientstx/pkg/adapter/config/settings"
	"github.com/momeni/clientstx/pkg/adapter/restful/gin"
)

// DefaultAddress is the listening address of the REST server when
// the gin.address setting is missing.
const DefaultAddress = "127.0.0.1:8080"

// Gin contains the gin-gonic related configuration settings.
// Fields are defined as pointers, so it is possible to detect if they
// are or are not initialized and fill them with their defaults.
type Gin struct {
	Logger   *bool  // Whether to register the access log middleware
	Recovery *bool  // Whether to register the recovery middleware
	Address  string // host:port which the REST server listens on
}

// ValidateAndNormalize fills the missing gin settings.
func (g *Gin) ValidateAndNormalize() error {
	settings.Default(&g.Logger, true)
	settings.Default(&g.Recovery, true)
	if g.Address == "" {
		g.Address = DefaultAddress
	}
	if g.Address[len(g.Address)-1] == ':' {
		return errors.New("address has no port")
	}
	return nil
}

// NewEngine instantiates a new gin-gonic engine instance based on
// the `g` settings. Access logs and recovered panics are reported
// through the lg structured logger. Requests are tagged with request
// identifiers by the engine itself.
func (g Gin) NewEngine(lg *slog.Logger) *gin.Engine {
	middlewares := make([]gin.HandlerFunc, 0, 2)
	if *g.Logger {
		middlewares = append(middlewares, ginslogger.New(lg))
	}
	if *g.Recovery {
		middlewares = append(middlewares, ginslogrecovery.New(lg))
	}
	return gin.New(middlewares...)
}
