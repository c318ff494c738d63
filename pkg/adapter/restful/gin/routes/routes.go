// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// instantiation and registration of all repo, use case, and resource
// packages based on the user provided configuration settings.
package routes

import (
	"context"
	"errors"
	"fmt"

	"github.com/momeni/clientstx/pkg/adapter/config"
	"github.com/momeni/clientstx/pkg/adapter/db/postgres/clientsrp"
	"github.com/momeni/clientstx/pkg/adapter/restful/gin"
	"github.com/momeni/clientstx/pkg/adapter/restful/gin/clientsrs"
	"github.com/momeni/clientstx/pkg/adapter/restful/gin/sessionrs"
	"github.com/momeni/clientstx/pkg/adapter/scheduler"
	"github.com/momeni/clientstx/pkg/core/repo"
	"github.com/momeni/clientstx/pkg/core/usecase/clientsuc"
	"github.com/momeni/clientstx/pkg/core/usecase/sessionuc"
)

// BasePath is the common prefix of all REST APIs.
const BasePath = "/api/clientstx/v1"

// Services keeps the use cases which are instantiated by Register,
// so they may be stopped when the server is shutting down.
type Services struct {
	Session   *sessionuc.UseCase
	Clients   *clientsuc.UseCase
	Refresher *clientsuc.Refresher
	Scheduler *scheduler.Scheduler
}

// Register instantiates the clients repository and the session and
// clients use cases based on the c configuration settings. The p pool
// is passed to the session use case, so it may pin a connection when
// a session is opened. A Refresher keeps the latest clients listing
// and is ticked periodically by a scheduler. Thereafter, resources
// are registered as request handlers using the e gin-gonic engine.
// The returned Services must be shut down by the caller.
func Register(
	ctx context.Context, e *gin.Engine, p repo.SessionPool, c *config.Config,
) (*Services, error) {
	suc, err := c.Session.NewUseCase(p)
	if err != nil {
		return nil, fmt.Errorf("creating session use case: %w", err)
	}
	s := &Services{
		Session:   suc,
		Clients:   clientsuc.New(suc, clientsrp.New()),
		Scheduler: scheduler.New(),
	}
	s.Refresher = c.Session.NewRefresher(s.Clients, suc)
	if err = s.Refresher.Start(ctx); err != nil {
		_ = suc.Shutdown(ctx)
		return nil, fmt.Errorf("starting clients refresher: %w", err)
	}
	_, err = s.Scheduler.Every(
		c.Session.Interval(), "clients refresh", s.Refresher.Tick,
	)
	if err != nil {
		_ = suc.Shutdown(ctx)
		return nil, fmt.Errorf("scheduling clients refresh: %w", err)
	}
	s.Scheduler.Start()
	r := e.Group(BasePath)
	sessionrs.Register(r, s.Session)
	clientsrs.Register(r, s.Clients, s.Refresher)
	return s, nil
}

// Shutdown stops the periodic refresh and then closes the session,
// rolling back its pending transaction (if any).
func (s *Services) Shutdown(ctx context.Context) error {
	return errors.Join(
		s.Scheduler.Stop(ctx),
		s.Session.Shutdown(ctx),
	)
}
