// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sessionrs realizes the session resource, allowing the
// transaction control REST APIs to be accepted and delegated to the
// session use case.
package sessionrs

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/momeni/clientstx/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/clientstx/pkg/core/model"
)

// UseCase lists the session operations which are exposed by this
// resource. The sessionuc.UseCase implements it.
type UseCase interface {
	Status(ctx context.Context) (model.SessionStatus, error)
	StartTransaction(ctx context.Context) (model.SessionStatus, error)
	Commit(ctx context.Context) (model.SessionStatus, error)
	Rollback(ctx context.Context) (model.SessionStatus, error)
	CycleIsolationLevel(ctx context.Context) (model.SessionStatus, error)
	SetIsolationLevel(
		ctx context.Context, l model.IsolationLevel,
	) (model.SessionStatus, error)
	Close(ctx context.Context) (model.SessionStatus, error)
}

type resource struct {
	session UseCase
}

// Register instantiates a resource adapting the session use case
// with the relevant REST APIs including:
//  1. GET /session reporting the state and the isolation level,
//  2. POST /session/start opening the session,
//  3. POST /session/commit and POST /session/rollback ending the
//     pending transaction,
//  4. POST /session/isolation/next cycling the isolation level,
//  5. PUT /session/isolation choosing the isolation level by its
//     name (level form field),
//  6. DELETE /session closing the session and discarding its pending
//     writes.
//
// All of them respond with the resulting session status.
func Register(r *gin.RouterGroup, session UseCase) {
	rs := &resource{session: session}
	r.GET("session", rs.serve(session.Status))
	r.POST("session/start", rs.serve(session.StartTransaction))
	r.POST("session/commit", rs.serve(session.Commit))
	r.POST("session/rollback", rs.serve(session.Rollback))
	r.POST("session/isolation/next", rs.serve(session.CycleIsolationLevel))
	r.PUT("session/isolation", rs.SetIsolationLevel)
	r.DELETE("session", rs.serve(session.Close))
}

func (rs *resource) serve(
	f func(ctx context.Context) (model.SessionStatus, error),
) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := f(c)
		if err != nil {
			serdser.SerErr(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

type levelReq struct {
	Level string `form:"level" binding:"required"`
}

func (rs *resource) SetIsolationLevel(c *gin.Context) {
	req := &levelReq{}
	if !serdser.Bind(c, req, binding.Form) {
		return
	}
	l, err := model.ParseIsolationLevel(req.Level)
	if err != nil {
		var errs map[string][]string
		serdser.AddErr(&errs, "Level", err.Error())
		c.JSON(http.StatusBadRequest, errs)
		return
	}
	st, err := rs.session.SetIsolationLevel(c, l)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
