// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package clientsrs realizes the clients resource, allowing the
// clients listing and editing REST APIs to be accepted and delegated
// to the clients use cases respectively.
package clientsrs

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/goccy/go-json"
	"github.com/momeni/clientstx/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/clientstx/pkg/core/cerr"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/usecase/clientsuc"
)

// UseCase lists the clients operations which are exposed by this
// resource. The clientsuc.UseCase implements it.
type UseCase interface {
	ListAll(ctx context.Context) ([]model.Client, error)
	InsertClient(ctx context.Context, c model.NewClient) (int64, error)
	InsertPhone(ctx context.Context, p model.NewPhone) (int64, error)
	UpdateClient(ctx context.Context, u model.ClientUpdate) (int64, error)
}

// Snapshotter provides the latest periodically refreshed listing.
// The clientsuc.Refresher implements it.
type Snapshotter interface {
	Snapshot() *clientsuc.Snapshot
}

var errNoSnapshot = errors.New("no listing is loaded yet")

type resource struct {
	clients UseCase
	snap    Snapshotter
}

// Register instantiates a resource adapting the clients use case and
// the listing refresher with the relevant REST APIs including:
//  1. GET /clients listing the clients with their phones, including
//     the pending writes of the session,
//  2. GET /clients/snapshot returning the latest refreshed listing
//     with an ETag header, so If-None-Match requests can be answered
//     with 304,
//  3. POST /clients inserting a client (name, last_name, and address
//     form fields),
//  4. PUT /clients/:name updating last name and address of a client,
//  5. POST /clients/:name/phones attaching a phone (number form field)
//     to a client.
//
// Edits respond with the number of affected rows.
func Register(r *gin.RouterGroup, clients UseCase, snap Snapshotter) {
	rs := &resource{clients: clients, snap: snap}
	r.GET("clients", rs.ListAll)
	r.GET("clients/snapshot", rs.Snapshot)
	r.POST("clients", rs.InsertClient)
	r.PUT("clients/:name", rs.UpdateClient)
	r.POST("clients/:name/phones", rs.InsertPhone)
}

type listResp struct {
	Clients []model.Client `json:"clients"`
}

func (rs *resource) ListAll(c *gin.Context) {
	cs, err := rs.clients.ListAll(c)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	if cs == nil {
		cs = []model.Client{}
	}
	c.JSON(http.StatusOK, listResp{Clients: cs})
}

type snapshotResp struct {
	Clients []model.Client `json:"clients"`
	Taken   string         `json:"taken"`
	Seq     uint64         `json:"seq"`
}

func (rs *resource) Snapshot(c *gin.Context) {
	s := rs.snap.Snapshot()
	if s == nil {
		serdser.SerErr(c, cerr.Unavailable(errNoSnapshot))
		return
	}
	etag := `"` + strconv.FormatUint(s.Seq, 10) + `"`
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	resp := snapshotResp{
		Clients: s.Clients,
		Taken:   s.Taken.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Seq:     s.Seq,
	}
	if resp.Clients == nil {
		resp.Clients = []model.Client{}
	}
	body, err := json.Marshal(resp)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

type rowsResp struct {
	Rows int64 `json:"rows"`
}

type newClientReq struct {
	Name     string `form:"name"`
	LastName string `form:"last_name"`
	Address  string `form:"address"`
}

func (rs *resource) InsertClient(c *gin.Context) {
	req := &newClientReq{}
	if !serdser.Bind(c, req, binding.Form) {
		return
	}
	n, err := rs.clients.InsertClient(c, model.NewClient(*req))
	rs.respond(c, http.StatusCreated, n, err)
}

type nameURI struct {
	Name string `uri:"name" binding:"required"`
}

type updateReq struct {
	LastName string `form:"last_name"`
	Address  string `form:"address"`
}

func (rs *resource) UpdateClient(c *gin.Context) {
	uri, req := &nameURI{}, &updateReq{}
	if !serdser.BindURI(c, uri) ||
		!serdser.Bind(c, req, binding.Form) {
		return
	}
	n, err := rs.clients.UpdateClient(c, model.ClientUpdate{
		Name:     uri.Name,
		LastName: req.LastName,
		Address:  req.Address,
	})
	rs.respond(c, http.StatusOK, n, err)
}

type phoneReq struct {
	Number string `form:"number"`
}

func (rs *resource) InsertPhone(c *gin.Context) {
	uri, req := &nameURI{}, &phoneReq{}
	if !serdser.BindURI(c, uri) ||
		!serdser.Bind(c, req, binding.Form) {
		return
	}
	n, err := rs.clients.InsertPhone(c, model.NewPhone{
		ClientName: uri.Name,
		Number:     req.Number,
	})
	rs.respond(c, http.StatusCreated, n, err)
}

func (rs *resource) respond(c *gin.Context, code int, n int64, err error) {
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(code, rowsResp{Rows: n})
}
