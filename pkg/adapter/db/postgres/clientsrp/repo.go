// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package clientsrp implements the repo.Clients interface for the
// "Cliente" and "Telefono" tables of a PostgreSQL database.
// Each query is written once as a generic function which may run on
// a postgres.Conn or postgres.Tx, and is wrapped by the connQueryer
// and txQueryer types in order to implement repo.ClientsQueryer.
package clientsrp

import (
	"context"

	"github.com/momeni/clientstx/pkg/adapter/db/postgres"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
)

type Repo struct {
}

func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

func (clients *Repo) Conn(c repo.Conn) repo.ClientsQueryer {
	return connQueryer{Conn: postgres.ConnOf(c)}
}

func (cq connQueryer) List(ctx context.Context) ([]model.Client, error) {
	return List(ctx, cq.Conn)
}

func (cq connQueryer) ClientID(ctx context.Context, name string) (int64, error) {
	return ClientID(ctx, cq.Conn, name)
}

func (cq connQueryer) InsertClient(ctx context.Context, c model.NewClient) (int64, error) {
	return InsertClient(ctx, cq.Conn, c)
}

func (cq connQueryer) InsertPhone(ctx context.Context, clientID int64, number string) (int64, error) {
	return InsertPhone(ctx, cq.Conn, clientID, number)
}

func (cq connQueryer) UpdateClient(ctx context.Context, clientID int64, lastName, address string) (int64, error) {
	return UpdateClient(ctx, cq.Conn, clientID, lastName, address)
}

type txQueryer struct {
	*postgres.Tx
}

func (clients *Repo) Tx(tx repo.Tx) repo.ClientsQueryer {
	return txQueryer{Tx: postgres.TxOf(tx)}
}

func (tq txQueryer) List(ctx context.Context) ([]model.Client, error) {
	return List(ctx, tq.Tx)
}

func (tq txQueryer) ClientID(ctx context.Context, name string) (int64, error) {
	return ClientID(ctx, tq.Tx, name)
}

func (tq txQueryer) InsertClient(ctx context.Context, c model.NewClient) (int64, error) {
	return InsertClient(ctx, tq.Tx, c)
}

func (tq txQueryer) InsertPhone(ctx context.Context, clientID int64, number string) (int64, error) {
	return InsertPhone(ctx, tq.Tx, clientID, number)
}

func (tq txQueryer) UpdateClient(ctx context.Context, clientID int64, lastName, address string) (int64, error) {
	return UpdateClient(ctx, tq.Tx, clientID, lastName, address)
}
