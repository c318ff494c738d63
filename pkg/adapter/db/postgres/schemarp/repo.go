// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package schemarp implements the repo.Schema interface for managing
// PostgreSQL schemas and roles, and the repo.SchemaInitializer which
// creates the clients tables.
package schemarp

import (
	"context"

	"github.com/momeni/clientstx/pkg/adapter/db/postgres"
	"github.com/momeni/clientstx/pkg/core/repo"
	"github.com/momeni/clientstx/pkg/core/scram"
)

// Repo is the schema repository. Role names which are passed to its
// queryers are suffixed by roleSuffix.
type Repo struct {
	roleSuffix repo.Role
	hasher     scram.Hasher
}

// New instantiates a schema Repo. The hasher is used for hashing the
// role passwords as expected by the DBMS authentication method.
func New(roleSuffix repo.Role, hasher scram.Hasher) *Repo {
	return &Repo{roleSuffix: roleSuffix, hasher: hasher}
}

type connQueryer struct {
	*postgres.Conn
	r *Repo
}

func (sr *Repo) Conn(c repo.Conn) repo.SchemaQueryer {
	return connQueryer{Conn: postgres.ConnOf(c), r: sr}
}

func (cq connQueryer) DropIfExists(ctx context.Context, schema string) error {
	return DropIfExists(ctx, cq.Conn, schema)
}

func (cq connQueryer) DropCascade(ctx context.Context, schema string) error {
	return DropCascade(ctx, cq.Conn, schema)
}

func (cq connQueryer) CreateSchema(ctx context.Context, schema string) error {
	return CreateSchema(ctx, cq.Conn, schema)
}

func (cq connQueryer) CreateRoleIfNotExists(ctx context.Context, role repo.Role) error {
	return CreateRoleIfNotExists(ctx, cq.Conn, cq.r.roleSuffix, role)
}

func (cq connQueryer) GrantPrivileges(ctx context.Context, schema string, role repo.Role) error {
	return GrantPrivileges(ctx, cq.Conn, cq.r.roleSuffix, schema, role)
}

func (cq connQueryer) SetSearchPath(ctx context.Context, schema string, role repo.Role) error {
	return SetSearchPath(ctx, cq.Conn, cq.r.roleSuffix, schema, role)
}

type txQueryer struct {
	*postgres.Tx
	r *Repo
}

func (sr *Repo) Tx(tx repo.Tx) repo.SchemaTxQueryer {
	return txQueryer{Tx: postgres.TxOf(tx), r: sr}
}

func (tq txQueryer) DropIfExists(ctx context.Context, schema string) error {
	return DropIfExists(ctx, tq.Tx, schema)
}

func (tq txQueryer) DropCascade(ctx context.Context, schema string) error {
	return DropCascade(ctx, tq.Tx, schema)
}

func (tq txQueryer) CreateSchema(ctx context.Context, schema string) error {
	return CreateSchema(ctx, tq.Tx, schema)
}

func (tq txQueryer) CreateRoleIfNotExists(ctx context.Context, role repo.Role) error {
	return CreateRoleIfNotExists(ctx, tq.Tx, tq.r.roleSuffix, role)
}

func (tq txQueryer) GrantPrivileges(ctx context.Context, schema string, role repo.Role) error {
	return GrantPrivileges(ctx, tq.Tx, tq.r.roleSuffix, schema, role)
}

func (tq txQueryer) SetSearchPath(ctx context.Context, schema string, role repo.Role) error {
	return SetSearchPath(ctx, tq.Tx, tq.r.roleSuffix, schema, role)
}

func (tq txQueryer) ChangePasswords(
	ctx context.Context, roles []repo.Role, passwords []string,
) error {
	return ChangePasswords(
		ctx, tq.Tx, tq.r.roleSuffix, tq.r.hasher, roles, passwords,
	)
}
