// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package schemarp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/momeni/clientstx/pkg/adapter/db/postgres"
	"github.com/momeni/clientstx/pkg/core/repo"
	"github.com/momeni/clientstx/pkg/core/scram"
)

// iters is the SCRAM iterations count, as recommended by RFC 7677.
const iters = 15000

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// DropIfExists drops the `schema` schema without cascading if it
// exists. That is, if `schema` does not exist, a nil error will be
// returned without any change. And if `schema` exists and is empty,
// it will be dropped. But if `schema` exists and is not empty, an
// error will be returned.
func DropIfExists[Q postgres.Queryer](
	ctx context.Context, q Q, schema string,
) error {
	_, err := q.Exec(ctx, "DROP SCHEMA IF EXISTS "+ident(schema))
	return err
}

// DropCascade drops `schema` schema with cascading, dropping all
// dependent objects recursively. The `schema` must exist,
// otherwise, an error will be returned.
func DropCascade[Q postgres.Queryer](
	ctx context.Context, q Q, schema string,
) error {
	_, err := q.Exec(ctx, "DROP SCHEMA "+ident(schema)+" CASCADE")
	return err
}

// CreateSchema tries to create the `schema` schema.
// There must be no other schema with the `schema` name, otherwise,
// this operation will fail.
func CreateSchema[Q postgres.Queryer](
	ctx context.Context, q Q, schema string,
) error {
	_, err := q.Exec(ctx, "CREATE SCHEMA "+ident(schema))
	return err
}

// CreateRoleIfNotExists creates the `role` role if it does not
// exist right now. Although the login option is enabled for the
// created role, but no specific password will be set for it.
// The ChangePasswords function may be used for setting a password.
//
// The `role` role name is suffixed by `roleSuffix` if it is not
// empty. This is useful to have distinct role names if repo.Role
// predefined constants are not desirable.
func CreateRoleIfNotExists[Q postgres.Queryer](
	ctx context.Context, q Q, roleSuffix repo.Role, role repo.Role,
) error {
	r := string(role + roleSuffix)
	var n int64
	err := q.GORM(ctx).Raw(
		"SELECT count(*) FROM pg_catalog.pg_roles WHERE rolname=?", r,
	).Scan(&n).Error
	if err != nil {
		return fmt.Errorf("looking up %q role: %w", r, err)
	}
	if n > 0 {
		return nil
	}
	_, err = q.Exec(ctx, "CREATE ROLE "+ident(r)+" WITH LOGIN")
	return err
}

// GrantPrivileges grants ALL privileges on the `schema` schema
// to the `role` role, so it may create or access tables in that schema
// and run relevant queries.
func GrantPrivileges[Q postgres.Queryer](
	ctx context.Context,
	q Q,
	roleSuffix repo.Role,
	schema string,
	role repo.Role,
) error {
	r := string(role + roleSuffix)
	_, err := q.Exec(ctx, fmt.Sprintf(
		"GRANT ALL PRIVILEGES ON SCHEMA %s TO %s", ident(schema), ident(r),
	))
	return err
}

// SetSearchPath alters the given database role and sets its default
// search_path to the given schema name alone.
func SetSearchPath[Q postgres.Queryer](
	ctx context.Context,
	q Q,
	roleSuffix repo.Role,
	schema string,
	role repo.Role,
) error {
	r := string(role + roleSuffix)
	_, err := q.Exec(ctx, fmt.Sprintf(
		"ALTER ROLE %s SET search_path TO %s", ident(r), ident(schema),
	))
	return err
}

// ChangePasswords updates the passwords of the given roles in the
// current transaction. The roles and passwords slices must have the
// same number of entries, so they can be used in pair.
//
// The `hasher` is used for hashing of the `passwords` before sending
// them to the DBMS (so they may not leak in plaintext). Its format must
// conform with the DBMS expected format.
func ChangePasswords(
	ctx context.Context,
	tx *postgres.Tx,
	roleSuffix repo.Role,
	hasher scram.Hasher,
	roles []repo.Role,
	passwords []string,
) error {
	if len(roles) != len(passwords) {
		return errors.New("roles and passwords counts do not match")
	}
	for i, role := range roles {
		r := string(role + roleSuffix)
		h, err := hasher.Hash(passwords[i], "", iters)
		if err != nil {
			return fmt.Errorf("hashing password of %q: %w", r, err)
		}
		_, err = tx.Exec(ctx, fmt.Sprintf(
			"ALTER ROLE %s WITH PASSWORD %s", ident(r), literal(h),
		))
		if err != nil {
			return fmt.Errorf("altering %q password: %w", r, err)
		}
	}
	return nil
}
