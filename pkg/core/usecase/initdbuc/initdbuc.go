// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package initdbuc provides the database provisioning use case which
// prepares an empty schema, the roles which may access it, and the
// clients tables with development or production suitable data.
package initdbuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/momeni/clientstx/pkg/core/log"
	"github.com/momeni/clientstx/pkg/core/repo"
)

// Settings represents the database-related settings which should be
// provided by a configuration file.
type Settings interface {
	// ConnectionPool creates a database connection pool for the r
	// role. Passwords are kept in a pgpass-style file which may be
	// renewed by RenewPasswords.
	ConnectionPool(ctx context.Context, r repo.Role) (repo.Pool, error)

	// SchemaName returns the name of the schema which holds the
	// clients tables.
	SchemaName() string

	// NewSchemaRepo instantiates a Schema repository which suffixes
	// role names consistently with the ConnectionPool method.
	NewSchemaRepo() repo.Schema

	// SchemaInitializer wraps tx in order to create the clients
	// tables and fill them.
	SchemaInitializer(tx repo.Tx) repo.SchemaInitializer

	// RenewPasswords generates new secure passwords for the given
	// roles, records them in a temporary passwords file, and calls
	// change in order to update them in the database. The returned
	// finalizer must be called after the transaction of change is
	// committed, so the temporary file replaces the main one.
	RenewPasswords(
		ctx context.Context,
		change func(
			ctx context.Context, roles []repo.Role, passwords []string,
		) error,
		roles ...repo.Role,
	) (finalizer func() error, err error)
}

// UseCase represents the database initialization use case. It may
// be used to initialize database with development or production
// suitable data as asked by the InitDev and InitProd methods.
type UseCase struct {
	settings   Settings
	schemaRepo repo.Schema
}

// New creates a provisioning UseCase instance, using the s settings in
// order to find the target database connection information.
func New(s Settings) *UseCase {
	return &UseCase{
		settings:   s,
		schemaRepo: s.NewSchemaRepo(),
	}
}

// InitProd drops the clients schema (if it exists and is empty) and
// recreates it using the admin role. It also creates the normal role
// (if it does not exist), grants it privileges on the created schema,
// makes that schema its default search_path, and renews passwords of
// both admin and normal roles. These operations are performed in a
// single transaction and coordinated with password files, so they can
// be repeated in case of an abrupt failure.
// Thereafter, it connects using the normal role and creates the empty
// clients tables in a second transaction.
func (uc *UseCase) InitProd(ctx context.Context) error {
	return uc.initDB(
		ctx,
		func(ctx context.Context, si repo.SchemaInitializer) error {
			return si.InitProdSchema(ctx)
		},
	)
}

// InitDev is similar to InitProd, but fills the clients tables with
// a few sample rows which are useful during development.
func (uc *UseCase) InitDev(ctx context.Context) error {
	return uc.initDB(
		ctx,
		func(ctx context.Context, si repo.SchemaInitializer) error {
			return si.InitDevSchema(ctx)
		},
	)
}

func (uc *UseCase) initDB(
	ctx context.Context,
	dbi func(ctx context.Context, si repo.SchemaInitializer) error,
) error {
	if err := uc.dropAndCreateAgain(ctx); err != nil {
		return fmt.Errorf("dropping/recreating schema: %w", err)
	}
	p, err := uc.settings.ConnectionPool(ctx, repo.NormalRole)
	if err != nil {
		return fmt.Errorf("creating DB pool for normal role: %w", err)
	}
	defer p.Close()
	err = p.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			si := uc.settings.SchemaInitializer(tx)
			if err := dbi(ctx, si); err != nil {
				return fmt.Errorf("initializing schema: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("normal connection: %w", err)
	}
	log.Info(ctx, "database is initialized")
	return nil
}

func (uc *UseCase) dropAndCreateAgain(ctx context.Context) error {
	p, err := uc.settings.ConnectionPool(ctx, repo.AdminRole)
	if err != nil {
		return fmt.Errorf("creating DB pool for admin: %w", err)
	}
	defer p.Close()
	var finalizer func() error
	sn := uc.settings.SchemaName()
	err = p.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := uc.schemaRepo.Tx(tx)
			if err := q.DropIfExists(ctx, sn); err != nil {
				return fmt.Errorf("dropping %q: %w", sn, err)
			}
			if err := q.CreateSchema(ctx, sn); err != nil {
				return fmt.Errorf("creating %q: %w", sn, err)
			}
			if err := q.CreateRoleIfNotExists(
				ctx, repo.NormalRole,
			); err != nil {
				return fmt.Errorf("creating normal role: %w", err)
			}
			if err := q.GrantPrivileges(
				ctx, sn, repo.NormalRole,
			); err != nil {
				return fmt.Errorf("granting normal role privs: %w", err)
			}
			if err := q.SetSearchPath(
				ctx, sn, repo.NormalRole,
			); err != nil {
				return fmt.Errorf(
					"setting search_path of normal role to %q: %w",
					sn, err,
				)
			}
			finalizer, err = uc.settings.RenewPasswords(
				ctx, q.ChangePasswords, repo.AdminRole, repo.NormalRole,
			)
			if err != nil {
				return fmt.Errorf("RenewPasswords: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("admin connection: %w", err)
	}
	if err := finalizer(); err != nil {
		return fmt.Errorf("finalizing passwords renewal: %w", err)
	}
	log.Info(ctx, "schema is recreated", slog.String("schema", sn))
	return nil
}
