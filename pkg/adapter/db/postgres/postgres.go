// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package postgres implements the repo.Pool, repo.Conn, and repo.Tx
// interfaces on top of GORM and the pgx PostgreSQL driver. It also
// implements the repo.SessionPool interface, so a connection can be
// pinned (taken out of the pool) and used for manual transactions with
// a chosen isolation level, see the Session type.
//
// Repository packages, such as clientsrp, may use the GORM method of
// the Conn and Tx types in order to build their queries.
package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/momeni/clientstx/pkg/core/cerr"
)

// SchemaName is the database schema which holds the clients tables.
const SchemaName = "clientstx"

// These constants are the PostgreSQL error codes which are classified
// by the Classify function.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	NotNullViolation    = "23502"
	CannotConnectNow    = "57P03"
)

// Classify wraps err with a cerr.Error if it is a PostgreSQL error
// with a well-known meaning. Constraint violations are reported as
// conflicts and connection failures as unavailability. Other errors
// are returned intact.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
			return cerr.Unavailable(err)
		}
		return err
	}
	switch {
	case pgErr.Code == UniqueViolation,
		pgErr.Code == ForeignKeyViolation:
		return cerr.Conflict(fmt.Errorf(
			"%s (constraint %s): %w", pgErr.Message, pgErr.ConstraintName, err,
		))
	case pgErr.Code == NotNullViolation:
		return cerr.BadRequest(fmt.Errorf(
			"%s (column %s): %w", pgErr.Message, pgErr.ColumnName, err,
		))
	case pgErr.Code == CannotConnectNow,
		len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
		return cerr.Unavailable(err)
	default:
		return err
	}
}
