// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/momeni/clientstx/pkg/core/model"
)

// Session is a pinned database connection. Statements which are run
// on the Session itself are committed immediately, while a transaction
// which is started by Begin stays open until its Commit or Rollback
// method is called explicitly, so several user actions may accumulate
// writes in it.
//
// A Session is not safe for concurrent use. The session use case
// serializes all accesses to it.
type Session interface {
	Conn

	// Begin starts a manual transaction with the given isolation level.
	// The IsolationNone level asks for the DBMS default level.
	// Only one transaction may be open on a Session at any time.
	// The ctx is used for starting the transaction and its possible
	// cancellation does not roll back the started transaction.
	Begin(ctx context.Context, level model.IsolationLevel) (SessionTx, error)

	// Close releases the pinned connection. An open transaction must
	// be committed or rolled back beforehand.
	Close() error
}

// SessionTx is a manually managed transaction of a Session.
type SessionTx interface {
	Tx

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// SavePoint creates a named savepoint, so a failing statement
	// may be undone by RollbackTo without aborting the transaction.
	SavePoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error
}
