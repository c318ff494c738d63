// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package repo defines the repository interfaces which are implemented
// by the database adapters and used by the use cases layer. The Pool,
// Conn, and Tx interfaces describe plain connections and transactions
// which are acquired and released per operation, while the Session
// and SessionTx interfaces describe one pinned connection with
// manually managed transaction boundaries.
package repo

import "context"

// Queryer runs raw SQL statements. Both connections and transactions
// implement it.
type Queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (count int64, err error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

// Rows is the result set of a Query. It must be closed after use and
// its Err method should be checked after Next returns false.
type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
	Values() ([]any, error)
}
