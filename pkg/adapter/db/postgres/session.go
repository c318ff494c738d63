// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
)

// Session is a connection which is pinned until its Close method is
// called. In contrast to the Conn.Tx method, which commits when its
// handler returns, a transaction which is started by Begin stays open
// until it is committed or rolled back explicitly.
// A Session is not safe for concurrent use.
type Session struct {
	*Conn
	raw *sql.Conn
}

// Begin starts a transaction with the given isolation level.
// The started transaction outlives ctx; its cancellation only stops
// the BEGIN statement itself.
func (s *Session) Begin(
	ctx context.Context, level model.IsolationLevel,
) (repo.SessionTx, error) {
	il, err := sqlLevel(level)
	if err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)
	tx := s.Conn.DB.WithContext(ctx).Begin(&sql.TxOptions{Isolation: il})
	if err := tx.Error; err != nil {
		return nil, fmt.Errorf("begin tx (%s): %w", level, err)
	}
	return &SessionTx{Tx: &Tx{DB: tx}}, nil
}

// Close returns the pinned connection to its pool.
func (s *Session) Close() error {
	return s.raw.Close()
}

func sqlLevel(l model.IsolationLevel) (sql.IsolationLevel, error) {
	switch l {
	case model.IsolationNone:
		return sql.LevelDefault, nil
	case model.ReadUncommitted:
		return sql.LevelReadUncommitted, nil
	case model.ReadCommitted:
		return sql.LevelReadCommitted, nil
	case model.RepeatableRead:
		return sql.LevelRepeatableRead, nil
	case model.Serializable:
		return sql.LevelSerializable, nil
	default:
		return 0, fmt.Errorf("unsupported isolation level: %v", l)
	}
}

// SessionTx is a manually managed transaction of a Session.
// Its Commit and Rollback methods end the transaction, while the
// SavePoint, RollbackTo, and Release methods manage its savepoints.
type SessionTx struct {
	*Tx
}

func (st *SessionTx) Commit(ctx context.Context) error {
	return st.Tx.DB.WithContext(ctx).Commit().Error
}

func (st *SessionTx) Rollback(ctx context.Context) error {
	return st.Tx.DB.WithContext(ctx).Rollback().Error
}

// The savepoint statements are run directly, because the GORM
// dialector drops their errors.

func (st *SessionTx) SavePoint(ctx context.Context, name string) error {
	return st.savepoint(ctx, "SAVEPOINT ", name)
}

func (st *SessionTx) RollbackTo(ctx context.Context, name string) error {
	return st.savepoint(ctx, "ROLLBACK TO SAVEPOINT ", name)
}

func (st *SessionTx) Release(ctx context.Context, name string) error {
	return st.savepoint(ctx, "RELEASE SAVEPOINT ", name)
}

func (st *SessionTx) savepoint(ctx context.Context, cmd, name string) error {
	_, err := st.Tx.Exec(ctx, cmd+pgx.Identifier{name}.Sanitize())
	return err
}
