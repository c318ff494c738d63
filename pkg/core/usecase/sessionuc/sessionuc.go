// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sessionuc contains the session UseCase which owns one pinned
// database connection and drives its transaction boundaries manually.
// Supported use cases are:
//  1. Opening (or re-affirming) a session,
//  2. Committing or rolling back its pending writes,
//  3. Changing the isolation level of its next transactions,
//  4. Closing it and releasing the pinned connection.
//
// Other use cases (e.g., clients editing) run their statements through
// the Read and Write methods, so the session decides whether they run
// in the pending transaction or directly on a connection.
//
// All accesses to the pinned connection are serialized by one worker
// go routine. Callers enqueue their operations and wait for results,
// so a periodic refresh can never interleave with a user write.
package sessionuc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/momeni/clientstx/pkg/core/cerr"
	"github.com/momeni/clientstx/pkg/core/log"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
)

// savepoint is taken before each statement group in a transaction, so
// a failing statement may be undone alone.
const savepoint = "clientstx_stmt"

// ErrStopped is returned for operations which are asked after Shutdown.
var ErrStopped = errors.New("session use case is stopped")

// ReadHandler runs read-only statements. The tx is nil if no
// transaction is pending and c should be used instead.
type ReadHandler func(ctx context.Context, c repo.Conn, tx repo.Tx) error

// WriteHandler runs statements in the pending transaction.
type WriteHandler func(ctx context.Context, tx repo.Tx) error

// Hook is called after each transaction boundary (commit or rollback)
// with the session connection. Hooks run on the worker go routine and
// must not call the UseCase methods.
type Hook func(ctx context.Context, c repo.Conn) error

// UseCase represents the session use case. It holds a session-capable
// connection pool and, once opened, the pinned session, its pending
// transaction, and the isolation level for the next transactions.
type UseCase struct {
	pool repo.SessionPool

	ops      chan *op
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// following fields are owned by the worker go routine
	sess     repo.Session
	tx       repo.SessionTx
	dirty    bool
	level    model.IsolationLevel
	levelSet bool
	hooks    []Hook
}

type op struct {
	ctx context.Context
	fn  func(ctx context.Context) error
	res chan error
}

// New instantiates a session use case and starts its worker go
// routine. No connection is acquired until Open or StartTransaction
// is called. The Shutdown method must be called in order to release
// the worker go routine and the pinned connection (if any).
func New(p repo.SessionPool, opts ...Option) (*UseCase, error) {
	uc := &UseCase{
		pool: p,
		ops:  make(chan *op),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if !uc.levelSet {
		uc.level = model.ReadCommitted
	}
	go uc.serve()
	return uc, nil
}

func (uc *UseCase) serve() {
	defer close(uc.done)
	for {
		select {
		case o := <-uc.ops:
			o.res <- uc.run(o)
		case <-uc.quit:
			return
		}
	}
}

func (uc *UseCase) run(o *op) (err error) {
	if err = o.ctx.Err(); err != nil {
		return err // caller gave up while the op was queued
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panicked: %v", r)
			log.Error(o.ctx, "session operation panicked", log.Err("err", err))
		}
	}()
	return o.fn(o.ctx)
}

// do enqueues fn and waits for its result. Once fn is accepted by the
// worker, do waits for its completion even if ctx is canceled, so the
// caller never misses the outcome of an applied write.
func (uc *UseCase) do(
	ctx context.Context, fn func(ctx context.Context) error,
) error {
	o := &op{ctx: ctx, fn: fn, res: make(chan error, 1)}
	select {
	case uc.ops <- o:
	case <-ctx.Done():
		return ctx.Err()
	case <-uc.done:
		return cerr.Unavailable(ErrStopped)
	}
	return <-o.res
}

// Open acquires a pinned connection if no session is open yet.
// Statements which are run by Write will be grouped in a transaction
// which uses the current isolation level and stays open until Commit
// or Rollback. Failure to reach the database is reported as a
// cerr.Unavailable error and leaves the session closed.
func (uc *UseCase) Open(ctx context.Context) (
	st model.SessionStatus, err error,
) {
	err = uc.do(ctx, func(ctx context.Context) error {
		err := uc.open(ctx)
		st = uc.status()
		return err
	})
	return
}

// StartTransaction opens the session if it is closed. Otherwise, it
// re-affirms the manual transaction mode. Either way, the current
// session status (including the isolation level label) is returned.
func (uc *UseCase) StartTransaction(ctx context.Context) (
	st model.SessionStatus, err error,
) {
	err = uc.do(ctx, func(ctx context.Context) error {
		defer func() { st = uc.status() }()
		if uc.sess == nil {
			return uc.open(ctx)
		}
		log.Info(
			ctx, "transaction started",
			log.Level(uc.level), log.State(uc.state()),
		)
		return nil
	})
	return
}

func (uc *UseCase) open(ctx context.Context) error {
	if uc.sess != nil {
		return nil
	}
	s, err := uc.pool.Session(ctx)
	if err != nil {
		log.Error(ctx, "failed to open session", log.Err("err", err))
		return cerr.Unavailable(fmt.Errorf("opening session: %w", err))
	}
	uc.sess = s
	log.Info(ctx, "session opened", log.Level(uc.level))
	return nil
}

// Commit commits the pending writes (if any) and runs the boundary
// hooks. It is a no-op if the session is closed.
// A failed commit still ends the transaction (the DBMS discards it),
// so the session returns to the idle state in both cases.
func (uc *UseCase) Commit(ctx context.Context) (
	st model.SessionStatus, err error,
) {
	err = uc.do(ctx, func(ctx context.Context) error {
		defer func() { st = uc.status() }()
		return uc.endTx(ctx, "commit", repo.SessionTx.Commit)
	})
	return
}

// Rollback discards the pending writes (if any) and runs the boundary
// hooks. It is a no-op if the session is closed.
func (uc *UseCase) Rollback(ctx context.Context) (
	st model.SessionStatus, err error,
) {
	err = uc.do(ctx, func(ctx context.Context) error {
		defer func() { st = uc.status() }()
		return uc.endTx(ctx, "rollback", repo.SessionTx.Rollback)
	})
	return
}

func (uc *UseCase) endTx(
	ctx context.Context,
	name string,
	end func(repo.SessionTx, context.Context) error,
) error {
	if uc.sess == nil {
		log.Debug(ctx, name+" ignored without an open session")
		return nil
	}
	var err error
	if uc.tx != nil {
		err = end(uc.tx, ctx)
		uc.tx, uc.dirty = nil, false
	}
	if err != nil {
		log.Error(ctx, name+" failed", log.Err("err", err))
		err = fmt.Errorf("%s: %w", name, err)
	} else {
		log.Info(ctx, "transaction "+name+" done", log.Level(uc.level))
	}
	uc.runHooks(ctx)
	return err
}

func (uc *UseCase) runHooks(ctx context.Context) {
	for i, h := range uc.hooks {
		if err := h(ctx, uc.sess); err != nil {
			log.Warn(
				ctx, "session boundary hook failed",
				log.Count("hook", int64(i)), log.Err("err", err),
			)
		}
	}
}

// SetIsolationLevel changes the isolation level of the next
// transactions. If no write is pending, the change takes effect
// immediately. A pending transaction keeps its own level because
// a running transaction cannot change it, so the new level applies
// after its commit or rollback (and a warning is logged).
// If no session is open, the level is only remembered for the next
// session and a warning is logged; this is not reported as an error.
func (uc *UseCase) SetIsolationLevel(
	ctx context.Context, l model.IsolationLevel,
) (st model.SessionStatus, err error) {
	if err = l.Validate(); err != nil {
		return st, cerr.BadRequest(err)
	}
	err = uc.do(ctx, func(ctx context.Context) error {
		err := uc.applyLevel(ctx, l)
		st = uc.status()
		return err
	})
	return
}

// CycleIsolationLevel moves to the next isolation level, following
// the model.IsolationLevel.Next order, and applies it similar to the
// SetIsolationLevel method.
func (uc *UseCase) CycleIsolationLevel(ctx context.Context) (
	st model.SessionStatus, err error,
) {
	err = uc.do(ctx, func(ctx context.Context) error {
		err := uc.applyLevel(ctx, uc.level.Next())
		st = uc.status()
		return err
	})
	return
}

func (uc *UseCase) applyLevel(
	ctx context.Context, l model.IsolationLevel,
) error {
	uc.level = l
	switch {
	case uc.sess == nil:
		log.Warn(
			ctx, "no open session, level is kept for the next one",
			log.Level(l),
		)
	case uc.dirty:
		log.Warn(
			ctx, "pending transaction keeps its isolation level",
			log.Level(l),
		)
	case uc.tx != nil:
		// no writes are pending, so the snapshot can be dropped
		err := uc.tx.Rollback(ctx)
		uc.tx = nil
		if err != nil {
			return fmt.Errorf("dropping idle transaction: %w", err)
		}
		log.Info(ctx, "isolation level changed", log.Level(l))
	default:
		log.Info(ctx, "isolation level changed", log.Level(l))
	}
	return nil
}

// Close rolls back the pending transaction (if any) and releases the
// pinned connection. It is a no-op if the session is closed.
func (uc *UseCase) Close(ctx context.Context) (
	st model.SessionStatus, err error,
) {
	err = uc.do(ctx, func(ctx context.Context) error {
		err := uc.close(ctx)
		st = uc.status()
		return err
	})
	return
}

func (uc *UseCase) close(ctx context.Context) error {
	if uc.sess == nil {
		return nil
	}
	var errs []error
	if uc.tx != nil {
		if err := uc.tx.Rollback(ctx); err != nil {
			errs = append(errs, fmt.Errorf("rollback: %w", err))
		}
		if uc.dirty {
			log.Warn(ctx, "pending writes are discarded by close")
		}
		uc.tx, uc.dirty = nil, false
	}
	if err := uc.sess.Close(); err != nil {
		errs = append(errs, fmt.Errorf("releasing connection: %w", err))
	}
	uc.sess = nil
	log.Info(ctx, "session closed")
	return errors.Join(errs...)
}

// Status reports the current session state and isolation level.
func (uc *UseCase) Status(ctx context.Context) (
	st model.SessionStatus, err error,
) {
	err = uc.do(ctx, func(context.Context) error {
		st = uc.status()
		return nil
	})
	return
}

func (uc *UseCase) state() model.SessionState {
	switch {
	case uc.sess == nil:
		return model.SessionClosed
	case uc.dirty:
		return model.SessionOpenDirty
	default:
		return model.SessionOpenIdle
	}
}

func (uc *UseCase) status() model.SessionStatus {
	return model.NewSessionStatus(uc.state(), uc.level)
}

// Subscribe registers h to be called after each commit or rollback.
func (uc *UseCase) Subscribe(ctx context.Context, h Hook) error {
	return uc.do(ctx, func(context.Context) error {
		uc.hooks = append(uc.hooks, h)
		return nil
	})
}

// Read runs h in the pending transaction (so pending writes are
// visible to it), or on the pinned connection if no write is pending,
// or on a short-lived pool connection if the session is closed.
// Read never changes the session state. A failing statement in the
// pending transaction is undone by its savepoint, so the pending
// writes survive it.
func (uc *UseCase) Read(ctx context.Context, h ReadHandler) error {
	return uc.do(ctx, func(ctx context.Context) error {
		switch {
		case uc.tx != nil:
			return uc.guarded(ctx, func(ctx context.Context) error {
				return h(ctx, uc.sess, uc.tx)
			})
		case uc.sess != nil:
			return h(ctx, uc.sess, nil)
		default:
			return uc.pool.Conn(
				ctx, func(ctx context.Context, c repo.Conn) error {
					return h(ctx, c, nil)
				},
			)
		}
	})
}

// Write runs h in the pending transaction, beginning one with the
// current isolation level if needed. It fails with a cerr.Conflict
// wrapping cerr.ErrNoSession if the session is closed.
// If h fails, its statements are undone (using a savepoint) and other
// pending writes are kept. Otherwise, the session becomes dirty.
func (uc *UseCase) Write(ctx context.Context, h WriteHandler) error {
	return uc.do(ctx, func(ctx context.Context) error {
		if uc.sess == nil {
			return cerr.Conflict(cerr.ErrNoSession)
		}
		if uc.tx == nil {
			tx, err := uc.sess.Begin(ctx, uc.level)
			if err != nil {
				return fmt.Errorf("begin: %w", err)
			}
			uc.tx = tx
			log.Debug(ctx, "transaction began", log.Level(uc.level))
		}
		err := uc.guarded(ctx, func(ctx context.Context) error {
			return h(ctx, uc.tx)
		})
		if err != nil {
			return err
		}
		uc.dirty = true
		return nil
	})
}

// guarded runs fn after taking a savepoint in the pending transaction.
// If fn fails, the transaction is rolled back to that savepoint. If
// even that fails, the transaction is not usable anymore and it is
// rolled back entirely.
func (uc *UseCase) guarded(
	ctx context.Context, fn func(ctx context.Context) error,
) error {
	if err := uc.tx.SavePoint(ctx, savepoint); err != nil {
		uc.abandon(ctx)
		return fmt.Errorf("savepoint: %w", err)
	}
	if err := fn(ctx); err != nil {
		if err2 := uc.tx.RollbackTo(ctx, savepoint); err2 != nil {
			uc.abandon(ctx)
			return fmt.Errorf("%w (rollback to savepoint: %w)", err, err2)
		}
		if err2 := uc.tx.Release(ctx, savepoint); err2 != nil {
			log.Warn(ctx, "releasing savepoint", log.Err("err", err2))
		}
		return err
	}
	if err := uc.tx.Release(ctx, savepoint); err != nil {
		log.Warn(ctx, "releasing savepoint", log.Err("err", err))
	}
	return nil
}

func (uc *UseCase) abandon(ctx context.Context) {
	if err := uc.tx.Rollback(ctx); err != nil {
		log.Error(ctx, "rolling back broken transaction", log.Err("err", err))
	}
	if uc.dirty {
		log.Warn(ctx, "pending writes are lost with a broken transaction")
	}
	uc.tx, uc.dirty = nil, false
	uc.runHooks(ctx)
}

// Shutdown closes the session (if it is open) and stops the worker
// go routine. Operations which are asked afterwards fail with an
// ErrStopped error.
func (uc *UseCase) Shutdown(ctx context.Context) error {
	_, err := uc.Close(ctx)
	uc.stopOnce.Do(func() { close(uc.quit) })
	select {
	case <-uc.done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	if errors.Is(err, ErrStopped) {
		return nil
	}
	return err
}
