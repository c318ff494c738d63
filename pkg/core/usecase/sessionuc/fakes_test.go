// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sessionuc_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
)

// journal records the calls which reach the fake database objects.
type journal struct {
	mu     sync.Mutex
	events []string
	inside atomic.Int32 // concurrently running statements
	racy   atomic.Bool
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) take() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	e := j.events
	j.events = nil
	return e
}

func (j *journal) enter() func() {
	if j.inside.Add(1) > 1 {
		j.racy.Store(true)
	}
	return func() { j.inside.Add(-1) }
}

type fakeQueryer struct {
	j    *journal
	name string
}

func (q fakeQueryer) Exec(
	ctx context.Context, sql string, args ...any,
) (int64, error) {
	defer q.j.enter()()
	q.j.add("%s exec %s", q.name, sql)
	if sql == "fail" {
		return 0, errors.New("statement failed")
	}
	return 1, nil
}

func (q fakeQueryer) Query(
	ctx context.Context, sql string, args ...any,
) (repo.Rows, error) {
	q.j.add("%s query %s", q.name, sql)
	return nil, errors.New("not supported")
}

type fakeConn struct {
	fakeQueryer
}

func (c fakeConn) Tx(ctx context.Context, h repo.TxHandler) error {
	return errors.New("not supported")
}

func (c fakeConn) IsConn() {
}

type fakePool struct {
	j       *journal
	failing bool
}

func (p *fakePool) Conn(ctx context.Context, h repo.ConnHandler) error {
	p.j.add("pool conn")
	return h(ctx, fakeConn{fakeQueryer{j: p.j, name: "pool"}})
}

func (p *fakePool) Close() error {
	return nil
}

func (p *fakePool) Session(ctx context.Context) (repo.Session, error) {
	if p.failing {
		return nil, errors.New("connection refused")
	}
	p.j.add("session acquired")
	return &fakeSession{fakeConn: fakeConn{fakeQueryer{
		j: p.j, name: "session",
	}}}, nil
}

type fakeSession struct {
	fakeConn
}

func (s *fakeSession) Begin(
	ctx context.Context, level model.IsolationLevel,
) (repo.SessionTx, error) {
	s.j.add("begin %s", level)
	return &fakeTx{fakeQueryer: fakeQueryer{j: s.j, name: "tx"}}, nil
}

func (s *fakeSession) Close() error {
	s.j.add("session released")
	return nil
}

type fakeTx struct {
	fakeQueryer
}

func (tx *fakeTx) IsTx() {
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.j.add("commit")
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.j.add("rollback")
	return nil
}

func (tx *fakeTx) SavePoint(ctx context.Context, name string) error {
	tx.j.add("savepoint")
	return nil
}

func (tx *fakeTx) RollbackTo(ctx context.Context, name string) error {
	tx.j.add("rollback to savepoint")
	return nil
}

func (tx *fakeTx) Release(ctx context.Context, name string) error {
	tx.j.add("release savepoint")
	return nil
}
