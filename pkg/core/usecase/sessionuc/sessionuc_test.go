// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sessionuc_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/momeni/clientstx/pkg/core/cerr"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
	"github.com/momeni/clientstx/pkg/core/usecase/sessionuc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SessionUseCaseTestSuite struct {
	suite.Suite

	ctx  context.Context
	j    *journal
	pool *fakePool
	uc   *sessionuc.UseCase
	hook int
}

func TestSessionUseCaseTestSuite(t *testing.T) {
	suite.Run(t, new(SessionUseCaseTestSuite))
}

func (sts *SessionUseCaseTestSuite) SetupTest() {
	sts.ctx = context.Background()
	sts.j = &journal{}
	sts.pool = &fakePool{j: sts.j}
	sts.hook = 0
	uc, err := sessionuc.New(
		sts.pool,
		sessionuc.WithHook(func(context.Context, repo.Conn) error {
			sts.hook++
			return nil
		}),
	)
	sts.Require().NoError(err, "sessionuc.New")
	sts.uc = uc
}

func (sts *SessionUseCaseTestSuite) TearDownTest() {
	sts.NoError(sts.uc.Shutdown(sts.ctx))
}

func (sts *SessionUseCaseTestSuite) exec(sql string) error {
	return sts.uc.Write(
		sts.ctx, func(ctx context.Context, tx repo.Tx) error {
			_, err := tx.Exec(ctx, sql)
			return err
		},
	)
}

func (sts *SessionUseCaseTestSuite) open() {
	st, err := sts.uc.Open(sts.ctx)
	sts.Require().NoError(err)
	sts.Require().Equal(model.SessionOpenIdle, st.State)
	sts.j.take()
}

func (sts *SessionUseCaseTestSuite) TestWriteWithoutSession() {
	err := sts.exec("insert")
	sts.Require().Error(err)
	sts.ErrorIs(err, cerr.ErrNoSession)
	sts.Equal(http.StatusConflict, cerr.Code(err))
	sts.Empty(sts.j.take(), "no statement may reach the database")
}

func (sts *SessionUseCaseTestSuite) TestOpenReportsDefaultLevel() {
	st, err := sts.uc.StartTransaction(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.SessionOpenIdle, st.State)
	sts.Equal(model.ReadCommitted, st.Level)
	sts.Equal("Nivel actual: Lecturas comprometidas", st.Label)
	sts.Equal([]string{"session acquired"}, sts.j.take())

	st, err = sts.uc.StartTransaction(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.SessionOpenIdle, st.State)
	sts.Empty(sts.j.take(), "an open session must be reused")
}

func (sts *SessionUseCaseTestSuite) TestOpenFailure() {
	sts.pool.failing = true
	st, err := sts.uc.Open(sts.ctx)
	sts.Require().Error(err)
	sts.Equal(http.StatusServiceUnavailable, cerr.Code(err))
	sts.Equal(model.SessionClosed, st.State)
}

func (sts *SessionUseCaseTestSuite) TestWriteAndCommit() {
	sts.open()
	sts.Require().NoError(sts.exec("insert 1"))
	sts.Require().NoError(sts.exec("insert 2"))
	st, err := sts.uc.Status(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.SessionOpenDirty, st.State)
	sts.Equal([]string{
		"begin read committed",
		"savepoint", "tx exec insert 1", "release savepoint",
		"savepoint", "tx exec insert 2", "release savepoint",
	}, sts.j.take())

	st, err = sts.uc.Commit(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.SessionOpenIdle, st.State)
	sts.Equal([]string{"commit"}, sts.j.take())
	sts.Equal(1, sts.hook, "commit must notify the hooks")

	sts.Require().NoError(sts.exec("insert 3"))
	sts.Equal("begin read committed", sts.j.take()[0])
}

func (sts *SessionUseCaseTestSuite) TestRollback() {
	sts.open()
	sts.Require().NoError(sts.exec("update"))
	sts.j.take()
	st, err := sts.uc.Rollback(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.SessionOpenIdle, st.State)
	sts.Equal([]string{"rollback"}, sts.j.take())
	sts.Equal(1, sts.hook)
}

func (sts *SessionUseCaseTestSuite) TestBoundariesWhileClosed() {
	st, err := sts.uc.Commit(sts.ctx)
	sts.NoError(err)
	sts.Equal(model.SessionClosed, st.State)
	st, err = sts.uc.Rollback(sts.ctx)
	sts.NoError(err)
	sts.Equal(model.SessionClosed, st.State)
	st, err = sts.uc.Close(sts.ctx)
	sts.NoError(err)
	sts.Equal(model.SessionClosed, st.State)
	sts.Empty(sts.j.take())
	sts.Zero(sts.hook)
}

func (sts *SessionUseCaseTestSuite) TestFailedWriteKeepsTransaction() {
	sts.open()
	sts.Require().NoError(sts.exec("insert 1"))
	sts.j.take()
	err := sts.exec("fail")
	sts.Require().Error(err)
	sts.Equal([]string{
		"savepoint", "tx exec fail",
		"rollback to savepoint", "release savepoint",
	}, sts.j.take())
	st, err := sts.uc.Status(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.SessionOpenDirty, st.State)
	sts.Require().NoError(sts.exec("insert 2"))
	_, err = sts.uc.Commit(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal([]string{
		"savepoint", "tx exec insert 2", "release savepoint", "commit",
	}, sts.j.take())
}

func (sts *SessionUseCaseTestSuite) TestFailedFirstWriteStaysIdle() {
	sts.open()
	sts.Require().Error(sts.exec("fail"))
	st, err := sts.uc.Status(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.SessionOpenIdle, st.State)
}

func (sts *SessionUseCaseTestSuite) TestCycleWhileDirty() {
	sts.open()
	sts.Require().NoError(sts.exec("insert"))
	st, err := sts.uc.CycleIsolationLevel(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.RepeatableRead, st.Level)
	sts.Equal(model.SessionOpenDirty, st.State)
	sts.Equal("Nivel actual: Lecturas repetibles", st.Label)
	_, err = sts.uc.Commit(sts.ctx)
	sts.Require().NoError(err)
	sts.j.take()
	sts.Require().NoError(sts.exec("insert"))
	sts.Equal("begin repeatable read", sts.j.take()[0])
}

func (sts *SessionUseCaseTestSuite) TestCycleWhileIdleDropsSnapshot() {
	sts.open()
	sts.Require().Error(sts.exec("fail")) // begins a clean transaction
	sts.j.take()
	st, err := sts.uc.SetIsolationLevel(sts.ctx, model.Serializable)
	sts.Require().NoError(err)
	sts.Equal(model.SessionOpenIdle, st.State)
	sts.Equal([]string{"rollback"}, sts.j.take())
	sts.Require().NoError(sts.exec("insert"))
	sts.Equal("begin serializable", sts.j.take()[0])
}

func (sts *SessionUseCaseTestSuite) TestLevelIsKeptWhileClosed() {
	st, err := sts.uc.CycleIsolationLevel(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.SessionClosed, st.State)
	sts.Equal(model.RepeatableRead, st.Level)
	sts.open()
	sts.Require().NoError(sts.exec("insert"))
	sts.Equal("begin repeatable read", sts.j.take()[0])
}

func (sts *SessionUseCaseTestSuite) TestSetInvalidLevel() {
	_, err := sts.uc.SetIsolationLevel(sts.ctx, model.IsolationLevel(42))
	sts.Equal(http.StatusBadRequest, cerr.Code(err))
}

func (sts *SessionUseCaseTestSuite) TestReadPlacement() {
	read := func() {
		err := sts.uc.Read(sts.ctx, func(
			ctx context.Context, c repo.Conn, tx repo.Tx,
		) error {
			var q repo.Queryer = c
			if tx != nil {
				q = tx
			}
			_, err := q.Exec(ctx, "select")
			return err
		})
		sts.Require().NoError(err)
	}
	read()
	sts.Equal([]string{"pool conn", "pool exec select"}, sts.j.take())
	sts.open()
	read()
	sts.Equal([]string{"session exec select"}, sts.j.take())
	sts.Require().NoError(sts.exec("insert"))
	sts.j.take()
	read()
	sts.Equal([]string{
		"savepoint", "tx exec select", "release savepoint",
	}, sts.j.take())
	st, err := sts.uc.Status(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.SessionOpenDirty, st.State)
}

func (sts *SessionUseCaseTestSuite) TestCloseDiscardsPendingWrites() {
	sts.open()
	sts.Require().NoError(sts.exec("insert"))
	sts.j.take()
	st, err := sts.uc.Close(sts.ctx)
	sts.Require().NoError(err)
	sts.Equal(model.SessionClosed, st.State)
	sts.Equal([]string{"rollback", "session released"}, sts.j.take())
	sts.ErrorIs(sts.exec("insert"), cerr.ErrNoSession)
}

func (sts *SessionUseCaseTestSuite) TestSerializedAccess() {
	sts.open()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sts.NoError(sts.exec("insert"))
		}()
	}
	wg.Wait()
	sts.False(sts.j.racy.Load(), "statements must not run concurrently")
}

func TestShutdownStopsOperations(t *testing.T) {
	ctx := context.Background()
	j := &journal{}
	uc, err := sessionuc.New(&fakePool{j: j})
	require.NoError(t, err)
	_, err = uc.Open(ctx)
	require.NoError(t, err)
	require.NoError(t, uc.Shutdown(ctx))
	assert.Equal(t, []string{"session acquired", "session released"}, j.take())
	_, err = uc.Status(ctx)
	assert.True(t, errors.Is(err, sessionuc.ErrStopped), "err=%v", err)
	assert.NoError(t, uc.Shutdown(ctx), "repeated shutdown")
}

func TestNewRejectsDuplicateLevels(t *testing.T) {
	_, err := sessionuc.New(
		&fakePool{j: &journal{}},
		sessionuc.WithIsolationLevel(model.Serializable),
		sessionuc.WithIsolationLevel(model.ReadCommitted),
	)
	assert.Error(t, err)
}
