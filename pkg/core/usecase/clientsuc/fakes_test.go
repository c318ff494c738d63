// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package clientsuc_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/momeni/clientstx/pkg/core/cerr"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
	"github.com/momeni/clientstx/pkg/core/usecase/sessionuc"
)

type noopQueryer struct{}

func (noopQueryer) Exec(context.Context, string, ...any) (int64, error) {
	return 0, errors.New("not supported")
}

func (noopQueryer) Query(context.Context, string, ...any) (repo.Rows, error) {
	return nil, errors.New("not supported")
}

type fakeConn struct{ noopQueryer }

func (fakeConn) Tx(context.Context, repo.TxHandler) error {
	return errors.New("not supported")
}

func (fakeConn) IsConn() {
}

type fakeTx struct{ noopQueryer }

func (fakeTx) IsTx() {
}

// fakeSession runs reads on a fakeConn and writes on a fakeTx, and
// counts the writes which reach the repository.
type fakeSession struct {
	open   bool
	dirty  bool
	writes int
	hooks  []sessionuc.Hook
}

func (s *fakeSession) Read(ctx context.Context, h sessionuc.ReadHandler) error {
	if s.open {
		return h(ctx, fakeConn{}, fakeTx{})
	}
	return h(ctx, fakeConn{}, nil)
}

func (s *fakeSession) Write(ctx context.Context, h sessionuc.WriteHandler) error {
	if !s.open {
		return cerr.Conflict(cerr.ErrNoSession)
	}
	s.writes++
	if err := h(ctx, fakeTx{}); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

func (s *fakeSession) Status(context.Context) (model.SessionStatus, error) {
	st := model.SessionClosed
	switch {
	case s.dirty:
		st = model.SessionOpenDirty
	case s.open:
		st = model.SessionOpenIdle
	}
	return model.NewSessionStatus(st, model.ReadCommitted), nil
}

func (s *fakeSession) Subscribe(ctx context.Context, h sessionuc.Hook) error {
	s.hooks = append(s.hooks, h)
	return nil
}

// rollbackAfterRead mimics a rollback which the worker runs right
// after a read, before the reader goroutine resumes.
type rollbackAfterRead struct {
	*fakeSession
	fc *fakeClients
}

func (s *rollbackAfterRead) Read(
	ctx context.Context, h sessionuc.ReadHandler,
) error {
	err := s.fakeSession.Read(ctx, h)
	s.fc.rows = s.fc.rows[:s.fc.committed]
	s.commit(ctx)
	return err
}

func (s *fakeSession) commit(ctx context.Context) {
	s.dirty = false
	for _, h := range s.hooks {
		_ = h(ctx, fakeConn{})
	}
}

type row struct {
	id                      int64
	name, lastName, address string
}

type phone struct {
	id, clientID int64
	number       string
}

// fakeClients keeps clients in memory. Its lists are shared by the
// connection and transaction queryers, but Conn listings report the
// committed rows only.
type fakeClients struct {
	rows      []row
	phones    []phone
	committed int // rows[:committed] are visible to Conn queryers
	failList  bool
	txLists   int
	connLists int
}

func (fc *fakeClients) Conn(repo.Conn) repo.ClientsQueryer {
	return &fakeQueryer{fc: fc}
}

func (fc *fakeClients) Tx(repo.Tx) repo.ClientsQueryer {
	return &fakeQueryer{fc: fc, tx: true}
}

type fakeQueryer struct {
	fc *fakeClients
	tx bool
}

func (q *fakeQueryer) List(ctx context.Context) ([]model.Client, error) {
	if q.fc.failList {
		return nil, errors.New("connection reset")
	}
	rows := q.fc.rows
	if q.tx {
		q.fc.txLists++
	} else {
		q.fc.connLists++
		rows = rows[:q.fc.committed]
	}
	var cs []model.Client
	for _, r := range rows {
		c := model.Client{Name: r.name, LastName: r.lastName, Address: r.address}
		found := false
		for _, p := range q.fc.phones {
			if p.clientID == r.id {
				n := p.number
				c.Phone = &n
				cs = append(cs, c)
				found = true
			}
		}
		if !found {
			cs = append(cs, c)
		}
	}
	return cs, nil
}

func (q *fakeQueryer) ClientID(ctx context.Context, name string) (int64, error) {
	var ids []int64
	for _, r := range q.fc.rows {
		if r.name == name {
			ids = append(ids, r.id)
		}
	}
	switch len(ids) {
	case 0:
		return 0, cerr.NotFound(fmt.Errorf("client %q", name))
	case 1:
		return ids[0], nil
	default:
		return 0, cerr.Conflict(fmt.Errorf(
			"%d clients are named %q", len(ids), name,
		))
	}
}

func (q *fakeQueryer) InsertClient(
	ctx context.Context, c model.NewClient,
) (int64, error) {
	q.fc.rows = append(q.fc.rows, row{
		id:       int64(len(q.fc.rows) + 1),
		name:     c.Name,
		lastName: c.LastName,
		address:  c.Address,
	})
	return 1, nil
}

func (q *fakeQueryer) InsertPhone(
	ctx context.Context, clientID int64, number string,
) (int64, error) {
	q.fc.phones = append(q.fc.phones, phone{
		id:       int64(len(q.fc.phones) + 1),
		clientID: clientID,
		number:   number,
	})
	return 1, nil
}

func (q *fakeQueryer) UpdateClient(
	ctx context.Context, clientID int64, lastName, address string,
) (int64, error) {
	for i := range q.fc.rows {
		if q.fc.rows[i].id == clientID {
			q.fc.rows[i].lastName = lastName
			q.fc.rows[i].address = address
			return 1, nil
		}
	}
	return 0, nil
}
