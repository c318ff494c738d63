// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package clientsuc contains the clients UseCase which lists and edits
// clients and their phone numbers through a manually managed session.
// Supported use cases are:
//  1. Listing all clients joined with their phones,
//  2. Inserting a new client,
//  3. Attaching a phone number to a client (identified by name),
//  4. Updating last name and address of a client (identified by name).
//
// Edits are kept in the pending transaction of the session until it is
// committed or rolled back, so they are not visible to other database
// connections before a commit. This package also provides a Refresher
// which keeps the latest listing snapshot up to date.
package clientsuc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/momeni/clientstx/pkg/core/cerr"
	"github.com/momeni/clientstx/pkg/core/log"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
	"github.com/momeni/clientstx/pkg/core/usecase/sessionuc"
)

// Session is the subset of the session use case which is needed for
// running the clients statements. The sessionuc.UseCase implements it.
type Session interface {
	Read(ctx context.Context, h sessionuc.ReadHandler) error
	Write(ctx context.Context, h sessionuc.WriteHandler) error
}

// UseCase represents the clients use case.
type UseCase struct {
	session   Session
	clientsrp repo.Clients
	validate  *validator.Validate
}

// New instantiates a clients use case which runs its statements
// through the s session, using the r repository.
func New(s Session, r repo.Clients) *UseCase {
	return &UseCase{
		session:   s,
		clientsrp: r,
		validate:  validator.New(),
	}
}

func (uc *UseCase) queryer(c repo.Conn, tx repo.Tx) repo.ClientsQueryer {
	if tx != nil {
		return uc.clientsrp.Tx(tx)
	}
	return uc.clientsrp.Conn(c)
}

// ListAll returns one row per client and phone pair, ordered by the
// client and phone identifiers. A client without phones is listed once
// with a nil phone. Pending (uncommitted) writes of the session are
// included if a transaction is open.
func (uc *UseCase) ListAll(ctx context.Context) ([]model.Client, error) {
	var cs []model.Client
	err := uc.session.Read(ctx, func(
		ctx context.Context, c repo.Conn, tx repo.Tx,
	) (err error) {
		cs, err = uc.queryer(c, tx).List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	log.Debug(ctx, "clients are listed", log.Count("rows", int64(len(cs))))
	return cs, nil
}

// InsertClient adds a new client with no phones in the pending
// transaction, returning the number of inserted rows.
// All fields of c are required and an empty field is reported as a
// cerr.BadRequest error before running any statement.
func (uc *UseCase) InsertClient(
	ctx context.Context, c model.NewClient,
) (n int64, err error) {
	if err = uc.check(c); err != nil {
		return 0, err
	}
	err = uc.session.Write(ctx, func(ctx context.Context, tx repo.Tx) error {
		n, err = uc.clientsrp.Tx(tx).InsertClient(ctx, c)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("inserting client %q: %w", c.Name, err)
	}
	log.Info(ctx, "client is inserted", log.Count("rows", n))
	return n, nil
}

// InsertPhone adds the p.Number phone to the client which its name is
// exactly equal to p.ClientName. A missing client yields a cerr.NotFound
// error and its pending transaction stays usable.
func (uc *UseCase) InsertPhone(
	ctx context.Context, p model.NewPhone,
) (n int64, err error) {
	if err = uc.check(p); err != nil {
		return 0, err
	}
	err = uc.session.Write(ctx, func(ctx context.Context, tx repo.Tx) error {
		q := uc.clientsrp.Tx(tx)
		id, err := q.ClientID(ctx, p.ClientName)
		if err != nil {
			return err
		}
		n, err = q.InsertPhone(ctx, id, p.Number)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf(
			"inserting phone of client %q: %w", p.ClientName, err,
		)
	}
	log.Info(ctx, "phone is inserted", log.Count("rows", n))
	return n, nil
}

// UpdateClient overwrites last name and address of the client which
// its name is exactly equal to u.Name. The name itself never changes.
func (uc *UseCase) UpdateClient(
	ctx context.Context, u model.ClientUpdate,
) (n int64, err error) {
	if err = uc.check(u); err != nil {
		return 0, err
	}
	err = uc.session.Write(ctx, func(ctx context.Context, tx repo.Tx) error {
		q := uc.clientsrp.Tx(tx)
		id, err := q.ClientID(ctx, u.Name)
		if err != nil {
			return err
		}
		n, err = q.UpdateClient(ctx, id, u.LastName, u.Address)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("updating client %q: %w", u.Name, err)
	}
	log.Info(ctx, "client is updated", log.Count("rows", n))
	return n, nil
}

func (uc *UseCase) check(s any) error {
	err := uc.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return cerr.BadRequest(err)
	}
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		names = append(names, fe.Field())
	}
	return cerr.BadRequest(fmt.Errorf(
		"missing required fields: %s", strings.Join(names, ", "),
	))
}
