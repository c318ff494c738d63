// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/momeni/clientstx/internal/test/dbcontainer"
	"github.com/momeni/clientstx/internal/test/schema"
	"github.com/momeni/clientstx/pkg/adapter/db/postgres"
	"github.com/momeni/clientstx/pkg/adapter/db/postgres/clientsrp"
	"github.com/momeni/clientstx/pkg/core/cerr"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
	"github.com/momeni/clientstx/pkg/core/usecase/clientsuc"
	"github.com/momeni/clientstx/pkg/core/usecase/sessionuc"
	"github.com/stretchr/testify/suite"
)

type IntegrationSessionTestSuite struct {
	suite.Suite

	Ctx  context.Context
	Pool *postgres.Pool

	session *sessionuc.UseCase
	clients *clientsuc.UseCase
}

func TestIntegrationSessionTestSuite(t *testing.T) {
	ctx := context.Background()
	_, pool, dfrs, ok := dbcontainer.New(ctx, 60*time.Second, t)
	for _, f := range dfrs {
		defer f()
	}
	if !ok {
		return // errors are already logged
	}
	if !dbcontainer.InitDev(ctx, t, pool) {
		return
	}
	suite.Run(t, &IntegrationSessionTestSuite{Ctx: ctx, Pool: pool})
}

func (ists *IntegrationSessionTestSuite) SetupTest() {
	var err error
	ists.session, err = sessionuc.New(ists.Pool)
	ists.Require().NoError(err)
	ists.clients = clientsuc.New(ists.session, clientsrp.New())
}

func (ists *IntegrationSessionTestSuite) TearDownTest() {
	ists.NoError(ists.session.Shutdown(ists.Ctx))
	err := ists.Pool.DB.Exec(`DELETE FROM "Cliente" WHERE "Nombre"='Ana'`).Error
	ists.NoError(err)
}

// committed lists the clients through another connection.
func (ists *IntegrationSessionTestSuite) committed() []model.Client {
	var cs []model.Client
	err := ists.Pool.Conn(ists.Ctx, func(
		ctx context.Context, c repo.Conn,
	) (err error) {
		cs, err = clientsrp.New().Conn(c).List(ctx)
		return err
	})
	ists.Require().NoError(err)
	return cs
}

func (ists *IntegrationSessionTestSuite) names(cs []model.Client) []string {
	var ns []string
	for _, c := range cs {
		ns = append(ns, c.Name+" "+c.LastName+" "+c.Address)
	}
	return ns
}

func (ists *IntegrationSessionTestSuite) TestTables() {
	err := ists.Pool.Conn(ists.Ctx, func(
		ctx context.Context, c repo.Conn,
	) error {
		schema.VerifyTables(ctx, ists.T(), c, "public")
		return nil
	})
	ists.Require().NoError(err)
	schema.VerifyDevRows(ists.T(), ists.committed())
}

func (ists *IntegrationSessionTestSuite) TestCommitIsVisible() {
	st, err := ists.session.StartTransaction(ists.Ctx)
	ists.Require().NoError(err)
	ists.Equal(model.SessionOpenIdle, st.State)
	n, err := ists.clients.InsertClient(ists.Ctx, model.NewClient{
		Name: "Ana", LastName: "Lopez", Address: "1st St",
	})
	ists.Require().NoError(err)
	ists.Equal(int64(1), n)

	pending, err := ists.clients.ListAll(ists.Ctx)
	ists.Require().NoError(err)
	ists.Contains(ists.names(pending), "Ana Lopez 1st St")
	ists.NotContains(ists.names(ists.committed()), "Ana Lopez 1st St")

	st, err = ists.session.Commit(ists.Ctx)
	ists.Require().NoError(err)
	ists.Equal(model.SessionOpenIdle, st.State)
	ists.Contains(ists.names(ists.committed()), "Ana Lopez 1st St")
}

func (ists *IntegrationSessionTestSuite) TestRollbackIsInvisible() {
	_, err := ists.session.StartTransaction(ists.Ctx)
	ists.Require().NoError(err)
	_, err = ists.clients.InsertClient(ists.Ctx, model.NewClient{
		Name: "Ana", LastName: "Lopez", Address: "1st St",
	})
	ists.Require().NoError(err)
	_, err = ists.session.Rollback(ists.Ctx)
	ists.Require().NoError(err)
	ists.NotContains(ists.names(ists.committed()), "Ana Lopez 1st St")
	schema.VerifyDevRows(ists.T(), ists.committed())
}

func (ists *IntegrationSessionTestSuite) TestFailedWriteKeepsPendingWrites() {
	_, err := ists.session.StartTransaction(ists.Ctx)
	ists.Require().NoError(err)
	_, err = ists.clients.InsertClient(ists.Ctx, model.NewClient{
		Name: "Ana", LastName: "Lopez", Address: "1st St",
	})
	ists.Require().NoError(err)
	_, err = ists.clients.InsertPhone(ists.Ctx, model.NewPhone{
		ClientName: "NoSuchClient", Number: "555-0000",
	})
	ists.Equal(http.StatusNotFound, cerr.Code(err))

	n, err := ists.clients.UpdateClient(ists.Ctx, model.ClientUpdate{
		Name: "Ana", LastName: "Garcia", Address: "2nd Ave",
	})
	ists.Require().NoError(err, "transaction must stay usable")
	ists.Equal(int64(1), n)
	n, err = ists.clients.InsertPhone(ists.Ctx, model.NewPhone{
		ClientName: "Ana", Number: "555-0303",
	})
	ists.Require().NoError(err)
	ists.Equal(int64(1), n)

	_, err = ists.session.Commit(ists.Ctx)
	ists.Require().NoError(err)
	var ana []model.Client
	for _, c := range ists.committed() {
		if c.Name == "Ana" {
			ana = append(ana, c)
		}
	}
	ists.Require().Len(ana, 1)
	ists.Equal("Garcia", ana[0].LastName)
	ists.Equal("2nd Ave", ana[0].Address)
	ists.Equal("555-0303", ana[0].PhoneOr(""))
}

func (ists *IntegrationSessionTestSuite) TestIsolationLevels() {
	for _, l := range []model.IsolationLevel{
		model.IsolationNone, model.ReadUncommitted, model.ReadCommitted,
		model.RepeatableRead, model.Serializable,
	} {
		st, err := ists.session.SetIsolationLevel(ists.Ctx, l)
		ists.Require().NoError(err)
		ists.Equal(l, st.Level)
		_, err = ists.clients.UpdateClient(ists.Ctx, model.ClientUpdate{
			Name: "Pedro", LastName: "Ramirez", Address: "Los Olmos 55",
		})
		if l == model.IsolationNone {
			ists.Equal(http.StatusConflict, cerr.Code(err), "closed")
			_, err = ists.session.StartTransaction(ists.Ctx)
			ists.Require().NoError(err)
			continue
		}
		ists.Require().NoError(err, "level=%v", l)
		_, err = ists.session.Commit(ists.Ctx)
		ists.Require().NoError(err, "level=%v", l)
	}
}

func (ists *IntegrationSessionTestSuite) TestRepeatableReadSnapshot() {
	_, err := ists.session.SetIsolationLevel(ists.Ctx, model.RepeatableRead)
	ists.Require().NoError(err)
	_, err = ists.session.StartTransaction(ists.Ctx)
	ists.Require().NoError(err)
	// the snapshot is taken by the first statement of the transaction
	_, err = ists.clients.UpdateClient(ists.Ctx, model.ClientUpdate{
		Name: "Pedro", LastName: "Ramirez", Address: "Los Olmos 55",
	})
	ists.Require().NoError(err)

	err = ists.Pool.Conn(ists.Ctx, func(
		ctx context.Context, c repo.Conn,
	) error {
		_, err := c.Exec(ctx, `INSERT INTO "Cliente"
("Nombre", "Apellido", "Direccion") VALUES ('Ana', 'Lopez', '1st St')`)
		return err
	})
	ists.Require().NoError(err)
	pending, err := ists.clients.ListAll(ists.Ctx)
	ists.Require().NoError(err)
	ists.NotContains(ists.names(pending), "Ana Lopez 1st St")

	_, err = ists.session.Commit(ists.Ctx)
	ists.Require().NoError(err)
	pending, err = ists.clients.ListAll(ists.Ctx)
	ists.Require().NoError(err)
	ists.Contains(ists.names(pending), "Ana Lopez 1st St")
}
