// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package clientsrp

import (
	"context"
	"fmt"

	"github.com/momeni/clientstx/pkg/adapter/db/postgres"
	"github.com/momeni/clientstx/pkg/core/cerr"
	"github.com/momeni/clientstx/pkg/core/model"
	"gorm.io/gorm/clause"
)

type gClient struct {
	ID       int64  `gorm:"primaryKey;column:idCliente"`
	Name     string `gorm:"column:Nombre;not null"`
	LastName string `gorm:"column:Apellido;not null"`
	Address  string `gorm:"column:Direccion;not null"`
}

func (gc *gClient) TableName() string {
	return "Cliente"
}

type gPhone struct {
	ID       int64  `gorm:"primaryKey;column:idTelefono"`
	Number   string `gorm:"column:Numero;not null"`
	ClientID int64  `gorm:"column:Cliente_idCliente;not null"`
}

func (gp *gPhone) TableName() string {
	return "Telefono"
}

// gRow is one row of the clients and phones LEFT JOIN.
type gRow struct {
	Name     string  `gorm:"column:Nombre"`
	LastName string  `gorm:"column:Apellido"`
	Address  string  `gorm:"column:Direccion"`
	Phone    *string `gorm:"column:Numero"`
}

func (gr *gRow) Model() model.Client {
	return model.Client{
		Name:     gr.Name,
		LastName: gr.LastName,
		Address:  gr.Address,
		Phone:    gr.Phone,
	}
}

func List[Q postgres.Queryer](ctx context.Context, q Q) ([]model.Client, error) {
	var rows []gRow
	err := q.GORM(ctx).Model(&gClient{}).Select(
		`"Cliente"."Nombre", "Cliente"."Apellido", "Cliente"."Direccion",` +
			` "Telefono"."Numero"`,
	).Joins(
		`LEFT JOIN "Telefono"` +
			` ON "Cliente"."idCliente" = "Telefono"."Cliente_idCliente"`,
	).Order(
		`"Cliente"."idCliente", "Telefono"."idTelefono"`,
	).Scan(&rows).Error
	if err != nil {
		return nil, postgres.Classify(err)
	}
	cs := make([]model.Client, 0, len(rows))
	for i := range rows {
		cs = append(cs, rows[i].Model())
	}
	return cs, nil
}

func ClientID[Q postgres.Queryer](ctx context.Context, q Q, name string) (int64, error) {
	var ids []int64
	err := q.GORM(ctx).Model(&gClient{}).Where(clause.Eq{
		Column: clause.Column{Name: "Nombre"}, Value: name,
	}).Order(clause.OrderByColumn{
		Column: clause.Column{Name: "idCliente"},
	}).Limit(2).Pluck("idCliente", &ids).Error
	if err != nil {
		return 0, postgres.Classify(err)
	}
	switch len(ids) {
	case 0:
		return 0, cerr.NotFound(fmt.Errorf("no client is named %q", name))
	case 1:
		return ids[0], nil
	default:
		return 0, cerr.Conflict(fmt.Errorf(
			"more than one client is named %q", name,
		))
	}
}

func InsertClient[Q postgres.Queryer](ctx context.Context, q Q, c model.NewClient) (int64, error) {
	gc := &gClient{Name: c.Name, LastName: c.LastName, Address: c.Address}
	tx := q.GORM(ctx).Create(gc)
	if err := tx.Error; err != nil {
		return 0, postgres.Classify(err)
	}
	return tx.RowsAffected, nil
}

func InsertPhone[Q postgres.Queryer](ctx context.Context, q Q, clientID int64, number string) (int64, error) {
	gp := &gPhone{Number: number, ClientID: clientID}
	tx := q.GORM(ctx).Create(gp)
	if err := tx.Error; err != nil {
		return 0, postgres.Classify(err)
	}
	return tx.RowsAffected, nil
}

func UpdateClient[Q postgres.Queryer](ctx context.Context, q Q, clientID int64, lastName, address string) (int64, error) {
	tx := q.GORM(ctx).Model(&gClient{ID: clientID}).Select(
		"Apellido", "Direccion",
	).Updates(gClient{LastName: lastName, Address: address})
	if err := tx.Error; err != nil {
		return 0, postgres.Classify(err)
	}
	return tx.RowsAffected, nil
}
