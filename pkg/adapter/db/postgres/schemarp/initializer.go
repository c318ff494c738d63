// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package schemarp

import (
	"context"
	"fmt"

	"github.com/momeni/clientstx/pkg/adapter/db/postgres"
	"github.com/momeni/clientstx/pkg/core/repo"
)

const createTables = `
CREATE TABLE "Cliente" (
	"idCliente" BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	"Nombre" VARCHAR(45) NOT NULL,
	"Apellido" VARCHAR(45) NOT NULL,
	"Direccion" VARCHAR(100) NOT NULL
);
CREATE INDEX "Cliente_Nombre_idx" ON "Cliente" ("Nombre");
CREATE TABLE "Telefono" (
	"idTelefono" BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	"Numero" VARCHAR(20) NOT NULL,
	"Cliente_idCliente" BIGINT NOT NULL
		REFERENCES "Cliente" ("idCliente") ON DELETE CASCADE
);
CREATE INDEX "Telefono_Cliente_idx" ON "Telefono" ("Cliente_idCliente");
`

const insertDevData = `
INSERT INTO "Cliente" ("Nombre", "Apellido", "Direccion") VALUES
	('Juan', 'Perez', 'Av. Siempre Viva 742'),
	('Maria', 'Gomez', 'Calle Falsa 123'),
	('Pedro', 'Ramirez', 'Los Olmos 55');
INSERT INTO "Telefono" ("Numero", "Cliente_idCliente")
SELECT v.num, c."idCliente"
FROM (VALUES
	('555-0101', 'Juan'),
	('555-0102', 'Juan'),
	('555-0201', 'Maria')
) AS v(num, name)
JOIN "Cliente" c ON c."Nombre" = v.name;
`

// Initializer creates the clients tables in the search_path schema of
// its transaction role.
type Initializer struct {
	tx *postgres.Tx
}

// NewInitializer instantiates an Initializer which runs its statements
// in the tx transaction.
func NewInitializer(tx repo.Tx) repo.SchemaInitializer {
	return &Initializer{tx: postgres.TxOf(tx)}
}

// InitDevSchema creates the tables and fills them with a few clients
// and phones. One client is left without phones on purpose.
func (i *Initializer) InitDevSchema(ctx context.Context) error {
	if err := i.InitProdSchema(ctx); err != nil {
		return err
	}
	if _, err := i.tx.Exec(ctx, insertDevData); err != nil {
		return fmt.Errorf("inserting dev data: %w", err)
	}
	return nil
}

// InitProdSchema creates the tables and leaves them empty.
func (i *Initializer) InitProdSchema(ctx context.Context) error {
	if _, err := i.tx.Exec(ctx, createTables); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}
