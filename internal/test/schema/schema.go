// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package schema verifies the clients tables for testing purposes.
// The VerifyTables function checks the created columns and may be
// used after a prod or dev initialization, while VerifyDevRows checks
// the rows which are only inserted by a dev initialization.
package schema

import (
	"context"
	"testing"

	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
	"github.com/stretchr/testify/require"
)

// These are the columns of the clients tables in their ordinal order.
var (
	ClienteColumns  = []string{"idCliente", "Nombre", "Apellido", "Direccion"}
	TelefonoColumns = []string{"idTelefono", "Numero", "Cliente_idCliente"}
)

// VerifyTables checks that the Cliente and Telefono tables are found
// in the sn schema with their expected columns.
func VerifyTables(ctx context.Context, t *testing.T, c repo.Conn, sn string) {
	t.Helper()
	for table, cols := range map[string][]string{
		"Cliente":  ClienteColumns,
		"Telefono": TelefonoColumns,
	} {
		rows, err := c.Query(ctx, `SELECT column_name
FROM information_schema.columns
WHERE table_schema=$1 AND table_name=$2
ORDER BY ordinal_position`, sn, table)
		require.NoError(t, err, "querying columns of %q", table)
		var got []string
		for rows.Next() {
			var col string
			require.NoError(t, rows.Scan(&col))
			got = append(got, col)
		}
		rows.Close()
		require.NoError(t, rows.Err())
		require.Equal(t, cols, got, "columns of %q", table)
	}
}

func row(name, last, addr string, phone *string) model.Client {
	return model.Client{
		Name: name, LastName: last, Address: addr, Phone: phone,
	}
}

func strAddr(s string) *string {
	return &s
}

// DevRows returns the listing which is expected right after a dev
// initialization.
func DevRows() []model.Client {
	return []model.Client{
		row("Juan", "Perez", "Av. Siempre Viva 742", strAddr("555-0101")),
		row("Juan", "Perez", "Av. Siempre Viva 742", strAddr("555-0102")),
		row("Maria", "Gomez", "Calle Falsa 123", strAddr("555-0201")),
		row("Pedro", "Ramirez", "Los Olmos 55", nil),
	}
}

// VerifyDevRows checks that the clients listing equals DevRows.
func VerifyDevRows(t *testing.T, got []model.Client) {
	t.Helper()
	require.Equal(t, DevRows(), got, "dev rows")
}
