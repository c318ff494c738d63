// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import "context"

// SchemaInitializer creates the clients tables in the current schema
// (as selected by the search_path of the connected role) and fills
// them with development or production suitable data.
type SchemaInitializer interface {
	// InitDevSchema creates the tables and inserts a few sample
	// clients and phones which are useful for manual testing.
	InitDevSchema(ctx context.Context) error

	// InitProdSchema creates the tables and leaves them empty.
	InitProdSchema(ctx context.Context) error
}

// Schema is the repository of database-wide objects, namely schemas
// and roles, which are managed by the AdminRole during provisioning.
type Schema interface {
	Conn(Conn) SchemaQueryer
	Tx(Tx) SchemaTxQueryer
}

// SchemaTxQueryer contains the schema operations which must run in a
// transaction, in addition to the SchemaQueryer operations.
type SchemaTxQueryer interface {
	SchemaQueryer

	// ChangePasswords updates passwords of the given roles. The i-th
	// password belongs to the i-th role. Passwords are hashed before
	// being sent to the DBMS, so they never travel in plaintext.
	ChangePasswords(
		ctx context.Context, roles []Role, passwords []string,
	) error
}

// SchemaQueryer contains the schema and role management operations.
// Role names are suffixed by the repository (if it was created with
// a non-empty suffix) before being used.
type SchemaQueryer interface {
	// DropIfExists drops the schema (if it exists), assuming that it
	// is empty. A non-empty schema causes an error.
	DropIfExists(ctx context.Context, schema string) error

	// DropCascade drops the schema and all of its contents.
	DropCascade(ctx context.Context, schema string) error

	CreateSchema(ctx context.Context, schema string) error

	CreateRoleIfNotExists(ctx context.Context, role Role) error

	// GrantPrivileges allows role to use and create objects in schema.
	GrantPrivileges(ctx context.Context, schema string, role Role) error

	// SetSearchPath makes schema the default schema of role, so its
	// tables may be referenced without qualification.
	SetSearchPath(ctx context.Context, schema string, role Role) error
}
