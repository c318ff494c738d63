// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

// Role is a string specifying a database connection role. Each role
// has a set of granted privileges which indicates which operations
// may be performed after using it for connecting to a database.
type Role string

// These constants specify the expected database roles. The AdminRole
// must exist beforehand (i.e., must be created manually) and it must
// have super user privileges, so it can be used to create the schema
// and the NormalRole during provisioning.
// The authentication information of these roles are kept in pass files
// as indicated in the configuration file.
const (
	// AdminRole is an administrator (super user) role which is used
	// only by the database initialization commands.
	AdminRole Role = "admin"

	// NormalRole is an unprivileged role which owns the clients tables
	// and is used by the sessions for all client operations.
	NormalRole Role = "clientstx"
)
