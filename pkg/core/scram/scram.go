// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scram exports the Hasher interface which is used for hashing
// database role passwords with the Salted Challenge Response
// Authentication Mechanism (SCRAM) format. Only the hashing is needed
// by the provisioning use case; the authentication conversation itself
// is carried out by the PostgreSQL server and its driver.
// For the implementation, see pkg/adapter/hash/scram.
package scram

// Hasher computes SCRAM hash strings.
type Hasher interface {
	// Hash computes a hash string following the standard scram hash
	// format, so it can be stored and used later for authentication.
	//
	// The pass argument must be non-empty. The salt must contain a
	// base64 encoding of the desired salt bytes, or be empty to ask
	// for a random salt. The iters must be at least 4096.
	//
	// In absence of errors, the returned string conforms to this
	// format and may be passed to a CREATE or ALTER ROLE statement:
	//
	//	SCRAM-{SHA-X}${iters}:{b64-salt}${b64-storedKey}:{b64-serverKey}
	Hash(pass, salt string, iters int) (string, error)
}
