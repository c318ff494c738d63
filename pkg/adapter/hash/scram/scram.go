// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scram hashes database role passwords in the SCRAM verifier
// format which PostgreSQL stores in pg_authid, so provisioned roles
// never receive a plaintext password over the wire. The SHA256 and
// SHA1 functions instantiate a Mechanism for their hash algorithm.
// It relies on the github.com/xdg-go/scram module.
package scram

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xdg-go/scram"
)

// MinIters is the least iteration count which is accepted by Hash.
const MinIters = 4096

// Mechanism computes SCRAM verifiers with a fixed hash algorithm.
// It implements the pkg/core/scram.Hasher interface.
type Mechanism struct {
	gen    scram.HashGeneratorFcn
	saltSz int
	name   string
}

// SHA1 returns a SCRAM-SHA-1 Mechanism.
func SHA1() *Mechanism {
	return &Mechanism{gen: scram.SHA1, saltSz: 20, name: "SCRAM-SHA-1"}
}

// SHA256 returns a SCRAM-SHA-256 Mechanism. PostgreSQL only accepts
// this variant for its scram-sha-256 authentication method.
func SHA256() *Mechanism {
	return &Mechanism{gen: scram.SHA256, saltSz: 32, name: "SCRAM-SHA-256"}
}

// Name returns the mechanism name, like "SCRAM-SHA-256".
func (m *Mechanism) Name() string {
	return m.name
}

// Hash computes a verifier for pass. An empty salt asks for a random
// one, otherwise salt must be base64 encoded. The result looks like:
//
//	SCRAM-SHA-256$<iters>:<b64-salt>$<b64-storedKey>:<b64-serverKey>
//
// and may be passed to CREATE or ALTER ROLE as its password.
func (m *Mechanism) Hash(pass, salt string, iters int) (string, error) {
	switch {
	case pass == "":
		return "", errors.New("password must be non-empty")
	case iters < MinIters:
		return "", fmt.Errorf("iters (%d) is less than %d", iters, MinIters)
	}
	if salt == "" {
		b := make([]byte, m.saltSz)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("creating random salt: %w", err)
		}
		salt = base64.StdEncoding.EncodeToString(b)
	}
	sc, err := m.credentials(pass, salt, iters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"%s$%d:%s$%s:%s", m.name, iters, salt,
		base64.StdEncoding.EncodeToString(sc.StoredKey),
		base64.StdEncoding.EncodeToString(sc.ServerKey),
	), nil
}

// Verify reports if hash is a verifier of pass which was computed by
// this mechanism. Malformed hash strings cause an error.
func (m *Mechanism) Verify(pass, hash string) (bool, error) {
	name, rest, ok := strings.Cut(hash, "$")
	if !ok || name != m.name {
		return false, fmt.Errorf("not a %s verifier", m.name)
	}
	params, keys, ok := strings.Cut(rest, "$")
	if !ok {
		return false, errors.New("missing keys part")
	}
	itersStr, salt, ok := strings.Cut(params, ":")
	if !ok {
		return false, errors.New("missing salt")
	}
	iters, err := strconv.Atoi(itersStr)
	if err != nil {
		return false, fmt.Errorf("parsing iters: %w", err)
	}
	stored, _, ok := strings.Cut(keys, ":")
	if !ok {
		return false, errors.New("missing server key")
	}
	want, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return false, fmt.Errorf("decoding stored key: %w", err)
	}
	sc, err := m.credentials(pass, salt, iters)
	if err != nil {
		return false, err
	}
	return hmac.Equal(want, sc.StoredKey), nil
}

func (m *Mechanism) credentials(
	pass, salt string, iters int,
) (scram.StoredCredentials, error) {
	var sc scram.StoredCredentials
	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return sc, fmt.Errorf("decoding base64 salt: %w", err)
	}
	// username and authzID do not contribute to the stored keys
	c, err := m.gen.NewClient("role", pass, "")
	if err != nil {
		return sc, fmt.Errorf("creating SCRAM client: %w", err)
	}
	sc = c.GetStoredCredentials(scram.KeyFactors{
		Salt:  string(saltBytes),
		Iters: iters,
	})
	return sc, nil
}
