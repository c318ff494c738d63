// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scram_test

import (
	"strings"
	"testing"

	"github.com/momeni/clientstx/pkg/adapter/hash/scram"
	scrami "github.com/momeni/clientstx/pkg/core/scram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ scrami.Hasher = scram.SHA256()

func TestHashFixedSalt(t *testing.T) {
	m := scram.SHA256()
	const salt = "c2FsdHNhbHRzYWx0" // "saltsaltsalt"
	h1, err := m.Hash("pencil", salt, 4096)
	require.NoError(t, err)
	h2, err := m.Hash("pencil", salt, 4096)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.True(t, strings.HasPrefix(h1, "SCRAM-SHA-256$4096:"+salt+"$"))
	ok, err := m.Verify("pencil", h1)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = m.Verify("pen", h1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashRandomSalt(t *testing.T) {
	m := scram.SHA1()
	h1, err := m.Hash("pencil", "", 15000)
	require.NoError(t, err)
	h2, err := m.Hash("pencil", "", 15000)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.True(t, strings.HasPrefix(h1, "SCRAM-SHA-1$15000:"))
	ok, err := m.Verify("pencil", h2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashErrors(t *testing.T) {
	m := scram.SHA256()
	_, err := m.Hash("", "", 4096)
	assert.Error(t, err)
	_, err = m.Hash("pencil", "", 100)
	assert.Error(t, err)
	_, err = m.Hash("pencil", "not base64!", 4096)
	assert.Error(t, err)
}

func TestVerifyMalformed(t *testing.T) {
	m := scram.SHA256()
	h, err := scram.SHA1().Hash("pencil", "", 4096)
	require.NoError(t, err)
	for _, s := range []string{
		h,
		"SCRAM-SHA-256",
		"SCRAM-SHA-256$4096",
		"SCRAM-SHA-256$x:c2FsdA==$a:b",
		"SCRAM-SHA-256$4096:c2FsdA==$nokeys",
		"SCRAM-SHA-256$4096:c2FsdA==$!!:b",
	} {
		_, err := m.Verify("pencil", s)
		assert.Error(t, err, s)
	}
}
