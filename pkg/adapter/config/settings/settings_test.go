// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings_test

import (
	"errors"
	"testing"
	"time"

	"github.com/momeni/clientstx/pkg/adapter/config/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationString(t *testing.T) {
	for d, s := range map[time.Duration]string{
		0:                         "0s",
		5 * time.Second:           "5s",
		2 * time.Minute:           "2m",
		90 * time.Second:          "1m30s",
		time.Hour:                 "1h",
		time.Hour + 2*time.Minute: "1h2m",
		time.Hour + 3*time.Second: "1h0m3s",
		1500 * time.Millisecond:   "1.5s",
	} {
		assert.Equal(t, s, settings.Duration(d).String(), "d=%v", d)
	}
}

func TestDurationUnmarshalText(t *testing.T) {
	var d settings.Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, settings.Duration(90*time.Second), d)
	assert.Error(t, d.UnmarshalText([]byte("soon")))
	assert.Equal(t, settings.Duration(90*time.Second), d, "kept on error")
}

func TestDefault(t *testing.T) {
	var b *bool
	settings.Nil2Zero(&b)
	require.NotNil(t, b)
	assert.False(t, *b)

	n := 3
	p := &n
	settings.Default(&p, 7)
	assert.Equal(t, 3, *p, "non-nil values are kept")
	var q *int
	settings.Default(&q, 7)
	assert.Equal(t, 7, *q)
}

func TestVerifyRange(t *testing.T) {
	lo, hi := 1, 10
	v := 20
	p := &v
	err := settings.VerifyRange(&p, &lo, &hi)
	var oor *settings.OutOfRangeError[int]
	require.True(t, errors.As(err, &oor))
	assert.Equal(t, 20, oor.Value)
	assert.False(t, oor.LessThanMin)
	assert.Equal(t, 10, *p, "value is clamped")

	v = -1
	err = settings.VerifyRange(&p, &lo, nil)
	require.True(t, errors.As(err, &oor))
	assert.True(t, oor.LessThanMin)
	assert.Equal(t, 1, *p)

	assert.NoError(t, settings.VerifyRange(&p, nil, nil))
	var missing *int
	assert.NoError(t, settings.VerifyRange(&missing, &lo, &hi))
	assert.ErrorIs(t, settings.VerifyRange(&p, &hi, &lo), settings.ErrInvalidRange)
}
