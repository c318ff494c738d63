// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settings provides the value types and generic helpers which
// are shared by the configuration sections. Optional settings are kept
// as pointers, so a missing YAML key can be told apart from a zero
// value and replaced by its default during normalization.
package settings

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Duration is a time.Duration which is written in YAML files using
// the time.ParseDuration format, e.g., 1m30s.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(data []byte) error {
	dd, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	*d = Duration(dd)
	return nil
}

// String formats d like time.Duration, but drops the trailing zero
// units, so 2m0s is written as 2m and 1h0m0s as 1h.
func (d Duration) String() string {
	s := time.Duration(d).String()
	s = strings.TrimSuffix(s, "m0s")
	if s != time.Duration(d).String() {
		s += "m"
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LogValue implements slog.LogValuer.
func (d Duration) LogValue() slog.Value {
	return slog.DurationValue(time.Duration(d))
}

// Nil2Zero makes *t point to a zero T value if it is nil.
func Nil2Zero[T any](t **T) {
	var zero T
	Default(t, zero)
}

// Default makes *t point to a copy of def if it is nil.
func Default[T any](t **T, def T) {
	if *t == nil {
		*t = &def
	}
}

// ErrInvalidRange indicates that a minimum bound is greater than its
// maximum bound.
var ErrInvalidRange = errors.New("min is greater than max")

// OutOfRangeError indicates that Value was not in its acceptable range.
type OutOfRangeError[T cmp.Ordered] struct {
	Value       T
	LessThanMin bool
}

func (e *OutOfRangeError[T]) Error() string {
	if e.LessThanMin {
		return fmt.Sprintf("value %v is less than min", e.Value)
	}
	return fmt.Sprintf("value %v is greater than max", e.Value)
}

// VerifyRange checks that *value (if it is not nil) is within the
// minb and maxb inclusive bounds (if they are not nil). An out of range
// value is clamped to the violated bound and an *OutOfRangeError is
// returned, so the caller may decide to log it or to fail.
func VerifyRange[T cmp.Ordered](value **T, minb, maxb *T) error {
	switch {
	case minb != nil && maxb != nil && *minb > *maxb:
		return ErrInvalidRange
	case *value == nil:
		return nil
	}
	v := **value
	switch {
	case minb != nil && v < *minb:
		**value = *minb
		return &OutOfRangeError[T]{Value: v, LessThanMin: true}
	case maxb != nil && v > *maxb:
		**value = *maxb
		return &OutOfRangeError[T]{Value: v}
	}
	return nil
}
