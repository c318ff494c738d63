// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"log/slog"
	"strings"
)

// IsolationLevel specifies the SQL transaction isolation level which
// is asked when a manual transaction begins.
type IsolationLevel int

// These constants list the supported isolation levels. The None level
// asks for the DBMS default level.
const (
	IsolationNone IsolationLevel = iota
	ReadUncommitted
	ReadCommitted
	RepeatableRead
	Serializable
)

// Next returns the isolation level which follows il in the fixed
// ReadUncommitted, ReadCommitted, RepeatableRead, Serializable cycle.
// The Serializable level wraps around and any other value (including
// IsolationNone) moves to ReadUncommitted. So, calling Next four times
// returns the same level for all cycle members.
func (il IsolationLevel) Next() IsolationLevel {
	switch il {
	case ReadUncommitted:
		return ReadCommitted
	case ReadCommitted:
		return RepeatableRead
	case RepeatableRead:
		return Serializable
	default:
		return ReadUncommitted
	}
}

// String returns the SQL spelling of il, like "read committed".
func (il IsolationLevel) String() string {
	switch il {
	case IsolationNone:
		return "none"
	case ReadUncommitted:
		return "read uncommitted"
	case ReadCommitted:
		return "read committed"
	case RepeatableRead:
		return "repeatable read"
	case Serializable:
		return "serializable"
	default:
		return fmt.Sprintf("IsolationLevel(%d)", int(il))
	}
}

// Label returns the human-readable display name of il which is shown
// next to the current isolation level indicator.
func (il IsolationLevel) Label() string {
	switch il {
	case ReadUncommitted:
		return "Lecturas no comprometidas"
	case ReadCommitted:
		return "Lecturas comprometidas"
	case RepeatableRead:
		return "Lecturas repetibles"
	case Serializable:
		return "Serializable"
	case IsolationNone:
		return "Ninguno"
	default:
		return "Desconocido"
	}
}

// Validate returns an error if il is not one of the known levels.
func (il IsolationLevel) Validate() error {
	if il < IsolationNone || il > Serializable {
		return fmt.Errorf("unknown isolation level: %d", int(il))
	}
	return nil
}

// LogValue implements slog.LogValuer.
func (il IsolationLevel) LogValue() slog.Value {
	return slog.StringValue(il.String())
}

// MarshalText implements encoding.TextMarshaler.
func (il IsolationLevel) MarshalText() ([]byte, error) {
	if err := il.Validate(); err != nil {
		return nil, err
	}
	return []byte(il.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (il *IsolationLevel) UnmarshalText(data []byte) error {
	l, err := ParseIsolationLevel(string(data))
	if err != nil {
		return err
	}
	*il = l
	return nil
}

// ParseIsolationLevel parses s as an isolation level. Both spaces and
// dashes or underscores may separate words and letter case is ignored,
// so "REPEATABLE_READ" and "repeatable-read" are accepted too.
func ParseIsolationLevel(s string) (IsolationLevel, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.NewReplacer("-", " ", "_", " ").Replace(n)
	switch n {
	case "none", "default":
		return IsolationNone, nil
	case "read uncommitted":
		return ReadUncommitted, nil
	case "read committed":
		return ReadCommitted, nil
	case "repeatable read":
		return RepeatableRead, nil
	case "serializable":
		return Serializable, nil
	default:
		return IsolationNone, fmt.Errorf(
			"invalid isolation level: %q", s,
		)
	}
}
