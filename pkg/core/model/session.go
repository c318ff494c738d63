// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"log/slog"
)

// SessionState is the state of a manually managed database session.
type SessionState int

// These constants list the session states. A session starts Closed,
// becomes OpenIdle once its connection is acquired, and turns into
// OpenDirty after a write until the next commit or rollback.
const (
	SessionClosed SessionState = iota
	SessionOpenIdle
	SessionOpenDirty
)

// String returns a short name for ss.
func (ss SessionState) String() string {
	switch ss {
	case SessionClosed:
		return "closed"
	case SessionOpenIdle:
		return "open-idle"
	case SessionOpenDirty:
		return "open-dirty"
	default:
		return fmt.Sprintf("SessionState(%d)", int(ss))
	}
}

// IsOpen reports if ss is one of the open states.
func (ss SessionState) IsOpen() bool {
	return ss == SessionOpenIdle || ss == SessionOpenDirty
}

// LogValue implements slog.LogValuer.
func (ss SessionState) LogValue() slog.Value {
	return slog.StringValue(ss.String())
}

// MarshalText implements encoding.TextMarshaler.
func (ss SessionState) MarshalText() ([]byte, error) {
	return []byte(ss.String()), nil
}

// SessionStatus is a snapshot of a session state and the isolation
// level which will be used by its next transaction.
type SessionStatus struct {
	State SessionState   `json:"state"`
	Level IsolationLevel `json:"isolation_level"`
	Label string         `json:"label"`
}

// NewSessionStatus creates a SessionStatus and fills its Label.
func NewSessionStatus(s SessionState, l IsolationLevel) SessionStatus {
	return SessionStatus{
		State: s,
		Level: l,
		Label: "Nivel actual: " + l.Label(),
	}
}
