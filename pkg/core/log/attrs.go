// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"log/slog"

	"github.com/momeni/clientstx/pkg/core/model"
)

// Valuer returns an Attr for the given slog.LogValuer value.
func Valuer(key string, value slog.LogValuer) slog.Attr {
	return slog.Any(key, value)
}

// Err returns an Attr for the given error value.
// The error value is resolved as a string by its Error() method.
// If error value is nil, the constant "no-error" value will be used.
func Err(key string, value error) slog.Attr {
	if value == nil {
		return slog.String(key, "no-error")
	}
	return slog.String(key, value.Error())
}

// Level returns an Attr for an isolation level, keyed as "isolation".
func Level(l model.IsolationLevel) slog.Attr {
	return slog.String("isolation", l.String())
}

// State returns an Attr for a session state, keyed as "state".
func State(s model.SessionState) slog.Attr {
	return slog.String("state", s.String())
}

// Count returns an Attr for a number of affected or listed rows.
func Count(key string, n int64) slog.Attr {
	return slog.Int64(key, n)
}
