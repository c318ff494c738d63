// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"io"
	"log/slog"

	"github.com/momeni/clientstx/pkg/core/log"
)

// Logging contains the structured logging settings.
type Logging struct {
	Format string // text (default) or json
	Level  string // debug, info (default), warn, or error
}

// ValidateAndNormalize fills the missing logging settings and checks
// that a logger can be created with them.
func (l *Logging) ValidateAndNormalize() error {
	if l.Format == "" {
		l.Format = "text"
	}
	if l.Level == "" {
		l.Level = "info"
	}
	_, err := l.NewLogger(io.Discard)
	return err
}

// NewLogger creates a slog.Logger which writes to w.
func (l Logging) NewLogger(w io.Writer) (*slog.Logger, error) {
	return log.New(w, l.Format, l.Level)
}
