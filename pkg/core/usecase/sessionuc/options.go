// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sessionuc

import (
	"errors"

	"github.com/momeni/clientstx/pkg/core/model"
)

// Option is a functional option for the session use case.
type Option func(uc *UseCase) error

// WithIsolationLevel option configures a session UseCase instance in
// order to begin its first transactions with the l isolation level.
// Without this option, model.ReadCommitted is used.
// This option may be passed to the New() function.
func WithIsolationLevel(l model.IsolationLevel) Option {
	return func(uc *UseCase) error {
		if err := l.Validate(); err != nil {
			return err
		}
		if uc.levelSet {
			return errors.New("isolation level is already configured")
		}
		uc.level, uc.levelSet = l, true
		return nil
	}
}

// WithHook option registers h to be called after each commit or
// rollback, similar to the UseCase.Subscribe method. It may be passed
// multiple times and hooks are called in the same order.
func WithHook(h Hook) Option {
	return func(uc *UseCase) error {
		if h == nil {
			return errors.New("hook is nil")
		}
		uc.hooks = append(uc.hooks, h)
		return nil
	}
}
