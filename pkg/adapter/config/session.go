// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/momeni/clientstx/pkg/adapter/config/settings"
	"github.com/momeni/clientstx/pkg/core/log"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/repo"
	"github.com/momeni/clientstx/pkg/core/usecase/clientsuc"
	"github.com/momeni/clientstx/pkg/core/usecase/sessionuc"
)

// These constants are the defaults and bounds of the refresh interval.
const (
	DefaultRefreshInterval = settings.Duration(5 * time.Second)
	minRefreshInterval     = settings.Duration(time.Second)
	maxRefreshInterval     = settings.Duration(time.Hour)
)

// Session contains the settings of the manually managed session and
// the periodic refresh of the clients listing. Fields are defined as
// pointers, so it is possible to detect if they are or are not
// initialized.
type Session struct {
	// IsolationLevel is used by the first transactions until another
	// level is chosen at runtime. The read committed level is used
	// if it is missing.
	IsolationLevel string `yaml:"isolation-level,omitempty"`

	// RefreshInterval indicates how often the clients listing should
	// be reloaded. Values out of the minimum and maximum bounds are
	// clamped to them.
	RefreshInterval *settings.Duration `yaml:"refresh-interval"`
	// MinRefreshInterval is the inclusive lower bound of the
	// RefreshInterval. It defaults to one second.
	MinRefreshInterval *settings.Duration `yaml:"refresh-interval-minimum"`
	// MaxRefreshInterval is the inclusive upper bound of the
	// RefreshInterval. It defaults to one hour.
	MaxRefreshInterval *settings.Duration `yaml:"refresh-interval-maximum"`

	// RefreshWhileDirty specifies if the periodic refresh should read
	// through a transaction which has pending writes.
	RefreshWhileDirty *bool `yaml:"refresh-while-dirty"`

	level model.IsolationLevel
}

// ValidateAndNormalize fills the missing session settings, parses
// the isolation level, and clamps the refresh interval.
func (s *Session) ValidateAndNormalize() error {
	s.level = model.ReadCommitted
	if s.IsolationLevel != "" {
		l, err := model.ParseIsolationLevel(s.IsolationLevel)
		if err != nil {
			return err
		}
		s.level = l
	}
	settings.Default(&s.RefreshInterval, DefaultRefreshInterval)
	settings.Default(&s.MinRefreshInterval, minRefreshInterval)
	settings.Default(&s.MaxRefreshInterval, maxRefreshInterval)
	settings.Default(&s.RefreshWhileDirty, true)
	orig := *s.RefreshInterval
	err := settings.VerifyRange(
		&s.RefreshInterval, s.MinRefreshInterval, s.MaxRefreshInterval,
	)
	var oore *settings.OutOfRangeError[settings.Duration]
	switch {
	case errors.As(err, &oore):
		log.Warn(
			context.Background(), "refresh interval is clamped",
			log.Valuer("given", orig),
			log.Valuer("used", *s.RefreshInterval),
		)
	case err != nil:
		return fmt.Errorf(
			"VerifyRange(refresh interval=%v, minb=%v, maxb=%v): %w",
			orig, *s.MinRefreshInterval, *s.MaxRefreshInterval, err,
		)
	}
	return nil
}

// Level returns the parsed initial isolation level.
func (s Session) Level() model.IsolationLevel {
	return s.level
}

// Interval returns the clamped refresh interval.
func (s Session) Interval() time.Duration {
	return time.Duration(*s.RefreshInterval)
}

// NewUseCase instantiates a session use case over the p pool.
func (s Session) NewUseCase(
	p repo.SessionPool, opts ...sessionuc.Option,
) (*sessionuc.UseCase, error) {
	opts = append(opts, sessionuc.WithIsolationLevel(s.level))
	return sessionuc.New(p, opts...)
}

// NewRefresher instantiates a clients listing refresher which watches
// the w session.
func (s Session) NewRefresher(
	uc *clientsuc.UseCase, w clientsuc.Watcher,
) *clientsuc.Refresher {
	return clientsuc.NewRefresher(uc, w, *s.RefreshWhileDirty)
}
