// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scheduler runs periodic jobs, such as the clients listing
// refresh, on top of the github.com/robfig/cron/v3 module.
// A job which is still running when its next activation arrives is
// skipped and panics of jobs are recovered and logged.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/momeni/clientstx/pkg/core/log"
	"github.com/robfig/cron/v3"
)

// Job is a periodic task. Its context is canceled by Stop.
type Job func(ctx context.Context) error

// Scheduler owns a cron instance and the context of its jobs.
type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// New creates a stopped Scheduler.
func New() *Scheduler {
	l := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every registers j to be run each d interval and returns its entry
// identifier. The name is used for logging.
func (s *Scheduler) Every(
	d time.Duration, name string, j Job,
) (cron.EntryID, error) {
	if d <= 0 {
		return 0, fmt.Errorf("non-positive interval: %v", d)
	}
	if j == nil {
		return 0, errors.New("job is nil")
	}
	id := s.cron.Schedule(cron.Every(d), cron.FuncJob(func() {
		if err := j(s.ctx); err != nil {
			log.Warn(
				s.ctx, "scheduled job failed",
				slog.String("job", name), log.Err("err", err),
			)
		}
	}))
	log.Info(
		s.ctx, "job is scheduled",
		slog.String("job", name), slog.Duration("every", d),
	)
	return id, nil
}

// Next returns the next activation time of the id entry, or a zero
// time if it is not scheduled.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// Start runs the scheduler in its own goroutine. It is a no-op if the
// scheduler is already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop cancels the context of the running jobs and waits for them to
// return, or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	if !s.running {
		return nil
	}
	s.running = false
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger forwards the cron logs to the default slog logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append(keysAndValues, "err", err)...)
}
