// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/momeni/clientstx/pkg/core/repo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Pool represents a database connection pool. Its Conn method lends
// a connection for the duration of a handler, while its Session method
// pins a connection until the returned Session is closed.
type Pool struct {
	*gorm.DB
}

// NewPool creates a connection pool for the url database and tries to
// acquire one connection in order to verify the connection information.
func NewPool(ctx context.Context, url string) (*Pool, error) {
	gdb, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: newLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open: %w", err)
	}
	pool := &Pool{DB: gdb}
	err = pool.Conn(ctx, NoOpConnHandler)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("testing connection: %w", err)
	}
	return pool, nil
}

// newLogger creates a GORM logger which writes through the default
// slog handler at the warning level.
func newLogger() logger.Interface {
	w := slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn)
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
		// Set to false in order to log with replaced vars
		ParameterizedQueries: true,
	})
}

type ConnHandler = repo.ConnHandler

func NoOpConnHandler(context.Context, repo.Conn) error {
	return nil
}

// Conn acquires a connection and passes it to f. The connection is
// returned to the pool when f returns.
func (p *Pool) Conn(ctx context.Context, f ConnHandler) error {
	return p.DB.WithContext(ctx).Connection(func(c *gorm.DB) error {
		cc := &Conn{DB: c}
		return f(ctx, cc)
	})
}

// Session takes a connection out of the pool and wraps it as a
// Session. The connection is kept until the Session is closed.
func (p *Pool) Session(ctx context.Context) (repo.Session, error) {
	db, err := p.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("obtaining sql.DB: %w", err)
	}
	raw, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: raw}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 p.DB.Logger,
	})
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("wrapping pinned connection: %w", err)
	}
	return &Session{Conn: &Conn{DB: gdb}, raw: raw}, nil
}

// Close closes all idle connections of the pool. Sessions must be
// closed beforehand.
func (p *Pool) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
