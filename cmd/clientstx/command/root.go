// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands for the clientstx
// project. Commands are organized using the cobra library.
// The root command starts the web server itself while the "db"
// sub-command can be used for the database initialization actions and
// the "clients" sub-command lists the committed clients.
//
//	./clientstx [-c /path/of/config.yaml]           # start web server
//	./clientstx db init-dev [-c /path/of/config.yaml]
//	./clientstx db init-prod [-c /path/of/config.yaml]
//	./clientstx clients list [--json] [-c /path/of/config.yaml]
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/momeni/clientstx/pkg/adapter/config"
	"github.com/momeni/clientstx/pkg/adapter/restful/gin/routes"
	"github.com/momeni/clientstx/pkg/core/log"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds the graceful shutdown of the web server and
// the rollback of a pending transaction.
const shutdownTimeout = 10 * time.Second

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "clientstx",
	Short: "Clients and phones editor with manual transactions",
	Long: `A clients and phones editor which demonstrates manually
managed database transactions and their isolation levels.
All edits are kept in one pending transaction of a pinned connection
until they are committed or rolled back through the REST API, so their
visibility to other connections may be examined with each one of the
read uncommitted, read committed, repeatable read, and serializable
isolation levels. The latest committed listing is refreshed
periodically and after each commit or rollback.`,
	RunE: startWebServer,
	Args: cobra.NoArgs,
}

// loadConfig loads the configuration file and installs its logger as
// the default slog logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	lg, err := c.Logging.NewLogger(os.Stderr)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	slog.SetDefault(lg)
	return c, lg, nil
}

func startWebServer(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(
		cmd.Context(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()
	c, lg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info(ctx, "configs are loaded", slog.String("path", cfgPath))
	p, err := c.Database.SessionPool(ctx)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	e := c.Gin.NewEngine(lg)
	s, err := routes.Register(ctx, e, p, c)
	if err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}
	srv := &http.Server{
		Addr:              c.Gin.Address,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "web server is started", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info(ctx, "shutting down")
	}
	sctx, cancel := context.WithTimeout(
		context.WithoutCancel(ctx), shutdownTimeout,
	)
	defer cancel()
	err = errors.Join(
		ignoreClosed(err),
		ignoreClosed(srv.Shutdown(sctx)),
		s.Shutdown(sctx),
	)
	if err != nil {
		return fmt.Errorf("running web server: %w", err)
	}
	return nil
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(func() {
		cfgPath = config.Path(cfgPath)
	})
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}
