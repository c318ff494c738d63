// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/momeni/clientstx/pkg/core/usecase/initdbuc"
	"github.com/spf13/cobra"
)

const credsRenewalMessage = `
The admin role password is read from the .pgpass file in the pass-dir
folder (as specified in the config file) and both of the admin and
normal role passwords are renewed. New passwords are written to the
.pgpass.new file first and replace the .pgpass file after the database
changes are committed.`

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management actions",
	Long: `Database management actions can be chosen by sub-commands.
For fresh installation in a development or production environment,
the init-dev or init-prod may be used.`,
}

func initDB(
	cmd *cobra.Command, f func(*initdbuc.UseCase, context.Context) error,
) error {
	c, _, err := loadConfig()
	if err != nil {
		return err
	}
	uc := initdbuc.New(c.Database)
	if err = f(uc, cmd.Context()); err != nil {
		return fmt.Errorf("initializing DB: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(dbCmd)
}
