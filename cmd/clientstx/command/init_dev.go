// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"github.com/momeni/clientstx/pkg/core/usecase/initdbuc"
	"github.com/spf13/cobra"
)

var initDevCmd = &cobra.Command{
	Use:   "init-dev",
	Short: "Initialize database contents with development suitable data",
	Long: `Initialize database contents with development suitable data.
It is similar to the init-prod action, but a few clients and phones
are inserted too, so the editor may be tried out right away.
` + credsRenewalMessage,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return initDB(cmd, (*initdbuc.UseCase).InitDev)
	},
	Args: cobra.NoArgs,
}

func init() {
	dbCmd.AddCommand(initDevCmd)
}
