// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"github.com/momeni/clientstx/pkg/core/usecase/initdbuc"
	"github.com/spf13/cobra"
)

var initProdCmd = &cobra.Command{
	Use:   "init-prod",
	Short: "Initialize database contents with production suitable data",
	Long: `Initialize database contents with production suitable data.
The clientstx schema is dropped (if it exists and is empty) and created
again, the normal role is created (if it does not exist) and granted
the schema privileges, and then the Cliente and Telefono tables are
created by the normal role and left empty.
` + credsRenewalMessage,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return initDB(cmd, (*initdbuc.UseCase).InitProd)
	},
	Args: cobra.NoArgs,
}

func init() {
	dbCmd.AddCommand(initProdCmd)
}
