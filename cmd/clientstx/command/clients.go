// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/momeni/clientstx/pkg/adapter/db/postgres/clientsrp"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/momeni/clientstx/pkg/core/usecase/clientsuc"
	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Clients inspection actions",
}

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the committed clients and their phones",
	Long: `List the committed clients and their phones, one row for each
client and phone pair. Clients without phones are listed once.`,
	RunE: listClients,
	Args: cobra.NoArgs,
}

func listClients(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, _, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := c.Database.SessionPool(ctx)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	suc, err := c.Session.NewUseCase(p)
	if err != nil {
		return fmt.Errorf("creating session use case: %w", err)
	}
	defer suc.Shutdown(ctx)
	cs, err := clientsuc.New(suc, clientsrp.New()).ListAll(ctx)
	if err != nil {
		return err
	}
	return printClients(cmd.OutOrStdout(), cs, listJSON)
}

func printClients(w io.Writer, cs []model.Client, asJSON bool) error {
	if asJSON {
		if cs == nil {
			cs = []model.Client{}
		}
		return json.NewEncoder(w).Encode(cs)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NOMBRE\tAPELLIDO\tDIRECCION\tTELEFONO")
	for _, c := range cs {
		fmt.Fprintf(
			tw, "%s\t%s\t%s\t%s\n",
			c.Name, c.LastName, c.Address, c.PhoneOr("-"),
		)
	}
	return tw.Flush()
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print as JSON")
	clientsCmd.AddCommand(listCmd)
	rootCmd.AddCommand(clientsCmd)
}
