package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/alebbueno/pedidos-saas-sub000/internal/address"
)

var parseAddressCmd = &cobra.Command{
	Use:   "parse-address <address>",
	Short: "Split a free-text delivery address into its fields",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd.OutOrStdout(), address.Parse(strings.Join(args, " ")))
	},
}

func init() {
	rootCmd.AddCommand(parseAddressCmd)
}
