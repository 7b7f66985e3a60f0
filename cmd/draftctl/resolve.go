package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

var resolveRestaurant string

var resolveProductCmd = &cobra.Command{
	Use:   "resolve-product <reference>",
	Short: "Resolve a product reference against a restaurant catalog",
	Long: `Runs the same resolution cascade used by create_draft_order and prints the
canonical product id together with the strategy that matched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, logger, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer func() { _ = a.Close(ctx) }()

		res, err := a.Resolver.Resolve(ctx, resolveRestaurant, strings.Join(args, " "))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	rootCmd.AddCommand(resolveProductCmd)

	resolveProductCmd.Flags().StringVar(&resolveRestaurant, "restaurant", "", "Restaurant id")
	_ = resolveProductCmd.MarkFlagRequired("restaurant")
}
