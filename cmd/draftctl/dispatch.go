package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alebbueno/pedidos-saas-sub000/internal/dispatch"
)

var (
	dispatchConversation string
	dispatchArgs         string
	dispatchKey          string
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <tool>",
	Short: "Run a tool call against a stored conversation",
	Long: `Loads the conversation, runs list_products, create_draft_order or
confirm_order with the given JSON arguments and prints the result and the
updated conversation context. Writes go to the configured tables.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{dispatch.ToolListProducts, dispatch.ToolCreateDraftOrder, dispatch.ToolConfirmOrder},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !json.Valid([]byte(dispatchArgs)) {
			return fmt.Errorf("--args is not valid JSON")
		}

		ctx := context.Background()
		a, logger, err := buildApp(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer func() { _ = a.Close(ctx) }()

		conv, err := a.Conversations.Get(ctx, dispatchConversation)
		if err != nil {
			return fmt.Errorf("load conversation %s: %w", dispatchConversation, err)
		}

		result, cc, err := a.Dispatcher.Dispatch(ctx, dispatch.FromConversation(conv), dispatch.ToolCall{
			Name:           args[0],
			Arguments:      json.RawMessage(dispatchArgs),
			IdempotencyKey: dispatchKey,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"result": result, "conversation": cc})
	},
}

func init() {
	rootCmd.AddCommand(dispatchCmd)

	dispatchCmd.Flags().StringVar(&dispatchConversation, "conversation", "", "Conversation id")
	dispatchCmd.Flags().StringVar(&dispatchArgs, "args", "{}", "Tool arguments as a JSON object")
	dispatchCmd.Flags().StringVar(&dispatchKey, "idempotency-key", "", "Idempotency key for confirm_order")
	_ = dispatchCmd.MarkFlagRequired("conversation")
}
