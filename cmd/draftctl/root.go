package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alebbueno/pedidos-saas-sub000/internal/app"
	"github.com/alebbueno/pedidos-saas-sub000/internal/aws"
	"github.com/alebbueno/pedidos-saas-sub000/internal/config"
	"github.com/alebbueno/pedidos-saas-sub000/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "draftctl",
	Short: "Operator tools for the order-draft engine",
	Long: `draftctl inspects how the order-draft engine reads customer input:
it parses delivery addresses, resolves product references against a
restaurant catalog and runs tool calls against a stored conversation.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (defaults to the usual search paths)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildApp loads configuration and wires the stores for commands that need them.
func buildApp(ctx context.Context) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	clients, err := aws.NewAWSClients(ctx, cfg.AWS)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init aws clients: %w", err)
	}
	a, err := app.New(ctx, cfg, clients, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
