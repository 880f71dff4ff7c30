// Package commands defines all Cobra CLI commands for the tourchat binary.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tourchat/tourchat-go/internal/audit"
	"github.com/tourchat/tourchat-go/internal/config"
	"github.com/tourchat/tourchat-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tourchat",
		Short: "tourchat — a conversational assistant for tour search and booking",
		Long: `tourchat is an LLM-powered assistant for a travel tour catalog.

It answers natural language questions about available tours, retrieves
heritage-site guides for destinations, and registers users for tours by
phone number. Tour data lives in DynamoDB, semantic search runs against
Qdrant, and heritage guides are extracted from PDFs in S3.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.tourchat/config.yaml).
See 'tourchat --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load .env if present so local development needs no exports.
			_ = godotenv.Load()

			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.tourchat/config.yaml)")

	root.AddCommand(
		NewChatCmd(),
		NewServeCmd(),
		NewIndexCmd(),
		NewVersionCmd(),
	)

	return root
}
