package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tourchat/tourchat-go/internal/agent"
	"github.com/tourchat/tourchat-go/internal/logging"
	"github.com/tourchat/tourchat-go/internal/provider"
	"github.com/tourchat/tourchat-go/internal/server"
	"github.com/tourchat/tourchat-go/internal/tracing"
)

// NewServeCmd constructs the `tourchat serve` command, which starts the HTTP
// API server.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tourchat HTTP API server",
		Long: `Start the tourchat HTTP server.

The server exposes POST /api/chat for conversation turns, liveness and
readiness probes, and Prometheus metrics on /metrics. Set TOURCHAT_API_KEY
to require Bearer authentication on the chat endpoint.

Examples:
  tourchat serve
  tourchat serve --port 9090
  MODEL_PROVIDER=azure tourchat serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}

			be, err := buildBackend(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer be.Close()

			subAgents, err := buildSubAgents(ctx, be.Catalog)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			history, closeHistory := openHistory(log)
			defer closeHistory()

			controller, err := agent.New(ctx, &agent.Config{
				ChatModel: chatModel,
				SubAgents: subAgents,
				History:   history,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to initialise agent: %w", err)
			}

			pingers := []server.Pinger{
				be.Vectors,
				server.NewDynamoPinger(be.Dynamo, getEnvOrDefault("TOURCHAT_TOURS_TABLE", "tours")),
			}

			srv, err := server.New(controller, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("TOURCHAT_API_KEY"),
			}, prometheus.DefaultRegisterer)
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
