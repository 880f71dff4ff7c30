package commands

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/tourchat/tourchat-go/internal/agent"
	"github.com/tourchat/tourchat-go/internal/logging"
	"github.com/tourchat/tourchat-go/internal/provider"
	"github.com/tourchat/tourchat-go/internal/tracing"
)

// NewChatCmd constructs the `tourchat chat` command, an interactive terminal
// session with the tour assistant.
func NewChatCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the tour assistant",
		Long: `Start an interactive chat session with the tour assistant, or send a
single message and print the reply.

The assistant can search tours by destination, retrieve heritage-site
guides, register you for a tour, and list your registrations.

Examples:
  tourchat chat
  tourchat chat "what tours are available in Hue under 500,000 VND?"
  tourchat chat --session my-trip "register me for tour hue-02, phone 0912345678"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("chat: failed to initialise model provider: %w", err)
			}

			be, err := buildBackend(ctx, log)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			defer be.Close()

			subAgents, err := buildSubAgents(ctx, be.Catalog)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}

			history, closeHistory := openHistory(log)
			defer closeHistory()

			controller, err := agent.New(ctx, &agent.Config{
				ChatModel: chatModel,
				SubAgents: subAgents,
				History:   history,
			})
			if err != nil {
				return fmt.Errorf("chat: failed to initialise agent: %w", err)
			}

			if session == "" {
				session = newSessionID()
			}

			// Single-shot mode: message given as an argument.
			if len(args) > 0 {
				reply, err := controller.Chat(ctx, session, strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Println(reply)
				return nil
			}

			// Interactive mode.
			fmt.Printf("tourchat — session %s (type 'exit' to quit)\n", session)
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					break
				}

				reply, err := controller.Chat(ctx, session, line)
				if err != nil {
					return err
				}
				fmt.Println(reply)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Session ID for conversation history (default: random)")

	return cmd
}

// newSessionID returns a random 8-byte hex session identifier.
func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "default"
	}
	return hex.EncodeToString(b)
}
