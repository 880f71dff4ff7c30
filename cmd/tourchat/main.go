// Command tourchat is the entry point for the conversational tour assistant.
// It provides a CLI interface (via Cobra) and an optional HTTP server for
// chat-based tour search, heritage guides, and registration.
package main

import (
	"fmt"
	"os"

	"github.com/tourchat/tourchat-go/cmd/tourchat/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
