// cmd/uigen/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"uigen/client"
	"uigen/internal/logging"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	logLevel  string
	logger    = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "uigen",
	Short: "uigen drives the UI generation file server",
	Long: `uigen talks to a running uigen server. It replays editor tool calls,
runs generation prompts, and moves projects between the virtual file
system and a directory on disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.NewLogger(logging.Options{Level: logLevel, Environment: "development"})
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l
		return nil
	},
}

func init() {
	defaultServer := os.Getenv("UIGEN_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "server base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newExecCmd(), newGenerateCmd(), newWatchCmd())
	rootCmd.AddCommand(newProjectsCmd(), newShowCmd(), newExportCmd(), newDeleteCmd())
}

func newClient() *client.Client {
	return client.New(serverURL)
}

// signalContext is cancelled on the first interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
