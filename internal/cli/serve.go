package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opsmetrics/doratracker/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve computed metrics over HTTP",
	Long: `Serve starts an HTTP server that computes metrics on demand from the
configured source. GET /api/v1/metrics?days=N returns the four metrics
with their classifications as JSON.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "address to listen on")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source, cleanup, err := buildSource(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", serveHost, servePort)
	return server.New(source).ListenAndServe(ctx, addr)
}
