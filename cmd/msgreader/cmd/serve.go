package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/msgreader/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP decoding API",
	Long: `Run an HTTP server that decodes uploaded .msg files.

Endpoints:
  GET  /health
  POST /api/v1/messages                      decoded fields as JSON
  POST /api/v1/messages/attachments/{index}  raw attachment data

Uploads are multipart/form-data with the message in the "file" field.
Configure the listener in config.toml:
  [server]
  api_port = 8080
  bind_addr = "127.0.0.1"
  api_key = "..."          # required for non-loopback addresses

Use Ctrl+C to stop the server gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Server.ValidateSecure(); err != nil {
		return err
	}

	apiServer := api.NewServer(cfg, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	bindAddr := cfg.Server.BindAddr
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "msgreader API started\n")
	fmt.Fprintf(out, "  Listening on: http://%s\n", net.JoinHostPort(bindAddr, strconv.Itoa(cfg.Server.APIPort)))
	fmt.Fprintf(out, "  Upload limit: %d bytes\n", uploadLimit())
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Press Ctrl+C to stop.")

	var runErr error
	select {
	case err := <-serverErr:
		logger.Error("API server error", "error", err)
		runErr = fmt.Errorf("api server: %w", err)
	case <-cmd.Context().Done():
		logger.Info("received shutdown signal")
		fmt.Fprintln(out, "\nShutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}
	return runErr
}

func uploadLimit() int64 {
	if cfg.Server.MaxUploadBytes > 0 {
		return cfg.Server.MaxUploadBytes
	}
	return cfg.Parse.MaxFileBytes
}
