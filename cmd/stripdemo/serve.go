package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stripdemo/internal/slogutil"
	"stripdemo/internal/static"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the front-end asset directory",
	Long: `Serve files from the asset directory over HTTP. GET and HEAD requests
resolve to files under the directory; everything else answers 404.

The port comes from --port, then PORT, then the config file, then 3000.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "Host to bind to (default: all interfaces)")
	serveCmd.Flags().Int("port", 0, "Port to listen on")
	serveCmd.Flags().String("dir", "", "Asset directory to serve")
	serveCmd.Flags().String("prefix", "", "URL path prefix to mount assets under")

	_ = v.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = v.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("server.assetDir", serveCmd.Flags().Lookup("dir"))
	_ = v.BindPFlag("server.prefix", serveCmd.Flags().Lookup("prefix"))
}

func runServe(cmd *cobra.Command, args []string) error {
	result, err := loadConfig()
	if err != nil {
		return err
	}

	factory := slogutil.NewLoggerFactory(result.Config, logLevel, cmd.ErrOrStderr())
	defer factory.Close()

	logger, err := factory.ServerLogger()
	if err != nil {
		logger.Warn("Log file unavailable, logging to stderr", "error", err.Error())
	}
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if result.ConfigPath != "" {
		logger.Debug("Loaded config", "path", result.ConfigPath)
	}

	server, err := static.NewServer(result.Config.Server, logger)
	if err != nil {
		return err
	}

	ln, err := server.Listen()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Serving %s on http://%s\n", server.Root(), ln.Addr())
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Serve(ln)
	}()

	ctx := cmd.Context()
	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err.Error())
			return err
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", "error", err.Error())
			return err
		}
		logger.Info("Server stopped gracefully")
	}

	return nil
}
