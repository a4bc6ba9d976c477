package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/roadaudit/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the segment inventory for review",
	Long:  "Starts the review API over the segment inventory: list, inspect, delete, re-clip, and backup/undo. Re-clip needs a boundary source configured; without one the endpoint answers 503.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		var opts []server.Option
		if cfg.Boundary.GeoJSONPath != "" || cfg.Boundary.ShapefilePath != "" {
			b, err := loadBoundary(cfg)
			if err != nil {
				return eris.Wrap(err, "serve: load boundary")
			}
			opts = append(opts, server.WithBoundary(b))
		} else {
			zap.L().Warn("serve: no boundary configured, re-clip disabled")
		}

		srv := server.New(cfg.Data.SegmentsPath, opts...)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srv.Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			httpSrv.Shutdown(ctx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.String("inventory", cfg.Data.SegmentsPath),
		)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
