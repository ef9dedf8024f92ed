package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"elearning-platform/backend/internal/apigateway"
	"elearning-platform/backend/internal/config"
	"elearning-platform/backend/internal/identity"
	"elearning-platform/backend/internal/telemetry"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"
)

var identityConstructor identity.Constructor = identity.FirebaseConstructor

func newRootCommand(baseLogger pslog.Logger, build identity.Constructor) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "elearning-server",
		Short:         "E-learning backend API with optional Firebase Admin features",
		SilenceErrors: true,
		Example: `
  # Serve on the default port 3000 using ./serviceAccountKey.json when present
  elearning-server

  # Custom port and key location
  PORT=8080 elearning-server --credentials /run/secrets/serviceAccountKey.json

  # Expose Prometheus metrics on a separate listener
  elearning-server --metrics-listen 127.0.0.1:9100
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			v, err := config.NewViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logger := baseLogger
			if level, ok := pslog.ParseLevel(cfg.LogLevel); ok {
				logger = logger.LogLevel(level)
			}
			return run(cmd.Context(), cfg, logger, build, nil)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

// run bootstraps the admin client, then serves until ctx is cancelled. A nil
// ln makes run listen on cfg.Addr() itself.
func run(ctx context.Context, cfg config.Config, logger pslog.Logger, build identity.Constructor, ln net.Listener) error {
	lifecycle := logger.With("sys", "server.lifecycle")
	if cfg.LogLevel == "debug" || cfg.LogLevel == "trace" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	tracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, logger.With("sys", "telemetry"))
	if err != nil {
		return err
	}
	metrics := telemetry.NewMetrics()
	metricsServer, err := telemetry.StartMetricsServer(cfg.MetricsListen, metrics, logger.With("sys", "telemetry"))
	if err != nil {
		_ = tracing.Shutdown(context.Background())
		return err
	}

	// Bootstrap completes before the listener accepts anything, so no request
	// can observe a half-initialized capability.
	admin := identity.Bootstrap(ctx, cfg.CredentialsPath, build, logger.With("sys", "server.bootstrap"))
	metrics.SetAdminReady(admin.Ready())

	router := apigateway.SetupRouter(apigateway.RouterConfig{
		Admin:       admin,
		Metrics:     metrics,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})
	srv := &http.Server{
		Handler:           apigateway.NewHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ln == nil {
		ln, err = net.Listen("tcp", cfg.Addr())
		if err != nil {
			_ = metricsServer.Shutdown(context.Background())
			_ = tracing.Shutdown(context.Background())
			return err
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	lifecycle.Info("server is running", "address", "http://"+displayAddr(ln.Addr()), "admin_ready", admin.Ready())

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		lifecycle.Info("shutting down")
		shutdownCtx, cancel := shutdownContext(cfg.ShutdownTimeout)
		err = srv.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			lifecycle.Error("shutdown failed", "error", err)
		}
		<-serveErr
	}

	cleanupCtx, cancel := shutdownContext(cfg.ShutdownTimeout)
	defer cancel()
	_ = metricsServer.Shutdown(cleanupCtx)
	_ = tracing.Shutdown(cleanupCtx)

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	lifecycle.Info("server stopped")
	return nil
}

func shutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func displayAddr(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
