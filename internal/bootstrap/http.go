package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/mmk-routeguard/config"
	httpx "github.com/target/mmk-routeguard/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Store    *Store
	Logger   *slog.Logger

	// Listener overrides HTTP.Addr (tests).
	Listener net.Listener
	// Ready, when set, receives the bound address once the server listens.
	Ready chan<- string
}

// BuildHandler builds the router from the service container.
func BuildHandler(cfg *HTTPServerConfig) http.Handler {
	var health httpx.HealthCheck
	if cfg.Store != nil && cfg.Store.Ping != nil {
		health = cfg.Store.Ping
	}
	return httpx.NewRouter(httpx.RouterServices{
		Login:       cfg.Services.Login,
		Guard:       cfg.Services.Guard,
		HealthCheck: health,
		IsDev:       cfg.Config.IsDev,
		Logger:      cfg.Logger,
	})
}

// RunHTTP serves until ctx is cancelled, then shuts the server down gracefully.
func RunHTTP(ctx context.Context, cfg *HTTPServerConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("http server config, app config and services are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpCfg := cfg.Config.HTTP

	ln := cfg.Listener
	if ln == nil {
		var lc net.ListenConfig
		l, err := lc.Listen(ctx, "tcp", httpCfg.Addr)
		if err != nil {
			return err
		}
		ln = l
	}

	server := &http.Server{
		Handler:      BuildHandler(cfg),
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	if !isLoopbackAddr(ln.Addr().String()) {
		logger.Warn("HTTP server is reachable beyond loopback; every client shares the one operator session",
			"addr", ln.Addr().String())
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if cfg.Ready != nil {
			cfg.Ready <- ln.Addr().String()
		}
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpCfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("HTTP server stopped")
		return nil
	})
	return group.Wait()
}

// isLoopbackAddr reports whether a host:port only accepts local connections.
// An empty host (":8080") binds every interface.
func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
