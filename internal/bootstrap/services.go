package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/target/mmk-routeguard/config"
	"github.com/target/mmk-routeguard/internal/apiclient"
	"github.com/target/mmk-routeguard/internal/ports"
	"github.com/target/mmk-routeguard/internal/service"
)

// ServiceContainer holds all initialized services.
type ServiceContainer struct {
	State *service.AuthState
	Login *service.LoginService
	Guard *service.NavigationGuard
	// API is the outbound client carrying the session token; nil when API_BASE_URL is unset.
	API           *apiclient.Client
	Observability ObservabilityContainer
}

// ServiceDeps contains dependencies for creating services.
type ServiceDeps struct {
	Config *config.AppConfig
	Store  ports.KeyValueStore
	Logger *slog.Logger

	// Optional: authenticator override (tests).
	Authenticator ports.Authenticator
}

// NewServices hydrates the auth state from the store and wires the services around it.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	obs := buildObservability(logger, cfg.Observability)

	state, err := service.NewAuthState(ctx, service.AuthStateOptions{
		Store:         deps.Store,
		Logger:        logger,
		RefreshOnRead: cfg.Storage.RefreshOnRead,
	})
	if err != nil {
		return nil, errors.Join(err, obs.Close())
	}

	var api *apiclient.Client
	if cfg.API.IsConfigured() {
		api, err = BuildAPIClient(cfg.API, state, logger)
		if err != nil {
			return nil, errors.Join(err, obs.Close())
		}
	}

	authn := deps.Authenticator
	if authn == nil {
		authn, err = BuildAuthenticator(AuthConfig{
			Config: cfg.Auth,
			API:    cfg.API,
			Client: api,
			Tokens: state,
			Logger: logger,
		})
		if err != nil {
			return nil, errors.Join(err, obs.Close())
		}
	}

	return &ServiceContainer{
		State: state,
		Login: service.NewLoginService(service.LoginServiceOptions{
			Authenticator: authn,
			State:         state,
			Metrics:       obs.Navigation,
			Logger:        logger,
		}),
		Guard: service.NewNavigationGuard(service.NavigationGuardOptions{
			State:   state,
			Metrics: obs.Navigation,
			Logger:  logger,
		}),
		API:           api,
		Observability: obs,
	}, nil
}
