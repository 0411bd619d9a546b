package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/target/mmk-routeguard/config"
	"github.com/target/mmk-routeguard/internal/adapters/devauth"
	"github.com/target/mmk-routeguard/internal/adapters/remoteauth"
	"github.com/target/mmk-routeguard/internal/apiclient"
	"github.com/target/mmk-routeguard/internal/ports"
)

// AuthConfig contains dependencies for building the authenticator.
type AuthConfig struct {
	Config config.AuthConfig
	API    config.APIConfig
	// Client is the API client used in remote mode. Built from API when nil.
	Client *apiclient.Client
	Tokens ports.TokenSource
	Logger *slog.Logger
}

// BuildAuthenticator selects the authenticator for the configured AUTH_MODE.
func BuildAuthenticator(cfg AuthConfig) (ports.Authenticator, error) { //nolint:ireturn // mode picks the implementation
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Config.Mode {
	case config.AuthModeRemote:
		client := cfg.Client
		if client == nil {
			c, err := BuildAPIClient(cfg.API, cfg.Tokens, logger)
			if err != nil {
				return nil, err
			}
			client = c
		}
		logger.Info("using remote authentication", "login_path", cfg.API.LoginPath)
		a, err := remoteauth.NewAuthenticator(remoteauth.Config{Client: client, LoginPath: cfg.API.LoginPath})
		if err != nil {
			return nil, err
		}
		return a, nil
	case config.AuthModeDev, "":
		logger.Warn("using dev authentication; do not run this in production", "role", cfg.Config.DevRole())
		a, err := devauth.NewAuthenticator(devauth.Config{
			Secret: cfg.Config.DevAuth.Secret,
			Role:   cfg.Config.DevRole(),
			UserID: cfg.Config.DevAuth.UserID,
			Name:   cfg.Config.DevAuth.Name,
			Issuer: cfg.Config.DevAuth.Issuer,
			TTL:    cfg.Config.DevAuth.TTL,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Config.Mode)
	}
}

// BuildAPIClient builds the outbound API client. Tokens supplies the bearer
// credential per request; it is normally the auth state.
func BuildAPIClient(cfg config.APIConfig, tokens ports.TokenSource, logger *slog.Logger) (*apiclient.Client, error) {
	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Tokens:  tokens,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build api client: %w", err)
	}
	return client, nil
}
