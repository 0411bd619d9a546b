package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/target/mmk-routeguard/config"
	"github.com/target/mmk-routeguard/internal/bootstrap"
	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	"github.com/target/mmk-routeguard/internal/domain/navigation"
	"github.com/target/mmk-routeguard/internal/service"
)

// withState opens the configured store, hydrates an AuthState over it and
// runs fn. The store is closed afterwards.
func withState(cmdCtx *commandContext, fn func(state *service.AuthState) error) (err error) {
	store, err := cmdCtx.openStore(cmdCtx.Ctx, &cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
		}
	}()

	state, err := service.NewAuthState(cmdCtx.Ctx, service.AuthStateOptions{
		Store:  store.KV,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	return fn(state)
}

type sessionView struct {
	Authenticated bool               `json:"authenticated"`
	Token         string             `json:"token,omitempty"`
	Role          domainauth.Role    `json:"role,omitempty"`
	Profile       domainauth.Profile `json:"profile,omitempty"`
}

func newSessionView(s domainauth.Snapshot, showToken bool) sessionView {
	v := sessionView{Authenticated: s.IsAuthenticated, Role: s.Role, Profile: s.Profile}
	switch {
	case s.Token == "":
	case showToken:
		v.Token = s.Token
	default:
		v.Token = redact(s.Token)
	}
	return v
}

// redact keeps the first four characters of a token.
func redact(token string) string {
	const keep = 4
	if len(token) <= keep {
		return strings.Repeat("*", len(token))
	}
	return token[:keep] + strings.Repeat("*", 8)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runSession(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("session", flag.ContinueOnError)
	showToken := fs.Bool("show-token", false, "print the full session token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withState(cmdCtx, func(state *service.AuthState) error {
		return writeJSON(cmdCtx.Out, newSessionView(state.Read(), *showToken))
	})
}

type loginOptions struct {
	Token   string
	Role    domainauth.Role
	Profile domainauth.Profile
}

func parseLoginFlags(args []string) (loginOptions, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	token := fs.String("token", "", "session token (required)")
	role := fs.String("role", "", "user, admin or super_admin (required)")
	profile := fs.String("profile", "{}", "user profile as a JSON object")
	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}

	opts := loginOptions{Token: strings.TrimSpace(*token), Role: domainauth.Role(strings.TrimSpace(*role))}
	if opts.Token == "" {
		return loginOptions{}, errors.New("-token is required")
	}
	if !opts.Role.IsValid() {
		return loginOptions{}, fmt.Errorf("-role %q is not one of user, admin, super_admin", *role)
	}
	if err := json.Unmarshal([]byte(*profile), &opts.Profile); err != nil {
		return loginOptions{}, fmt.Errorf("-profile must be a JSON object: %w", err)
	}
	return opts, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(args)
	if err != nil {
		return err
	}

	return withState(cmdCtx, func(state *service.AuthState) error {
		if err := state.EstablishSession(cmdCtx.Ctx, opts.Token, opts.Role, opts.Profile); err != nil {
			return err
		}
		return writeJSON(cmdCtx.Out, newSessionView(state.Read(), false))
	})
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	return withState(cmdCtx, func(state *service.AuthState) error {
		if err := state.ClearSession(cmdCtx.Ctx); err != nil {
			return err
		}
		return writef(cmdCtx.Out, "session cleared\n")
	})
}

type checkView struct {
	Route    string            `json:"route"`
	Outcome  string            `json:"outcome"`
	Target   string            `json:"target,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Location string            `json:"location,omitempty"`
}

func runCheck(cmdCtx *commandContext, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: check <RouteName>")
	}

	return withState(cmdCtx, func(state *service.AuthState) error {
		guard := service.NewNavigationGuard(service.NavigationGuardOptions{State: state, Logger: cmdCtx.Logger})
		to, out, err := guard.CheckName(cmdCtx.Ctx, args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmdCtx.Out, checkView{
			Route:    to.Name,
			Outcome:  out.Kind.String(),
			Target:   out.Target,
			Params:   out.Params,
			Location: guard.RedirectURL(out),
		})
	})
}

func runRoutes(cmdCtx *commandContext, _ []string) error {
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
	if err := writef(tw, "NAME\tPATH\tAUTH\tROLES\n"); err != nil {
		return err
	}
	for _, r := range navigation.DefaultRoutes().All() {
		roles := make([]string, 0, len(r.Roles))
		for _, role := range r.Roles {
			roles = append(roles, role.String())
		}
		if err := writef(tw, "%s\t%s\t%t\t%s\n", r.Name, r.Path, r.RequiresAuth, strings.Join(roles, ",")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runMigrations(cmdCtx *commandContext, _ []string) error {
	if cmdCtx.Config.Storage.Backend != config.StoragePostgres {
		return fmt.Errorf("migrate requires STORAGE_BACKEND=postgres (got %q)", cmdCtx.Config.Storage.Backend)
	}

	db, err := bootstrap.ConnectDB(cmdCtx.Ctx, cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")
	if migrateErr := bootstrap.RunMigrations(cmdCtx.Ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}
	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}
