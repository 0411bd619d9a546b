package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/mmk-routeguard/internal/domain/navigation"
	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/observability/metrics"
	"github.com/target/mmk-routeguard/internal/ports"
)

// NavigationGuardOptions groups dependencies for NavigationGuard.
type NavigationGuardOptions struct {
	State   ports.StateSource
	Routes  *navigation.Routes
	Metrics *metrics.NavigationMetrics
	Logger  *slog.Logger
	// Now is overridable for tests.
	Now func() time.Time
}

// NavigationGuard reads the auth state and runs navigation.Decide before
// every route transition.
type NavigationGuard struct {
	state   ports.StateSource
	routes  *navigation.Routes
	metrics *metrics.NavigationMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewNavigationGuard constructs a new NavigationGuard. Routes default to
// navigation.DefaultRoutes.
func NewNavigationGuard(opts NavigationGuardOptions) *NavigationGuard {
	routes := opts.Routes
	if routes == nil {
		routes = navigation.DefaultRoutes()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &NavigationGuard{
		state:   opts.State,
		routes:  routes,
		metrics: opts.Metrics,
		logger:  logger.With("component", "navigation_guard"),
		now:     now,
	}
}

// Routes returns the route table the guard resolves names against.
func (g *NavigationGuard) Routes() *navigation.Routes { return g.routes }

// Check decides a navigation from one route to another. A failure to read
// the auth state is returned unchanged in kind and no outcome is produced.
func (g *NavigationGuard) Check(ctx context.Context, to, from navigation.Route) (navigation.Outcome, error) {
	start := g.now()

	snap, err := g.state.Snapshot(ctx)
	if err != nil {
		g.logger.ErrorContext(ctx, "navigation aborted: auth state unavailable",
			"to", to.Name, "error", err)
		g.metrics.RecordError(to.Name, err)
		return navigation.Outcome{}, fmt.Errorf("read auth state: %w", err)
	}

	out := navigation.Decide(to, from, snap)
	g.metrics.RecordDecision(to.Name, out, g.now().Sub(start))
	g.logger.DebugContext(ctx, "navigation decided",
		"to", to.Name,
		"from", from.Name,
		"outcome", out.Kind.String(),
		"target", out.Target,
	)
	return out, nil
}

// CheckName resolves a route by name and checks navigation to it.
// An unknown name is a validation error.
func (g *NavigationGuard) CheckName(ctx context.Context, name string) (navigation.Route, navigation.Outcome, error) {
	to, ok := g.routes.ByName(name)
	if !ok {
		return navigation.Route{}, navigation.Outcome{}, apperrors.ValidationField("to", fmt.Sprintf("unknown route %q", name))
	}
	out, err := g.Check(ctx, to, navigation.Route{})
	return to, out, err
}

// RedirectURL renders a redirect outcome as a local URL.
func (g *NavigationGuard) RedirectURL(out navigation.Outcome) string {
	return g.routes.RedirectURL(out)
}
