package httpx

import (
	"context"

	"github.com/target/mmk-routeguard/internal/domain/navigation"
)

// routeKey is an unexported context key type to avoid collisions across packages.
type routeKey struct{}

// SetRouteInContext returns a child context that carries the route the guard admitted.
func SetRouteInContext(ctx context.Context, route navigation.Route) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// GetRouteFromContext returns the admitted route and whether one was set.
func GetRouteFromContext(ctx context.Context) (navigation.Route, bool) {
	r, ok := ctx.Value(routeKey{}).(navigation.Route)
	return r, ok
}
