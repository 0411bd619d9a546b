// Package navigation holds the route descriptors and the pure navigation
// decision. It knows nothing about HTTP or storage.
package navigation

import (
	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
)

// Named redirect targets shared with the view layer.
const (
	RouteLogin        = "Login"
	RouteDashboard    = "Dashboard"
	RouteUnauthorized = "Unauthorized"
)

// RedirectParam carries the original target to the login page for post-login return.
const RedirectParam = "redirect"

// Route describes a navigation target as produced by the router.
type Route struct {
	Name         string
	Path         string
	RequiresAuth bool
	Roles        []domainauth.Role
}

// Kind tags an Outcome.
type Kind int

const (
	KindProceed Kind = iota
	KindRedirect
)

func (k Kind) String() string {
	switch k {
	case KindProceed:
		return "proceed"
	case KindRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Outcome is the result of a navigation decision.
// Target and Params are only set for KindRedirect.
type Outcome struct {
	Kind   Kind
	Target string
	Params map[string]string
}

// Proceed allows the navigation.
func Proceed() Outcome { return Outcome{Kind: KindProceed} }

// RedirectTo sends the navigation to the named route.
func RedirectTo(target string, params map[string]string) Outcome {
	return Outcome{Kind: KindRedirect, Target: target, Params: params}
}

// IsProceed reports whether the navigation may continue.
func (o Outcome) IsProceed() bool { return o.Kind == KindProceed }

// Decide evaluates a navigation attempt against an auth snapshot.
// from is accepted for symmetry with the router and is not consulted.
func Decide(to, _ Route, state domainauth.Snapshot) Outcome {
	if !to.RequiresAuth {
		if to.Name == RouteLogin && state.IsAuthenticated {
			return RedirectTo(RouteDashboard, nil)
		}
		return Proceed()
	}

	if !state.IsAuthenticated {
		var params map[string]string
		if to.Path != "" {
			params = map[string]string{RedirectParam: to.Path}
		}
		return RedirectTo(RouteLogin, params)
	}

	if len(to.Roles) == 0 {
		return Proceed()
	}

	// Authenticated without a role should not happen; never let it through.
	if !state.HasRole() {
		return RedirectTo(RouteUnauthorized, nil)
	}

	if state.Role.Satisfies(to.Roles) {
		return Proceed()
	}
	return RedirectTo(RouteUnauthorized, nil)
}
