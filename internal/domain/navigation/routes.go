package navigation

import (
	"fmt"
	"net/url"
	"strings"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
)

// Additional named routes served by the dashboard shell.
const (
	RouteAdminArea      = "AdminArea"
	RouteSuperAdminOnly = "SuperAdminOnly"
	RoutePublicPage     = "PublicPage"
)

// Routes is an immutable table of named routes.
type Routes struct {
	byName map[string]Route
	byPath map[string]Route
	order  []string
}

// NewRoutes builds a route table. Names and paths must be unique and non-empty.
func NewRoutes(routes ...Route) (*Routes, error) {
	t := &Routes{
		byName: make(map[string]Route, len(routes)),
		byPath: make(map[string]Route, len(routes)),
		order:  make([]string, 0, len(routes)),
	}
	for _, r := range routes {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("route %q: name is required", r.Path)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %s: path must start with /", r.Name)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("route %s: duplicate name", r.Name)
		}
		if _, dup := t.byPath[r.Path]; dup {
			return nil, fmt.Errorf("route %s: duplicate path %s", r.Name, r.Path)
		}
		r.Roles = append([]domainauth.Role(nil), r.Roles...)
		t.byName[r.Name] = r
		t.byPath[r.Path] = r
		t.order = append(t.order, r.Name)
	}
	return t, nil
}

// DefaultRoutes returns the dashboard shell's route table.
func DefaultRoutes() *Routes {
	everyone := []domainauth.Role{domainauth.RoleUser, domainauth.RoleAdmin, domainauth.RoleSuperAdmin}
	t, err := NewRoutes(
		Route{Name: RouteLogin, Path: "/login"},
		Route{Name: RouteDashboard, Path: "/dashboard", RequiresAuth: true, Roles: everyone},
		Route{Name: RouteUnauthorized, Path: "/unauthorized"},
		Route{
			Name:         RouteAdminArea,
			Path:         "/admin-area",
			RequiresAuth: true,
			Roles:        []domainauth.Role{domainauth.RoleAdmin, domainauth.RoleSuperAdmin},
		},
		Route{
			Name:         RouteSuperAdminOnly,
			Path:         "/super-admin-only",
			RequiresAuth: true,
			Roles:        []domainauth.Role{domainauth.RoleSuperAdmin},
		},
		Route{Name: RoutePublicPage, Path: "/public-page"},
	)
	if err != nil {
		panic(err) // static table
	}
	return t
}

// ByName looks up a route by its name.
func (t *Routes) ByName(name string) (Route, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// ByPath looks up a route by its exact path.
func (t *Routes) ByPath(path string) (Route, bool) {
	r, ok := t.byPath[path]
	return r, ok
}

// PathFor returns the path of a named route, or "/" when unknown.
func (t *Routes) PathFor(name string) string {
	if r, ok := t.byName[name]; ok {
		return r.Path
	}
	return "/"
}

// All returns the routes in declaration order.
func (t *Routes) All() []Route {
	out := make([]Route, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name])
	}
	return out
}

// RedirectURL renders a redirect outcome as a local URL: the target's path with
// the outcome params as an encoded query. It returns "" for a proceed outcome.
func (t *Routes) RedirectURL(out Outcome) string {
	if out.Kind != KindRedirect {
		return ""
	}
	path := t.PathFor(out.Target)
	if len(out.Params) == 0 {
		return path
	}

	q := url.Values{}
	for k, v := range out.Params {
		q.Set(k, v)
	}
	return path + "?" + q.Encode()
}
