package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	routeguard "github.com/target/mmk-routeguard"
	"github.com/target/mmk-routeguard/internal/domain/navigation"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Login LoginServiceInterface
	Guard Guard
	// Optional: storage probe for /healthz.
	HealthCheck HealthCheck
	// Optional: renderer override. If nil, one is built from the embedded templates.
	Renderer *TemplateRenderer
	IsDev    bool         // Development mode flag for hot reloading, etc.
	Logger   *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	routes := services.Guard.Routes()
	renderer := services.Renderer
	if renderer == nil {
		renderer = setupRenderer(services.IsDev, logger)
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Svc: services.Login, Routes: routes, Renderer: renderer, Logger: logger}
	navHandlers := &NavigationHandlers{Guard: services.Guard, Logger: logger}
	pageHandlers := &PageHandlers{Svc: services.Login, Renderer: renderer, Logger: logger}

	health := newHealthHandler(services.HealthCheck, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	registerAPIRoutes(mux, authHandlers, navHandlers)
	registerPageRoutes(mux, routes, pageHandlers, authHandlers, pageChain{
		guard: GuardPages(services.Guard, logger),
		csrf:  CSRFProtection(CSRFConfig{Logger: logger}),
	})

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return BrowserDetection()(handler)
}

func registerAPIRoutes(mux *http.ServeMux, auth *AuthHandlers, nav *NavigationHandlers) {
	jsonOnly := RequireJSON()
	mux.Handle("POST /api/auth/login", jsonOnly(http.HandlerFunc(auth.LoginAPI)))
	mux.Handle("POST /api/auth/logout", jsonOnly(http.HandlerFunc(auth.LogoutAPI)))
	mux.HandleFunc("GET /api/auth/session", auth.Session)
	mux.HandleFunc("GET /api/navigation/check", nav.Check)
}

type pageChain struct {
	guard func(http.Handler) http.Handler
	csrf  func(http.Handler) http.Handler
}

// registerPageRoutes mounts one guarded GET handler per route in the table.
// The login form POST is guarded too, so a signed-in user is sent to the dashboard.
// Pages issue the CSRF cookie; both form POSTs must echo it.
func registerPageRoutes(
	mux *http.ServeMux,
	routes *navigation.Routes,
	pages *PageHandlers,
	auth *AuthHandlers,
	chain pageChain,
) {
	page := chain.csrf(chain.guard(http.HandlerFunc(pages.Page)))
	for _, rt := range routes.All() {
		mux.Handle("GET "+rt.Path, page)
	}
	mux.Handle("POST "+routes.PathFor(navigation.RouteLogin), chain.csrf(chain.guard(http.HandlerFunc(auth.LoginForm))))
	mux.Handle("POST /logout", chain.csrf(http.HandlerFunc(auth.LogoutForm)))

	dashboard := routes.PathFor(navigation.RouteDashboard)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, dashboard, http.StatusSeeOther)
	})
	mux.HandleFunc("/", pages.NotFound)
}

// setupRenderer builds the page renderer. In dev mode templates are read from
// disk and re-parsed on each render; otherwise the embedded copies are used.
func setupRenderer(isDev bool, logger *slog.Logger) *TemplateRenderer {
	var templateFS fs.FS = routeguard.TemplateFS
	if isDev {
		templateFS = os.DirFS(".")
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		DevMode:    isDev,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to create template renderer", slog.Any("error", err))
		return nil
	}
	return tr
}
