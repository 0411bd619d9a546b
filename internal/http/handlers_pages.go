package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/mmk-routeguard/internal/domain/navigation"
)

// PageHandlers renders the views behind the guarded routes.
type PageHandlers struct {
	Svc      LoginServiceInterface
	Renderer *TemplateRenderer
	Logger   *slog.Logger
}

var pageTitles = map[string]string{ //nolint:gochecknoglobals // read-only lookup
	navigation.RouteLogin:          "Sign in",
	navigation.RouteDashboard:      "Dashboard",
	navigation.RouteUnauthorized:   "Access denied",
	navigation.RouteAdminArea:      "Admin area",
	navigation.RouteSuperAdminOnly: "Super admin",
	navigation.RoutePublicPage:     "Public page",
}

// Page renders the route admitted by GuardPages.
func (h *PageHandlers) Page(w http.ResponseWriter, r *http.Request) {
	route, ok := GetRouteFromContext(r.Context())
	if !ok {
		h.NotFound(w, r)
		return
	}

	status := http.StatusOK
	if route.Name == navigation.RouteUnauthorized {
		status = http.StatusForbidden
	}

	data := PageData{
		Title:   pageTitles[route.Name],
		Page:    route.Name,
		Session: h.Svc.Session(),
	}
	if route.Name == navigation.RouteLogin {
		data.Redirect = safeRedirectPath(r.URL.Query().Get(navigation.RedirectParam), "")
	}
	h.render(w, r, status, data)
}

// NotFound answers unknown paths with HTML for browsers and JSON otherwise.
func (h *PageHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) || h.Renderer == nil {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "no such route"})
		return
	}
	h.render(w, r, http.StatusNotFound, PageData{Title: "Not found", Page: "NotFound", Session: h.Svc.Session()})
}

func (h *PageHandlers) render(w http.ResponseWriter, r *http.Request, status int, data PageData) {
	if h.Renderer == nil {
		WriteJSON(w, status, map[string]string{"page": data.Page, "title": data.Title})
		return
	}
	data.CSRFToken = GetCSRFToken(r)
	if err := h.Renderer.RenderPage(w, status, data); err != nil {
		logger := h.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(r.Context(), "render page failed", "page", data.Page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
