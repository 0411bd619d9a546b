package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	"github.com/target/mmk-routeguard/internal/domain/navigation"
	"github.com/target/mmk-routeguard/internal/http/validation"
	"github.com/target/mmk-routeguard/internal/service"
)

// LoginServiceInterface defines the login operations the handlers need.
type LoginServiceInterface interface {
	Login(ctx context.Context, form validation.LoginForm) (domainauth.Snapshot, error)
	Logout(ctx context.Context) error
	Session() domainauth.Snapshot
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc      LoginServiceInterface
	Routes   *navigation.Routes
	Renderer *TemplateRenderer // optional; browser login page
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) dashboardPath() string {
	return h.Routes.PathFor(navigation.RouteDashboard)
}

// sessionResponse is the public view of the auth state. The token is never included.
type sessionResponse struct {
	Authenticated bool               `json:"authenticated"`
	Role          domainauth.Role    `json:"role,omitempty"`
	Profile       domainauth.Profile `json:"profile,omitempty"`
	RedirectTo    string             `json:"redirect_to,omitempty"`
}

func newSessionResponse(s domainauth.Snapshot) sessionResponse {
	return sessionResponse{Authenticated: s.IsAuthenticated, Role: s.Role, Profile: s.Profile}
}

// LoginAPI handles POST /api/auth/login with a JSON LoginForm body.
// The redirect query parameter is honored when it is a local path.
func (h *AuthHandlers) LoginAPI(w http.ResponseWriter, r *http.Request) {
	var form validation.LoginForm
	if !DecodeJSON(w, r, &form) {
		return
	}

	snap, err := h.Svc.Login(r.Context(), form)
	if err != nil {
		h.logger().WarnContext(r.Context(), "api login failed", "error", err)
		WriteServiceError(w, err)
		return
	}

	resp := newSessionResponse(snap)
	resp.RedirectTo = safeRedirectPath(r.URL.Query().Get(navigation.RedirectParam), h.dashboardPath())
	WriteJSON(w, http.StatusOK, resp)
}

// LogoutAPI handles POST /api/auth/logout.
func (h *AuthHandlers) LogoutAPI(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Logout(r.Context()); err != nil {
		h.logger().ErrorContext(r.Context(), "api logout failed", "error", err)
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
}

// Session handles GET /api/auth/session.
func (h *AuthHandlers) Session(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, newSessionResponse(h.Svc.Session()))
}

// LoginForm handles POST /login from the browser sign-in page.
// Success redirects (303) to the redirect parameter or the dashboard.
func (h *AuthHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}
	form := validation.LoginForm{
		Username:   r.PostFormValue("username"),
		Password:   r.PostFormValue("password"),
		RememberMe: r.PostFormValue("rememberMe") == "true",
	}
	redirect := r.URL.Query().Get(navigation.RedirectParam)

	if _, err := h.Svc.Login(r.Context(), form); err != nil {
		h.renderLoginFailure(w, r, form, redirect, err)
		return
	}
	http.Redirect(w, r, safeRedirectPath(redirect, h.dashboardPath()), http.StatusSeeOther)
}

func (h *AuthHandlers) renderLoginFailure(
	w http.ResponseWriter,
	r *http.Request,
	form validation.LoginForm,
	redirect string,
	err error,
) {
	p := serviceErrorParams(err)
	if h.Renderer == nil {
		WriteError(w, p)
		return
	}

	fields := p.Fields
	var formErr *service.FormError
	if !errors.As(err, &formErr) {
		fields = map[string]string{"form": loginFailureMessage(p.Code)}
	}

	data := PageData{
		Title:    "Sign in",
		Page:     navigation.RouteLogin,
		Session:  h.Svc.Session(),
		Redirect: safeRedirectPath(redirect, ""),
		Username: form.Username,
		Errors:   fields,

		CSRFToken: GetCSRFToken(r),
	}
	if rerr := h.Renderer.RenderPage(w, p.Code, data); rerr != nil {
		h.logger().ErrorContext(r.Context(), "render login page failed", "error", rerr)
	}
}

func loginFailureMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "Invalid username or password."
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "Sign-in is temporarily unavailable. Please try again."
	default:
		return "Sign-in failed."
	}
}

// LogoutForm handles POST /logout from the browser and returns to the login page.
func (h *AuthHandlers) LogoutForm(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Logout(r.Context()); err != nil {
		h.logger().ErrorContext(r.Context(), "logout failed", "error", err)
		WriteServiceError(w, err)
		return
	}
	http.Redirect(w, r, h.Routes.PathFor(navigation.RouteLogin), http.StatusSeeOther)
}
