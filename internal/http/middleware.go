package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/target/mmk-routeguard/internal/domain/navigation"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Guard is the navigation guard as seen by the HTTP layer.
type Guard interface {
	Check(ctx context.Context, to, from navigation.Route) (navigation.Outcome, error)
	CheckName(ctx context.Context, name string) (navigation.Route, navigation.Outcome, error)
	RedirectURL(out navigation.Outcome) string
	Routes() *navigation.Routes
}

// GuardPages returns a middleware that runs the navigation guard before every
// page in the route table. Unknown paths pass through untouched.
//   - Proceed: the admitted route is put in the context and next runs.
//   - Redirect: 303 to the target route.
//   - Guard error: 500 JSON; the navigation is aborted.
func GuardPages(guard Guard, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			to, ok := guard.Routes().ByPath(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			from := refererRoute(guard.Routes(), r)

			out, err := guard.Check(r.Context(), to, from)
			if err != nil {
				logger.ErrorContext(r.Context(), "navigation guard failed",
					"path", r.URL.Path, "route", to.Name, "error", err)
				WriteError(w, ErrorParams{
					Code:    http.StatusInternalServerError,
					ErrCode: "navigation_failed",
					Err:     err,
				})
				return
			}

			if !out.IsProceed() {
				http.Redirect(w, r, guard.RedirectURL(out), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetRouteInContext(r.Context(), to)))
		})
	}
}

// refererRoute resolves the same-origin Referer to a known route, if any.
func refererRoute(routes *navigation.Routes, r *http.Request) navigation.Route {
	raw := r.Header.Get("Referer")
	if raw == "" {
		return navigation.Route{}
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return navigation.Route{}
	}
	from, _ := routes.ByPath(u.Path)
	return from
}

// safeRedirectPath keeps post-login redirects inside the app. Anything that is
// not a plain absolute path (scheme, host, or "//" prefix) yields fallback.
func safeRedirectPath(candidate, fallback string) string {
	if candidate == "" {
		return fallback
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return fallback
	}
	return candidate
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that detects browser requests vs API requests.
// Downstream handlers use it to choose between HTML and JSON responses.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	// Fallback to direct detection if middleware wasn't used
	return isBrowserRequest(r)
}

// isBrowserRequest treats everything outside /api/ that accepts HTML (or sends
// no Accept header) as a browser request.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}
