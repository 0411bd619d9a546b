package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	routeguard "github.com/target/mmk-routeguard"
	domainauth "github.com/target/mmk-routeguard/internal/domain/auth"
	mockauth "github.com/target/mmk-routeguard/internal/mocks/auth"
	"github.com/target/mmk-routeguard/internal/service"
)

// testStack wires the router over real services and in-memory test doubles.
type testStack struct {
	Handler http.Handler
	Store   *mockauth.MemoryKVStore
	Auth    *mockauth.StaticAuthenticator
	State   *service.AuthState
}

type stackOptions struct {
	Seed          map[string]string
	RefreshOnRead bool
	HealthCheck   HealthCheck
}

func newTestStack(t *testing.T, opts stackOptions) *testStack {
	t.Helper()

	store := mockauth.NewMemoryKVStore(opts.Seed)
	state, err := service.NewAuthState(context.Background(), service.AuthStateOptions{
		Store:         store,
		RefreshOnRead: opts.RefreshOnRead,
	})
	require.NoError(t, err)

	authn := &mockauth.StaticAuthenticator{}
	login := service.NewLoginService(service.LoginServiceOptions{Authenticator: authn, State: state})
	guard := service.NewNavigationGuard(service.NavigationGuardOptions{State: state})

	renderer, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: routeguard.TemplateFS})
	require.NoError(t, err)

	h := NewRouter(RouterServices{
		Login:       login,
		Guard:       guard,
		HealthCheck: opts.HealthCheck,
		Renderer:    renderer,
		Logger:      discardLogger(),
	})
	return &testStack{Handler: h, Store: store, Auth: authn, State: state}
}

func seedSession(role domainauth.Role) map[string]string {
	return map[string]string{
		domainauth.KeyToken:   "seeded-token",
		domainauth.KeyRole:    role.String(),
		domainauth.KeyProfile: `{"name":"Pat"}`,
	}
}

func (s *testStack) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func browserGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

const testCSRFToken = "test-csrf-token"

// formPost builds a browser form submission carrying a matching CSRF cookie and field.
func formPost(path string, form map[string]string) *http.Request {
	fields := map[string]string{DefaultCSRFFieldName: testCSRFToken}
	for k, v := range form {
		fields[k] = v
	}
	req := rawFormPost(path, fields)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	return req
}

// rawFormPost builds a form submission with exactly the given fields and no cookies.
func rawFormPost(path string, form map[string]string) *http.Request {
	vals := make([]string, 0, len(form))
	for k, v := range form {
		vals = append(vals, k+"="+v)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(strings.Join(vals, "&")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	return req
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
