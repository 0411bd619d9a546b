package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/mmk-routeguard/internal/domain/navigation"
)

// NavigationHandlers exposes the guard decision over the API.
type NavigationHandlers struct {
	Guard  Guard
	Logger *slog.Logger
}

type navigationResponse struct {
	Route    string            `json:"route"`
	Outcome  string            `json:"outcome"`
	Target   string            `json:"target,omitempty"`
	Params   map[string]string `json:"params,omitempty"`
	Location string            `json:"location,omitempty"`
}

// Check handles GET /api/navigation/check?to=<RouteName>.
func (h *NavigationHandlers) Check(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("to")
	if name == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_route",
			Err:     errors.New("query parameter 'to' is required"),
		})
		return
	}

	to, out, err := h.Guard.CheckName(r.Context(), name)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	resp := navigationResponse{
		Route:   to.Name,
		Outcome: out.Kind.String(),
		Target:  out.Target,
		Params:  out.Params,
	}
	if out.Kind == navigation.KindRedirect {
		resp.Location = h.Guard.RedirectURL(out)
	}
	WriteJSON(w, http.StatusOK, resp)
}
