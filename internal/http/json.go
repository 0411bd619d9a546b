package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/service"
)

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
	Fields  map[string]string // optional per-field messages
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, errorBody{Error: p.ErrCode, Message: p.Err.Error(), Fields: p.Fields})
}

// WriteServiceError maps a service error onto a status code and writes it.
func WriteServiceError(w http.ResponseWriter, err error) {
	WriteError(w, serviceErrorParams(err))
}

func serviceErrorParams(err error) ErrorParams {
	var formErr *service.FormError
	if errors.As(err, &formErr) {
		return ErrorParams{
			Code:    http.StatusUnprocessableEntity,
			ErrCode: "validation_failed",
			Err:     err,
			Fields:  formErr.Fields,
		}
	}

	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		p := ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: err}
		if field := apperrors.GetField(err); field != "" {
			p.Fields = map[string]string{field: err.Error()}
		}
		return p
	case apperrors.ErrCodeUnauthenticated:
		return ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_failed", Err: err}
	case apperrors.ErrCodeUnavailable:
		return ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "storage_unavailable", Err: err}
	case apperrors.ErrCodeTimeout:
		return ErrorParams{Code: http.StatusGatewayTimeout, ErrCode: "timeout", Err: err}
	default:
		return ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: err}
	}
}
