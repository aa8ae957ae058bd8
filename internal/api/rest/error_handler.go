package rest

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	domainErrors "github.com/MP2EZ/being-sub003/internal/domain/errors"
)

// maxBodyBytes bounds request bodies. Mood notes are the largest payload.
const maxBodyBytes = 64 << 10

// ErrorBody is the error half of every failed response.
type ErrorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorBody as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// errorBody converts err into its public form. Internal failures never leak
// their message.
func errorBody(err error) ErrorBody {
	var appErr *domainErrors.AppError
	if !errors.As(err, &appErr) || appErr.Code == domainErrors.CodeInternal {
		return ErrorBody{Code: domainErrors.CodeInternal, Message: "An internal error occurred"}
	}
	return ErrorBody{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
}

func statusOf(err error) int {
	status := domainErrors.GetStatusCode(err)
	if status < 400 {
		return http.StatusInternalServerError
	}
	return status
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= 500 {
		slog.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"code", domainErrors.CodeOf(err),
			"error", err,
		)
	}
	writeJSON(w, status, ErrorResponse{Error: errorBody(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads a single JSON document into v. Unknown fields are
// rejected; an empty body is allowed only when optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		return domainErrors.NewValidationError(domainErrors.CodeInvalidRequest, "request body is not valid JSON").WithCause(err)
	}
	return nil
}

// readPayload returns the raw body, which may be empty. Anything present
// must be valid JSON.
func readPayload(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, domainErrors.NewValidationError(domainErrors.CodeInvalidRequest, "request body could not be read").WithCause(err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, domainErrors.NewValidationError(domainErrors.CodeInvalidRequest, "request body is not valid JSON")
	}
	return json.RawMessage(body), nil
}
