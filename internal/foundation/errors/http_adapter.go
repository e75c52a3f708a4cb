package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorAdapter writes errors as JSON responses for the control API.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter returns an adapter logging to logger, or to the default logger.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the body of every error response.
type HTTPErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Retryable bool           `json:"retryable,omitempty"`
}

// StatusCodeFor maps err's category to a status. Unclassified errors are 500.
func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch GetCategory(err) {
	case CategoryValidation, CategoryConfig:
		return http.StatusBadRequest
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryAlreadyExists:
		return http.StatusConflict
	case CategoryNetwork:
		return http.StatusBadGateway
	case CategoryRuntime, CategoryDaemon, CategoryScheduler:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FormatErrorResponse builds the response body for err. Server side failures keep their
// context out of the body.
func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	c, ok := AsClassified(err)
	if !ok {
		return HTTPErrorResponse{Error: "internal error"}
	}
	resp := HTTPErrorResponse{Error: c.Message(), Code: string(c.Category()), Retryable: c.CanRetry()}
	if len(c.Context()) > 0 && a.StatusCodeFor(err) < http.StatusInternalServerError {
		resp.Details = map[string]any(c.Context())
	}
	return resp
}

// WriteErrorResponse writes err as JSON. Client errors are logged at debug, the rest at
// error.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	status := a.StatusCodeFor(err)
	body, jerr := json.Marshal(a.FormatErrorResponse(err))
	if jerr != nil {
		body = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)

	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelDebug
	}
	a.logger.Log(r.Context(), level, "Request failed",
		slog.Int("status", status),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
}
