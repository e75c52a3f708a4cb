package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: http.StatusOK},
		{name: "validation", err: ValidationError("invalid input").Build(), expected: http.StatusBadRequest},
		{name: "config", err: ConfigError("bad tick").Build(), expected: http.StatusBadRequest},
		{name: "not found", err: NotFoundError("timer not found").Build(), expected: http.StatusNotFound},
		{name: "already exists", err: AlreadyExistsError("duplicate").Build(), expected: http.StatusConflict},
		{name: "network", err: NetworkError("nats down").Build(), expected: http.StatusBadGateway},
		{name: "store", err: StoreError("query failed").Build(), expected: http.StatusInternalServerError},
		{name: "scheduler", err: SchedulerError("arm failed").Build(), expected: http.StatusServiceUnavailable},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.StatusCodeFor(tt.err))
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	req := httptest.NewRequest(http.MethodPost, "/running/7/start", nil)
	w := httptest.NewRecorder()

	adapter.WriteErrorResponse(w, req, NotFoundError("timer not found").WithContext("timer_id", 7).Build())

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response HTTPErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "timer not found", response.Error)
	assert.Equal(t, "not_found", response.Code)
	assert.InDelta(t, 7, response.Details["timer_id"], 0)
	assert.False(t, response.Retryable)
}

func TestHTTPErrorAdapter_FormatErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	assert.Empty(t, adapter.FormatErrorResponse(nil).Error)

	resp := adapter.FormatErrorResponse(StoreError("query failed").WithContext("table", "timers").Build())
	assert.Equal(t, "query failed", resp.Error)
	assert.Equal(t, "store", resp.Code)
	assert.False(t, resp.Retryable)
	assert.Nil(t, resp.Details, "server side context stays in the logs")

	resp = adapter.FormatErrorResponse(NetworkError("publish failed").WithContext("subject", "x").Build())
	assert.True(t, resp.Retryable)
	assert.Equal(t, "network", resp.Code)

	resp = adapter.FormatErrorResponse(&customError{msg: "plain"})
	assert.Equal(t, "internal error", resp.Error)
	assert.Empty(t, resp.Code)
}
