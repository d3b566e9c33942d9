package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusAccepted, map[string]string{"key": "value"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"key":"value"}`, w.Body.String())
}

func TestWriteJSON_NilData(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteJSON(w, http.StatusNoContent, nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteOK(w, map[string]int{"count": 2}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"count":2}}`, w.Body.String())
}

func TestWriteUnauthorized(t *testing.T) {
	t.Run("with message and details", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteUnauthorized(w, "could not parse payload", map[string]interface{}{"kind": "empty_payload"})
		require.NoError(t, err)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthorized", resp.Error)
		assert.Equal(t, "could not parse payload", resp.Message)
		assert.Equal(t, "empty_payload", resp.Details["kind"])
	})

	t.Run("default message", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteUnauthorized(w, "", nil))

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Authentication required", resp.Message)
		assert.Nil(t, resp.Details)
	})
}

func TestWriteNotFound(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteNotFound(w, ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"Resource not found"}`, w.Body.String())
}

func TestWriteServiceUnavailable(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteServiceUnavailable(w, map[string]string{"status": "shutting_down"}))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"data":{"status":"shutting_down"}}`, w.Body.String())
}
