package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func TestWriteResponseJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	err := NewFormatter().WriteResponse(rec, req, http.StatusOK, payload{Name: "a", Values: []float64{1.5}}, map[string]string{"X-Test": "1"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1", rec.Header().Get("X-Test"))

	var got payload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "a", got.Name)
}

func TestWriteResponseMsgPack(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?format=msgpack", nil)
	rec := httptest.NewRecorder()

	err := NewFormatter().WriteResponse(rec, req, http.StatusCreated, payload{Name: "b", Values: []float64{2, 3}}, nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "b", got["name"])
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, NewFormatter().WriteError(rec, req, http.StatusBadRequest, "bad input", assert.AnError))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "bad input", got.Error)
	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Equal(t, assert.AnError.Error(), got.Details)
}
