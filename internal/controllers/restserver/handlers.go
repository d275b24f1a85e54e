package restserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chrissnell/fracgrad/internal/gradient"
	"github.com/chrissnell/fracgrad/internal/service"
	"github.com/chrissnell/fracgrad/pkg/responseformat"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	calculationIDHeader = "X-Calculation-ID"

	// maxBodyBytes bounds request bodies; a well log of 100k samples fits
	// comfortably.
	maxBodyBytes = 4 << 20
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// Calculate handles POST /calculation
func (h *Handlers) Calculate(w http.ResponseWriter, req *http.Request) {
	var body service.Request
	if err := decodeRequest(w, req, &body); err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	resp, err := h.controller.calculator.Calculate(req.Context(), &body)
	if err != nil {
		status := StatusForError(err)
		if status >= http.StatusInternalServerError {
			h.controller.logger.Errorf("calculation error: %v", err)
		}
		h.formatter.WriteError(w, req, status, http.StatusText(status), err)
		return
	}

	err = h.formatter.WriteResponse(w, req, http.StatusOK, resp, map[string]string{
		calculationIDHeader: resp.CalculationID,
	})
	if err != nil {
		h.controller.logger.Errorf("error encoding calculation %s: %v", resp.CalculationID, err)
	}
}

// Health handles GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, map[string]string{"status": "ok"}, nil)
}

// Settings handles GET /api/v1/settings
func (h *Handlers) Settings(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, http.StatusOK, h.controller.calculator.Settings(), nil)
}

// decodeRequest reads a JSON or MessagePack request body
func decodeRequest(w http.ResponseWriter, req *http.Request, v any) error {
	body := http.MaxBytesReader(w, req.Body, maxBodyBytes)

	if req.Header.Get("Content-Type") == "application/x-msgpack" {
		dec := msgpack.NewDecoder(body)
		dec.SetCustomStructTag("json")
		return dec.Decode(v)
	}

	return json.NewDecoder(body).Decode(v)
}

// StatusForError maps a calculation error onto an HTTP status code
func StatusForError(err error) int {
	switch {
	case errors.Is(err, gradient.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, gradient.ErrDegenerateFit), errors.Is(err, gradient.ErrArithmeticDomain):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
