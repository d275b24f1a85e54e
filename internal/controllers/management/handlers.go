package management

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/chrissnell/fracgrad/internal/constants"
	"github.com/chrissnell/fracgrad/internal/log"
	"github.com/chrissnell/fracgrad/pkg/config"
)

const redacted = "[redacted]"

// Handlers contains the HTTP handlers for the management API
type Handlers struct {
	controller *Controller
}

// NewHandlers creates a new Handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
	}
}

// sendJSON sends a JSON response
func (h *Handlers) sendJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response in JSON format
func (h *Handlers) sendError(w http.ResponseWriter, statusCode int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    statusCode,
		"timestamp": time.Now().Unix(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// GetStatus returns the service status
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]interface{}{
		"status":         "ok",
		"timestamp":      time.Now().Unix(),
		"version":        constants.Version,
		"uptime_seconds": int64(time.Since(h.controller.started).Seconds()),
		"read_only":      h.controller.configProvider.IsReadOnly(),
	})
}

// GetConfig returns the current configuration with secrets redacted
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	configData, err := h.controller.configProvider.LoadConfig()
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to load configuration", err)
		return
	}

	h.sendJSON(w, map[string]interface{}{
		"config":           sanitizeConfig(configData),
		"read_only":        h.controller.configProvider.IsReadOnly(),
		"timestamp":        time.Now().Unix(),
		"controller_count": len(configData.Controllers),
	})
}

// GetLogs returns recent HTTP request log entries, oldest first
func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.sendError(w, http.StatusBadRequest, "limit must be a non-negative integer", err)
			return
		}
		limit = n
	}

	entries := log.GetHTTPLogBuffer().GetEntries(limit)
	h.sendJSON(w, map[string]interface{}{
		"logs":  entries,
		"count": len(entries),
	})
}

// sanitizeConfig returns a copy of cfg safe to hand to API clients
func sanitizeConfig(cfg *config.ConfigData) *config.ConfigData {
	out := &config.ConfigData{Calculation: cfg.Calculation}
	for _, c := range cfg.Controllers {
		if c.ManagementAPI != nil {
			mc := *c.ManagementAPI
			if mc.AuthToken != "" {
				mc.AuthToken = redacted
			}
			c.ManagementAPI = &mc
		}
		out.Controllers = append(out.Controllers, c)
	}
	return out
}
