package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/airsynth/internal/instrument"
)

// EngineHandler serves /api/state and /api/engine/*.
type EngineHandler struct {
	inst *instrument.Instrument
	// base outlives individual requests; the instrument keeps running
	// after the start request returns.
	base context.Context
}

// NewEngineHandler creates an EngineHandler. Instruments started through it
// run until base is cancelled or they are stopped.
func NewEngineHandler(ctx context.Context, inst *instrument.Instrument) *EngineHandler {
	return &EngineHandler{inst: inst, base: ctx}
}

// ServeHTTP routes:
//
//	GET  /api/state
//	POST /api/engine/init | start | stop
//	GET  /api/engine/settings
//	PUT  /api/engine/settings
func (h *EngineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/state" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.inst.HUD())
		return
	}

	action := strings.TrimPrefix(r.URL.Path, "/api/engine")
	action = strings.Trim(action, "/")

	switch action {
	case "settings":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.inst.Settings())
		case http.MethodPut:
			h.updateSettings(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "init", "start", "stop":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.lifecycle(w, action)
	default:
		writeError(w, http.StatusNotFound, "Unknown engine action")
	}
}

func (h *EngineHandler) lifecycle(w http.ResponseWriter, action string) {
	var err error
	switch action {
	case "init":
		err = h.inst.Init()
	case "start":
		err = h.inst.Start(h.base)
	case "stop":
		h.inst.Stop()
	}

	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.inst.HUD())
}

func (h *EngineHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var patch instrument.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	settings, err := h.inst.ApplySettings(patch)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// statusFor maps instrument errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, instrument.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, instrument.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, instrument.ErrInvalidWaveform):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
