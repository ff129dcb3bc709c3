// Package api provides HTTP API handlers for the poseguard gesture check.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/poseguard/internal/analyzer"
	"github.com/ayusman/poseguard/internal/app"
	"github.com/ayusman/poseguard/internal/gesture"
)

// Pipeline is the part of the running application the API drives.
type Pipeline interface {
	State() gesture.State
	Required() int
	Reset()
	Viewport() analyzer.Viewport
	SetViewport(vp analyzer.Viewport) error
	CameraDevice() int
	SetCameraDevice(id int) error
	Stats() app.Stats
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
