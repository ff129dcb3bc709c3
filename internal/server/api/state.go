package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ayusman/poseguard/internal/analyzer"
	"github.com/ayusman/poseguard/internal/app"
	"github.com/ayusman/poseguard/internal/gesture"
	"github.com/ayusman/poseguard/internal/pose"
)

// StateHandler serves the gesture state, the reset trigger and the viewport.
//
//	GET  /api/state
//	POST /api/reset
//	GET  /api/viewport
//	PUT  /api/viewport
//	GET  /api/camera
//	PUT  /api/camera
type StateHandler struct {
	pipeline Pipeline
}

// NewStateHandler creates a new StateHandler backed by p.
func NewStateHandler(p Pipeline) *StateHandler {
	return &StateHandler{pipeline: p}
}

type stateResponse struct {
	Phase     gesture.Phase   `json:"phase"`
	Count     int             `json:"count"`
	Required  int             `json:"required"`
	Confirmed bool            `json:"confirmed"`
	Frames    uint64          `json:"frames"`
	Snapshot  pose.Snapshot   `json:"snapshot"`
	Viewport  viewportPayload `json:"viewport"`
	Stats     app.Stats       `json:"stats"`
}

type viewportPayload struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	FrontCamera bool    `json:"front_camera"`
}

func toViewportPayload(vp analyzer.Viewport) viewportPayload {
	return viewportPayload{Width: vp.Width, Height: vp.Height, FrontCamera: vp.FrontCamera}
}

// ServeHTTP routes by path and method.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/state":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.state(w)
	case "/api/reset":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.pipeline.Reset()
		h.state(w)
	case "/api/viewport":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, toViewportPayload(h.pipeline.Viewport()))
		case http.MethodPut:
			h.setViewport(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case "/api/camera":
		switch r.Method {
		case http.MethodGet:
			h.camera(w)
		case http.MethodPut:
			h.setCamera(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *StateHandler) state(w http.ResponseWriter) {
	s := h.pipeline.State()

	resp := stateResponse{
		Phase:     s.Phase(),
		Count:     s.Count,
		Confirmed: s.Confirmed,
		Required:  h.pipeline.Required(),
		Frames:    s.Frames,
		Snapshot:  s.Snapshot,
		Viewport:  toViewportPayload(h.pipeline.Viewport()),
		Stats:     h.pipeline.Stats(),
	}

	writeJSON(w, http.StatusOK, resp)
}

// setViewport handles PUT /api/viewport. Omitting front_camera keeps the
// current facing.
func (h *StateHandler) setViewport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width       float64 `json:"width"`
		Height      float64 `json:"height"`
		FrontCamera *bool   `json:"front_camera"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Width < 0 || req.Height < 0 {
		writeError(w, http.StatusBadRequest, "width and height must be non-negative")
		return
	}
	if req.Width > analyzer.MaxViewportSide || req.Height > analyzer.MaxViewportSide {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("width and height must not exceed %d", analyzer.MaxViewportSide))
		return
	}

	vp := h.pipeline.Viewport()
	vp.Width, vp.Height = req.Width, req.Height
	if req.FrontCamera != nil {
		vp.FrontCamera = *req.FrontCamera
	}

	if err := h.pipeline.SetViewport(vp); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save viewport")
		return
	}

	writeJSON(w, http.StatusOK, toViewportPayload(vp))
}

type cameraPayload struct {
	CameraID    int  `json:"camera_id"`
	FrontCamera bool `json:"front_camera"`
}

func (h *StateHandler) camera(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, cameraPayload{
		CameraID:    h.pipeline.CameraDevice(),
		FrontCamera: h.pipeline.Viewport().FrontCamera,
	})
}

// setCamera handles PUT /api/camera, which rebinds the capture device.
func (h *StateHandler) setCamera(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CameraID *int `json:"camera_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.CameraID == nil || *req.CameraID < 0 {
		writeError(w, http.StatusBadRequest, "camera_id must be a non-negative integer")
		return
	}

	if err := h.pipeline.SetCameraDevice(*req.CameraID); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to switch camera: %v", err))
		return
	}

	h.camera(w)
}
