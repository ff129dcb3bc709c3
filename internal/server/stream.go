package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/poseguard/internal/analyzer"
	"github.com/ayusman/poseguard/internal/gesture"
	"github.com/ayusman/poseguard/internal/overlay"
)

// streamInterval paces the MJPEG stream at roughly 15 FPS.
const streamInterval = 66 * time.Millisecond

// FrameSource provides the latest camera frame and the state to draw on it.
type FrameSource interface {
	LatestFrame() (gocv.Mat, bool)
	Viewport() analyzer.Viewport
	State() gesture.State
}

// StreamHandler serves the camera preview with the pose overlay as MJPEG.
type StreamHandler struct {
	source FrameSource
}

// NewStreamHandler creates a new StreamHandler reading from source.
func NewStreamHandler(source FrameSource) *StreamHandler {
	return &StreamHandler{source: source}
}

// ServeHTTP streams MJPEG frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		buf, ok := h.render()
		if !ok {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		if _, err := w.Write(buf); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func (h *StreamHandler) render() ([]byte, bool) {
	frame, ok := h.source.LatestFrame()
	defer frame.Close()
	if !ok {
		return nil, false
	}

	vp := h.source.Viewport()
	if !vp.Ready() || !vp.Fits() {
		vp = analyzer.Viewport{
			Width:       float64(frame.Cols()),
			Height:      float64(frame.Rows()),
			FrontCamera: vp.FrontCamera,
		}
	}

	buf, err := overlay.Render(frame, vp, h.source.State().Snapshot)
	if err != nil {
		return nil, false
	}
	return buf, true
}
