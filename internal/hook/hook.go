// Package hook runs external executables when the hands-raised gesture is
// confirmed.
package hook

import (
	"time"

	"github.com/ayusman/poseguard/internal/pose"
)

// EventHandsRaised is sent once per confirmed gesture.
const EventHandsRaised = "hands_raised"

// ManifestFile is the manifest looked up in every hook directory.
const ManifestFile = "hook.json"

// Manifest describes a hook and the events it subscribes to.
// An empty Events list subscribes to every event.
type Manifest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Events      []string `json:"events"`
	Disabled    bool     `json:"disabled,omitempty"`
}

// Request is written as JSON to the hook's stdin.
type Request struct {
	Event          string        `json:"event"`
	SessionID      string        `json:"session_id"`
	ConfirmationID string        `json:"confirmation_id"`
	ConfirmedAt    time.Time     `json:"confirmed_at"`
	Frames         int           `json:"frames"`
	Snapshot       pose.Snapshot `json:"snapshot"`
}

// Response is read as JSON from the hook's stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the hook subscribes to event.
func (h *Hook) Handles(event string) bool {
	if h.Manifest.Disabled {
		return false
	}
	if len(h.Manifest.Events) == 0 {
		return true
	}
	for _, e := range h.Manifest.Events {
		if e == event {
			return true
		}
	}
	return false
}
