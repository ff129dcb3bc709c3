// Package main is a confirmation hook that shows a desktop notification when
// both hands are raised. It uses AppleScript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Request represents the input from the hook executor.
type Request struct {
	Event          string    `json:"event"`
	ConfirmationID string    `json:"confirmation_id"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
	Frames         int       `json:"frames"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

const title = "PoseGuard"

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	name, args := notificationCommand(runtime.GOOS, message(req))
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		writeResponse(Response{Error: fmt.Sprintf("%s failed: %v: %s", name, err, output)})
		return
	}

	writeResponse(Response{Success: true})
}

func message(req Request) string {
	at := req.ConfirmedAt
	if at.IsZero() {
		at = time.Now()
	}
	return fmt.Sprintf("Hands raised at %s (%d frames)", at.Local().Format("15:04:05"), req.Frames)
}

// notificationCommand returns the command that shows body on goos.
func notificationCommand(goos, body string) (string, []string) {
	if goos == "darwin" {
		script := fmt.Sprintf(`display notification %q with title %q`, escape(body), title)
		return "osascript", []string{"-e", script}
	}
	return "notify-send", []string{title, body}
}

// escape removes characters AppleScript string literals cannot hold.
func escape(s string) string {
	return strings.NewReplacer(`"`, `'`, `\`, `/`).Replace(s)
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
