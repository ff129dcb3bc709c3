// Package main is a confirmation hook that presses a key when both hands are
// raised, for example to advance to the next screen of a presentation.
// The key is read from config.json next to the executable; it uses
// AppleScript and therefore only works on macOS.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Request represents the input from the hook executor.
type Request struct {
	Event          string    `json:"event"`
	SessionID      string    `json:"session_id"`
	ConfirmationID string    `json:"confirmation_id"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

// Response represents the output to the hook executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// KeyConfig is the key to press and its modifiers.
type KeyConfig struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// defaultKey advances most presentation and survey apps.
var defaultKey = KeyConfig{Key: " "}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	if req.Event != "hands_raised" {
		writeResponse(Response{Success: true, Message: "ignored event " + req.Event})
		return
	}

	cfg, err := loadConfig("config.json")
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}

	if err := runAppleScript(buildKeystrokeScript(cfg.Key, cfg.Modifiers)); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("keystroke failed: %v", err)})
		return
	}

	writeResponse(Response{Success: true, Message: "pressed " + describe(cfg)})
}

// loadConfig reads the key config, falling back to defaultKey when the file
// is missing.
func loadConfig(path string) (KeyConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultKey, nil
	}
	if err != nil {
		return KeyConfig{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg KeyConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return KeyConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Key == "" {
		return KeyConfig{}, fmt.Errorf("key is required")
	}
	return cfg, nil
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(key string, modifiers []string) string {
	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}

	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`,
		key, strings.Join(appleModifiers, ", "))
}

func describe(cfg KeyConfig) string {
	if len(cfg.Modifiers) == 0 {
		return fmt.Sprintf("%q", cfg.Key)
	}
	return fmt.Sprintf("%s+%q", strings.Join(cfg.Modifiers, "+"), cfg.Key)
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	output, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
