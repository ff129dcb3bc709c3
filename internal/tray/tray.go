// Package tray provides the desktop system tray menu for poseguard.
package tray

import (
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/poseguard/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle       func(enabled bool)
	onSwitchCamera func() (front bool)
	onReset        func()
	onSettings     func()
	onQuit         func()
	enabled        bool
	front          bool
	mu             sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuCamera *systray.MenuItem
	menuPhase  *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a new Tray. Detection starts enabled.
func New(frontCamera bool) *Tray {
	return &Tray{
		enabled: true,
		front:   frontCamera,
	}
}

// OnToggle sets the callback invoked when detection is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSwitchCamera sets the callback invoked by "Switch Camera". It returns
// the new facing.
func (t *Tray) OnSwitchCamera(fn func() (front bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSwitchCamera = fn
}

// OnReset sets the callback invoked by "Reset Gesture".
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnSettings sets the callback invoked by "Open Settings...".
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback invoked by "Quit".
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
func (t *Tray) onReady() {
	systray.SetTitle("PoseGuard")
	systray.SetTooltip("PoseGuard: raise both hands")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle pose detection")
	t.menuCamera = systray.AddMenuItem(cameraTitle(t.front), "Switch between front and back camera")
	systray.AddSeparator()

	t.menuPhase = systray.AddMenuItem(phaseTitle(gesture.PhaseIdle, 0), "Gesture progress")
	t.menuPhase.Disable()
	t.menuLast = systray.AddMenuItem("Last: none", "Last confirmed gesture")
	t.menuLast.Disable()
	menuReset := systray.AddMenuItem("Reset Gesture", "Require a fresh hands-raised streak")
	systray.AddSeparator()
	t.mu.Unlock()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit PoseGuard")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuCamera.ClickedCh:
				t.handleSwitchCamera()
			case <-menuReset.ClickedCh:
				t.call(func() func() { return t.onReset })
			case <-menuSettings.ClickedCh:
				t.call(func() func() { return t.onSettings })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// call runs the callback selected by get outside the lock.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleToggle flips the enabled state and notifies the callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSwitchCamera asks the callback to switch and shows the result.
func (t *Tray) handleSwitchCamera() {
	t.mu.RLock()
	callback := t.onSwitchCamera
	t.mu.RUnlock()

	if callback == nil {
		return
	}
	t.SetFrontCamera(callback())
}

// SetFrontCamera updates the camera facing shown in the menu.
func (t *Tray) SetFrontCamera(front bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.front = front
	if t.menuCamera != nil {
		t.menuCamera.SetTitle(cameraTitle(front))
	}
}

// SetPhase shows the tracker progress in the menu.
func (t *Tray) SetPhase(phase gesture.Phase, count int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuPhase != nil {
		t.menuPhase.SetTitle(phaseTitle(phase, count))
	}
}

// SetLastConfirmation shows when the gesture was last confirmed.
func (t *Tray) SetLastConfirmation(at time.Time) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(at))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// FrontCamera returns the facing currently shown.
func (t *Tray) FrontCamera() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.front
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func cameraTitle(front bool) string {
	if front {
		return "Camera: Front (switch)"
	}
	return "Camera: Back (switch)"
}

func phaseTitle(phase gesture.Phase, count int) string {
	switch phase {
	case gesture.PhaseConfirmed:
		return "Hands raised ✓"
	case gesture.PhaseAccumulating:
		return fmt.Sprintf("Hands up... %d", count)
	default:
		return "Waiting for hands"
	}
}

func lastTitle(at time.Time) string {
	if at.IsZero() {
		return "Last: none"
	}
	return "Last: " + at.Format("15:04:05")
}
