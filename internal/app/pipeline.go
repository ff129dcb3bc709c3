package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/poseguard/internal/analyzer"
	"github.com/ayusman/poseguard/internal/capture"
	"github.com/ayusman/poseguard/internal/gesture"
	"github.com/ayusman/poseguard/internal/hook"
	"github.com/ayusman/poseguard/internal/store"
)

// runCamera reads frames at the configured rate and hands them to the inbox.
// The inbox keeps only the newest frame, so a slow analyzer never builds a
// backlog.
func (a *App) runCamera(stopCh <-chan struct{}, inbox *capture.Inbox) {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			if !frame.Empty() {
				a.setPreview(frame.UprightCopy())
			}

			if err := inbox.Publish(frame); err != nil {
				if errors.Is(err, capture.ErrInboxClosed) {
					return
				}
				log.Printf("Error publishing frame: %v", err)
			}
		}
	}
}

// runAnalysis is the single analysis worker.
func (a *App) runAnalysis(an *analyzer.Analyzer, inbox *capture.Inbox) {
	defer a.wg.Done()
	an.Run(inbox, a.Viewport)
}

// runNavigator reacts to confirmed gestures until stopped.
func (a *App) runNavigator(ctx context.Context, stopCh <-chan struct{}) {
	defer a.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		case state := <-a.tracker.Confirmations():
			a.handleConfirmation(ctx, state)
		}
	}
}

// handleConfirmation records the confirmation, runs hooks, notifies
// callbacks and finally resets the tracker so a new streak is needed. The
// reset is skipped when the tracker has moved on to a newer confirmation
// while hooks were running.
func (a *App) handleConfirmation(ctx context.Context, state gesture.State) {
	defer a.tracker.ResetIf(state.Generation)

	snapshot, err := json.Marshal(state.Snapshot)
	if err != nil {
		log.Printf("Failed to encode snapshot: %v", err)
		snapshot = nil
	}

	c := &store.Confirmation{
		ID:          uuid.NewString(),
		SessionID:   a.SessionID(),
		ConfirmedAt: time.Now(),
		Frames:      state.Count,
		Snapshot:    snapshot,
	}

	if a.config.Store != nil && c.SessionID != "" {
		if err := a.config.Store.Confirmations().Create(c); err != nil {
			log.Printf("Failed to record confirmation: %v", err)
		}
	}

	a.confirmations.Add(1)
	a.last.Store(c)
	log.Printf("Hands raised confirmed after %d frames (confirmation %s)", state.Count, c.ID)

	a.hookMgr.Dispatch(ctx, &hook.Request{
		Event:          hook.EventHandsRaised,
		SessionID:      c.SessionID,
		ConfirmationID: c.ID,
		ConfirmedAt:    c.ConfirmedAt,
		Frames:         c.Frames,
		Snapshot:       state.Snapshot,
	})

	a.mu.RLock()
	callbacks := append([]ConfirmationCallback(nil), a.callbacks...)
	a.mu.RUnlock()

	for _, fn := range callbacks {
		fn(c)
	}
}
