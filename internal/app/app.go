// Package app wires the camera, pose analyzer, gesture tracker and
// confirmation hooks into the running poseguard pipeline.
package app

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/poseguard/internal/analyzer"
	"github.com/ayusman/poseguard/internal/capture"
	"github.com/ayusman/poseguard/internal/detector"
	"github.com/ayusman/poseguard/internal/gesture"
	"github.com/ayusman/poseguard/internal/hook"
	"github.com/ayusman/poseguard/internal/store"
)

// Config holds configuration options for the application.
type Config struct {
	Store          *store.Store
	HookDir        string
	HookTimeout    time.Duration
	CameraID       int
	FPS            int
	Rotation       int // clockwise degrees to make camera frames upright
	MinLikelihood  float64
	RequiredFrames int
	Viewport       analyzer.Viewport

	// Camera and Detector override the real devices, mainly for tests.
	Camera   capture.Camera
	Detector detector.Detector
}

// Stats aggregates pipeline counters.
type Stats struct {
	Inbox         capture.InboxStats `json:"inbox"`
	Analyzer      analyzer.Stats     `json:"analyzer"`
	Confirmations int64              `json:"confirmations"`
}

// ConfirmationCallback is invoked after a confirmation has been recorded.
type ConfirmationCallback func(c *store.Confirmation)

// App is the main application that runs the pose pipeline and reacts to
// confirmed gestures.
type App struct {
	config   Config
	camera   capture.Camera
	tracker  *gesture.Tracker
	hookMgr  *hook.Manager
	enabled  atomic.Bool
	viewport atomic.Pointer[analyzer.Viewport]

	mu        sync.RWMutex
	detector  detector.Detector
	analyzer  *analyzer.Analyzer
	inbox     *capture.Inbox
	stopCh    chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	sessionID string
	callbacks []ConfirmationCallback

	previewMu sync.Mutex
	preview   *gocv.Mat

	confirmations atomic.Int64
	last          atomic.Pointer[store.Confirmation]
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	if config.MinLikelihood <= 0 {
		config.MinLikelihood = analyzer.DefaultMinLikelihood
	}

	a := &App{
		config:   config,
		camera:   config.Camera,
		detector: config.Detector,
		tracker:  gesture.NewTracker(config.RequiredFrames),
		hookMgr:  hook.NewManager(config.HookDir, hook.NewExecutor(config.HookTimeout)),
	}
	a.enabled.Store(true)

	vp := config.Viewport
	if config.Store != nil {
		settings := config.Store.Settings()
		vp.FrontCamera = settings.GetBool(store.SettingFrontCamera, vp.FrontCamera)
		a.config.CameraID = settings.GetInt(store.SettingCameraID, config.CameraID)
	}
	a.viewport.Store(&vp)

	if a.camera == nil {
		a.camera = capture.NewCamera(a.config.CameraID)
	}

	if a.detector == nil {
		// Try MediaPipe first, fall back to mock detector
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			a.detector = mp
			log.Println("Using MediaPipe pose detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a
}

// SetEnabled enables or disables frame capture. While disabled no frames
// reach the analyzer and the tracker keeps its last state.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

// IsEnabled returns whether frame capture is currently enabled.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// SetDetector sets the pose detector used by the next Start.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Tracker returns the gesture tracker.
func (a *App) Tracker() *gesture.Tracker {
	return a.tracker
}

// HookManager returns the confirmation hook manager.
func (a *App) HookManager() *hook.Manager {
	return a.hookMgr
}

// DiscoverHooks scans the hook directory and loads available hooks.
func (a *App) DiscoverHooks() error {
	return a.hookMgr.Discover()
}

// OnConfirmation registers fn to run after every recorded confirmation.
func (a *App) OnConfirmation(fn ConfirmationCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

// Viewport returns the display area frames are mapped into.
func (a *App) Viewport() analyzer.Viewport {
	return *a.viewport.Load()
}

// SetViewport replaces the display area. A viewport that is not ready is
// accepted; frames are rejected until a usable one arrives. A change of
// facing is persisted.
func (a *App) SetViewport(vp analyzer.Viewport) error {
	prev := a.viewport.Swap(&vp)
	if prev.FrontCamera != vp.FrontCamera && a.config.Store != nil {
		return a.config.Store.Settings().SetBool(store.SettingFrontCamera, vp.FrontCamera)
	}
	return nil
}

// SwitchCamera flips between the front and back facing and returns the new
// facing.
func (a *App) SwitchCamera() (front bool, err error) {
	vp := a.Viewport()
	vp.FrontCamera = !vp.FrontCamera
	if err := a.SetViewport(vp); err != nil {
		return vp.FrontCamera, err
	}
	log.Printf("Switched to %s camera", facing(vp.FrontCamera))
	return vp.FrontCamera, nil
}

// CameraDevice returns the capture device id.
func (a *App) CameraDevice() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.CameraID
}

// SetCameraDevice rebinds the capture device and remembers the choice.
func (a *App) SetCameraDevice(id int) error {
	if err := a.camera.SetDevice(id); err != nil {
		return err
	}

	a.mu.Lock()
	a.config.CameraID = id
	a.mu.Unlock()

	log.Printf("Switched to camera device %d", id)
	if a.config.Store != nil {
		return a.config.Store.Settings().SetInt(store.SettingCameraID, id)
	}
	return nil
}

// State returns the latest gesture state.
func (a *App) State() gesture.State {
	return a.tracker.State()
}

// Required returns the number of consecutive frames needed to confirm.
func (a *App) Required() int {
	return a.tracker.Required()
}

// Reset clears the gesture state so a fresh streak is required.
func (a *App) Reset() {
	a.tracker.Reset()
}

// SessionID returns the id of the running session, or "" when stopped.
func (a *App) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

// LastConfirmation returns the most recent confirmation, if any.
func (a *App) LastConfirmation() *store.Confirmation {
	return a.last.Load()
}

// Stats returns the pipeline counters.
func (a *App) Stats() Stats {
	a.mu.RLock()
	inbox, an := a.inbox, a.analyzer
	a.mu.RUnlock()

	var s Stats
	if inbox != nil {
		s.Inbox = inbox.Stats()
	}
	if an != nil {
		s.Analyzer = an.Stats()
	}
	s.Confirmations = a.confirmations.Load()
	return s
}

// LatestFrame returns a copy of the most recent camera frame. The caller
// owns the returned Mat and must close it.
func (a *App) LatestFrame() (gocv.Mat, bool) {
	a.previewMu.Lock()
	defer a.previewMu.Unlock()

	if a.preview == nil || a.preview.Empty() {
		return gocv.NewMat(), false
	}
	return a.preview.Clone(), true
}

func (a *App) setPreview(mat gocv.Mat) {
	a.previewMu.Lock()
	defer a.previewMu.Unlock()

	if a.preview != nil {
		a.preview.Close()
	}
	a.preview = &mat
}

func (a *App) clearPreview() {
	a.previewMu.Lock()
	defer a.previewMu.Unlock()

	if a.preview != nil {
		a.preview.Close()
		a.preview = nil
	}
}

// Start opens the camera and begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.config.FPS)
	a.camera.SetRotation(a.config.Rotation)

	a.sessionID = uuid.NewString()
	if a.config.Store != nil {
		err := a.config.Store.Sessions().Create(&store.Session{
			ID:          a.sessionID,
			CameraID:    a.config.CameraID,
			FrontCamera: a.Viewport().FrontCamera,
		})
		if err != nil {
			log.Printf("Failed to record session: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.stopCh = make(chan struct{})
	a.inbox = capture.NewInbox()
	a.analyzer = analyzer.New(a.detector, a.tracker, analyzer.WithMinLikelihood(a.config.MinLikelihood))

	a.wg.Add(3)
	go a.runCamera(a.stopCh, a.inbox)
	go a.runAnalysis(a.analyzer, a.inbox)
	go a.runNavigator(ctx, a.stopCh)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the pipeline. Pending frames are released and the in-flight
// analysis is awaited before the camera and detector are closed.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, cancel, inbox, an := a.stopCh, a.cancel, a.inbox, a.analyzer
	sessionID := a.sessionID
	a.stopCh = nil
	a.cancel = nil
	a.sessionID = ""
	a.mu.Unlock()

	if stopCh == nil {
		return
	}

	close(stopCh)
	cancel()
	inbox.Close()
	a.wg.Wait()
	an.Wait()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	if a.config.Store != nil {
		if err := a.config.Store.Sessions().End(sessionID, time.Now()); err != nil {
			log.Printf("Failed to end session: %v", err)
		}
	}

	a.clearPreview()
	log.Println("Detection pipeline stopped")
}

func facing(front bool) string {
	if front {
		return "front"
	}
	return "back"
}
