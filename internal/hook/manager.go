package hook

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ayusman/poseguard/internal/monitoring"
)

// ErrHookNotFound is returned when a requested hook cannot be found.
var ErrHookNotFound = errors.New("hook not found")

// Manager discovers hooks and dispatches events to them.
type Manager struct {
	dir      string
	executor *Executor

	mu    sync.RWMutex
	hooks map[string]*Hook
}

// NewManager creates a Manager for the hooks under dir.
func NewManager(dir string, executor *Executor) *Manager {
	if executor == nil {
		executor = NewExecutor(DefaultTimeout)
	}
	return &Manager{
		dir:      dir,
		executor: executor,
		hooks:    make(map[string]*Hook),
	}
}

// Discover scans dir for subdirectories holding a hook.json manifest.
// Unreadable or invalid manifests are skipped. A missing dir is not an error.
func (m *Manager) Discover() error {
	hooks := make(map[string]*Hook)

	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		m.replace(hooks)
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		m.replace(hooks)
		return nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		hookPath := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(hookPath, ManifestFile))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			monitoring.Logf("hook: skipping %s: invalid manifest: %v", entry.Name(), err)
			continue
		}
		if manifest.Name == "" {
			manifest.Name = entry.Name()
		}
		if manifest.Executable == "" {
			continue
		}

		hooks[manifest.Name] = &Hook{
			Manifest:   manifest,
			Path:       hookPath,
			Executable: filepath.Join(hookPath, manifest.Executable),
		}
	}

	m.replace(hooks)
	return nil
}

func (m *Manager) replace(hooks map[string]*Hook) {
	m.mu.Lock()
	m.hooks = hooks
	m.mu.Unlock()
}

// Get returns a hook by name, or ErrHookNotFound.
func (m *Manager) Get(name string) (*Hook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hooks[name]
	if !ok {
		return nil, ErrHookNotFound
	}
	return h, nil
}

// List returns all discovered hooks sorted by name.
func (m *Manager) List() []*Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hooks := make([]*Hook, 0, len(m.hooks))
	for _, h := range m.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool {
		return hooks[i].Manifest.Name < hooks[j].Manifest.Name
	})
	return hooks
}

// Dir returns the hook directory path.
func (m *Manager) Dir() string {
	return m.dir
}

// Outcome is the result of running one hook.
type Outcome struct {
	Hook     string
	Response *Response
	Err      error
}

// Dispatch runs every hook subscribed to req.Event, one after another, and
// returns one Outcome per hook. Failures are logged and do not stop the rest.
func (m *Manager) Dispatch(ctx context.Context, req *Request) []Outcome {
	var outcomes []Outcome
	for _, h := range m.List() {
		if !h.Handles(req.Event) {
			continue
		}

		resp, err := m.executor.Execute(ctx, h, req)
		if err == nil && !resp.Success {
			msg := resp.Error
			if msg == "" {
				msg = "reported failure"
			}
			err = errors.New(msg)
		}
		if err != nil {
			monitoring.Logf("hook: %s: %v", h.Manifest.Name, err)
		}
		outcomes = append(outcomes, Outcome{Hook: h.Manifest.Name, Response: resp, Err: err})
	}
	return outcomes
}
