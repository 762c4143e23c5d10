package hook

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ManifestFile is the manifest name inside each hook directory.
const ManifestFile = "hook.json"

// ErrHookNotFound is returned when a requested hook cannot be found.
var ErrHookNotFound = errors.New("hook not found")

// Manager discovers hooks and dispatches gesture events to them.
type Manager struct {
	dir      string
	executor *Executor
	hooks    map[string]*Hook
	wg       sync.WaitGroup
	mu       sync.RWMutex
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

// Discover scans the hooks directory. A missing directory means no hooks;
// unreadable or malformed manifests are skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[string]*Hook)

	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
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
			log.Printf("Skipping hook %s: %v", entry.Name(), err)
			continue
		}
		if manifest.Name == "" {
			manifest.Name = entry.Name()
		}

		m.hooks[manifest.Name] = &Hook{
			Manifest:   manifest,
			Path:       hookPath,
			Executable: filepath.Join(hookPath, manifest.Executable),
		}
	}

	return nil
}

// Get returns a hook by name.
func (m *Manager) Get(name string) (*Hook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hooks[name]
	if !ok {
		return nil, ErrHookNotFound
	}
	return h, nil
}

// List returns the discovered hooks sorted by name.
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

// Dir returns the hooks directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Dispatch runs every hook subscribed to req.Event in the background and
// returns how many were started. Failures are logged.
func (m *Manager) Dispatch(ctx context.Context, req Request) int {
	started := 0
	for _, h := range m.List() {
		if !h.Manifest.Wants(req.Event) {
			continue
		}
		started++
		m.wg.Add(1)
		go func(h *Hook) {
			defer m.wg.Done()
			resp, err := m.executor.Execute(ctx, h, &req)
			if err != nil {
				log.Printf("Hook error: %v", err)
				return
			}
			if !resp.Success {
				log.Printf("Hook %s reported failure: %s", h.Manifest.Name, resp.Error)
			}
		}(h)
	}
	return started
}

// Wait blocks until every dispatched hook has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
