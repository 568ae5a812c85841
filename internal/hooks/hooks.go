// Package hooks implements the lifecycle hook contract: executable scripts in named event directories, invoked with
// event context as environment variables. A hook's failure is logged but
// never blocks the triggering action.
package hooks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"
)

// Event names the lifecycle moments that dispatch hooks.
type Event string

const (
	EventSpawn            Event = "on_spawn"
	EventComplete         Event = "on_complete"
	EventError            Event = "on_error"
	EventKill             Event = "on_kill"
	EventWorkflowComplete Event = "on_workflow_complete"
)

const defaultTimeout = 10 * time.Second

// Context carries the environment variables passed to every hook script
// invocation for a given event.
type Context struct {
	AgentName string
	Data      string
	Project   string
	Template  string
	Status    string
}

// Manager dispatches hook scripts found under <data-root>/hooks/<event>/.
type Manager struct {
	dir     string
	log     *slog.Logger
	timeout time.Duration
}

// New returns a Manager rooted at dir (<data-root>/hooks).
func New(dir string, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{dir: dir, log: log, timeout: defaultTimeout}
}

func (m *Manager) eventDir(event Event) string {
	return filepath.Join(m.dir, string(event))
}

// Dispatch runs every executable hook script registered for event, in
// name order, passing ctx as environment variables. A failing hook is
// logged and does not stop the remaining hooks or the caller.
func (m *Manager) Dispatch(ctx context.Context, event Event, hctx Context) {
	entries, err := os.ReadDir(m.eventDir(event))
	if err != nil {
		return // no hooks registered for this event
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(m.eventDir(event), name)
		info, err := os.Stat(path)
		if err != nil || info.Mode()&0111 == 0 {
			continue // not executable
		}
		if err := m.run(ctx, path, event, hctx); err != nil {
			m.log.Warn("hook failed", "event", string(event), "script", path, "error", err)
		}
	}
}

func (m *Manager) run(ctx context.Context, path string, event Event, hctx Context) error {
	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path) //nolint:gosec // G204: operator-authored hook scripts under the data root
	cmd.Env = append(os.Environ(),
		"DAEDALOS_EVENT="+string(event),
		"DAEDALOS_AGENT_NAME="+hctx.AgentName,
		"DAEDALOS_HOOK_DATA="+hctx.Data,
	)
	if hctx.Project != "" {
		cmd.Env = append(cmd.Env, "DAEDALOS_AGENT_PROJECT="+hctx.Project)
	}
	if hctx.Template != "" {
		cmd.Env = append(cmd.Env, "DAEDALOS_AGENT_TEMPLATE="+hctx.Template)
	}
	if hctx.Status != "" {
		cmd.Env = append(cmd.Env, "DAEDALOS_AGENT_STATUS="+hctx.Status)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w (stderr: %s)", path, err, stderr.String())
	}
	return nil
}

// List returns the hook script names registered for event.
func (m *Manager) List(event Event) []string {
	entries, err := os.ReadDir(m.eventDir(event))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Add installs a hook script's content under event with the given name,
// marking it executable.
func (m *Manager) Add(event Event, name string, content []byte) error {
	dir := m.eventDir(event)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create hook event dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0755); err != nil {
		return fmt.Errorf("write hook script: %w", err)
	}
	return nil
}

// Remove deletes a hook script. Idempotent.
func (m *Manager) Remove(event Event, name string) error {
	err := os.Remove(filepath.Join(m.eventDir(event), name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SetEnabled toggles a hook script's executable bit, the disable
// mechanism: a non-executable script is skipped by Dispatch without being
// removed.
func (m *Manager) SetEnabled(event Event, name string, enabled bool) error {
	path := filepath.Join(m.eventDir(event), name)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat hook script: %w", err)
	}
	mode := info.Mode()
	if enabled {
		mode |= 0111
	} else {
		mode &^= 0111
	}
	return os.Chmod(path, mode)
}
