// Package fake provides an in-memory sessionhost.Host, used by every test
// in the repo that does not need a real tmux binary. Its scrollback buffer
// is a bounded per-session eviction list: it evicts the oldest captured
// lines once a session's scrollback exceeds its configured cap.
package fake

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/daedalos/daedalos/internal/sessionhost"
)

const defaultScrollbackCap = 2000

type session struct {
	workdir string
	command string
	args    []string
	env     map[string]string
	pid     int
	paused  bool
	killed  bool
	lines   *list.List // of string, front = oldest
}

// Host is an in-memory sessionhost.Host. Zero value is not usable; use New.
type Host struct {
	mu            sync.Mutex
	sessions      map[string]*session
	scrollbackCap int
	nextPID       int
	attachCount   map[string]int
}

// New returns a ready-to-use fake Host. scrollbackCap bounds the number of
// lines retained per session (0 uses a sane default).
func New(scrollbackCap int) *Host {
	if scrollbackCap <= 0 {
		scrollbackCap = defaultScrollbackCap
	}
	return &Host{
		sessions:      make(map[string]*session),
		scrollbackCap: scrollbackCap,
		nextPID:       1000,
		attachCount:   make(map[string]int),
	}
}

var _ sessionhost.Host = (*Host)(nil)

func (h *Host) Create(_ context.Context, name, workdir, command string, args []string, env map[string]string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.sessions[name]; exists {
		return fmt.Errorf("session %q already exists", name)
	}
	h.nextPID++
	h.sessions[name] = &session{
		workdir: workdir,
		command: command,
		args:    append([]string(nil), args...),
		env:     env,
		pid:     h.nextPID,
		lines:   list.New(),
	}
	h.appendLocked(name, fmt.Sprintf("$ %s %s", command, strings.Join(args, " ")))
	return nil
}

func (h *Host) Exists(_ context.Context, name string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[name]
	return ok && !s.killed, nil
}

func (h *Host) SendKeys(_ context.Context, name, keys string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[name]
	if !ok || s.killed {
		return fmt.Errorf("send keys to %q: %w", name, sessionhost.ErrSessionGone)
	}
	h.appendLocked(name, keys)
	return nil
}

// appendLocked records a captured line, evicting the oldest once the
// session's scrollback cap is exceeded. Caller must hold h.mu.
func (h *Host) appendLocked(name, line string) {
	s := h.sessions[name]
	s.lines.PushBack(line)
	for s.lines.Len() > h.scrollbackCap {
		s.lines.Remove(s.lines.Front())
	}
}

// Feed lets tests inject synthetic output into a session's scrollback, as
// if the hosted process had written it.
func (h *Host) Feed(name, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[name]; !ok {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		h.appendLocked(name, line)
	}
}

func (h *Host) Capture(_ context.Context, name string, maxLines int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[name]
	if !ok || s.killed {
		return "", fmt.Errorf("capture %q: %w", name, sessionhost.ErrSessionGone)
	}

	all := make([]string, 0, s.lines.Len())
	for e := s.lines.Front(); e != nil; e = e.Next() {
		all = append(all, e.Value.(string))
	}
	if maxLines > 0 && len(all) > maxLines {
		all = all[len(all)-maxLines:]
	}
	return strings.Join(all, "\n"), nil
}

// Attach validates that name is live. There is no real terminal to
// connect to in tests, so beyond the check it only increments the
// session's attach count; tests asserting attach behavior should use
// AttachCount.
func (h *Host) Attach(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[name]
	if !ok || s.killed {
		return fmt.Errorf("attach to %q: %w", name, sessionhost.ErrSessionGone)
	}
	h.attachCount[name]++
	return nil
}

// AttachCount reports how many times Attach succeeded for name. Test
// helper, not part of the sessionhost.Host contract.
func (h *Host) AttachCount(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attachCount[name]
}

func (h *Host) PID(_ context.Context, name string) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[name]
	if !ok || s.killed {
		return 0, fmt.Errorf("pid of %q: %w", name, sessionhost.ErrSessionGone)
	}
	return s.pid, nil
}

func (h *Host) Pause(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[name]
	if !ok || s.killed {
		return fmt.Errorf("pause %q: %w", name, sessionhost.ErrSessionGone)
	}
	s.paused = true
	return nil
}

func (h *Host) Resume(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[name]
	if !ok || s.killed {
		return fmt.Errorf("resume %q: %w", name, sessionhost.ErrSessionGone)
	}
	s.paused = false
	return nil
}

func (h *Host) Kill(_ context.Context, name string, _ bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[name]
	if !ok {
		return nil // idempotent
	}
	s.killed = true
	return nil
}

// IsPaused reports whether a session is currently paused. Test helper, not
// part of the sessionhost.Host contract.
func (h *Host) IsPaused(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[name]
	return ok && s.paused
}
