// Package sessionhost is the C2 SessionHost adapter: an opaque
// interface to an interactive-session backend. The core consumes only this
// interface; the real backend (tmux) and terminal multiplexing internals
// stay behind it.
package sessionhost

import (
	"context"
	"errors"
	"fmt"
)

// ErrSessionGone is returned by operations targeting a session that does
// not exist. Callers treat this as "the agent has died".
var ErrSessionGone = errors.New("session gone")

// Host creates, drives, and tears down interactive sessions hosting agent
// child processes. All operations are idempotent where possible.
type Host interface {
	// Create starts an interactive process bound to workdir, under the
	// given session name, with env injected into the child's environment.
	// command is the program to run (argv[0]) and args its arguments.
	Create(ctx context.Context, session, workdir, command string, args []string, env map[string]string) error

	// Exists reports whether session is currently live. Returns false
	// after Kill.
	Exists(ctx context.Context, session string) (bool, error)

	// SendKeys delivers keystrokes (including control sequences) to the
	// session. Best-effort non-blocking.
	SendKeys(ctx context.Context, session, keys string) error

	// Capture returns up to maxLines of the session's current scrollback
	// as UTF-8 text (most recent last). Must not block for more than a
	// small bounded time.
	Capture(ctx context.Context, session string, maxLines int) (string, error)

	// Attach connects the caller's terminal to session: switches the
	// client if the caller is already inside an interactive multiplexer
	// session, attaches directly otherwise. Blocks until the caller
	// detaches (or, for a switch, returns immediately).
	Attach(ctx context.Context, session string) error

	// PID returns the main child process id, or 0 if not yet known.
	PID(ctx context.Context, session string) (int, error)

	// Pause sends a stop signal to the session's child process.
	Pause(ctx context.Context, session string) error

	// Resume sends a continue signal to the session's child process.
	Resume(ctx context.Context, session string) error

	// Kill tears down the session. Without force it makes a brief
	// graceful attempt first and then tears the session down regardless;
	// with force it tears the session down directly.
	Kill(ctx context.Context, session string, force bool) error
}

// SessionName derives the deterministic session name for an agent: prefix
// "agent-" followed by the agent's registered name.
func SessionName(agentName string) string {
	return fmt.Sprintf("agent-%s", agentName)
}
