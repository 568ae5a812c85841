// Package signal implements the completion-signal primitive:
// one-shot per-agent completion records an agent writes and other
// processes poll for.
package signal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/daedalos/daedalos/internal/fsatomic"
	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/sync/watch"
)

// CompletionHook is invoked after a completion signal is written, the
// on_complete dispatch point. Satisfied by
// internal/hooks.Manager.Dispatch, adapted to this narrower signature by
// a closure in internal/env.Build.
type CompletionHook func(agent string, status models.SignalStatus, data string)

// Store persists completion signals under one file per agent.
type Store struct {
	dir    string
	onDone CompletionHook
}

// New returns a Store rooted at dir (<data-root>/signals). onDone may be
// nil if no completion hook dispatch is wired.
func New(dir string, onDone CompletionHook) *Store {
	return &Store{dir: dir, onDone: onDone}
}

func (s *Store) path(agent string) string {
	return filepath.Join(s.dir, agent+".json")
}

// Complete records a completion signal, overwriting any prior one.
func (s *Store) Complete(agent string, status models.SignalStatus, data string) error {
	sig := models.CompletionSignal{
		Agent:     agent,
		Status:    status,
		Timestamp: time.Now(),
		Data:      data,
	}
	if err := fsatomic.WriteJSON(s.path(agent), sig, 0644); err != nil {
		return err
	}
	if s.onDone != nil {
		s.onDone(agent, status, data)
	}
	return nil
}

// Check reports whether a completion signal exists for agent.
func (s *Store) Check(agent string) bool {
	return fsatomic.Exists(s.path(agent))
}

// Get returns the completion signal for agent, if any.
func (s *Store) Get(agent string) (models.CompletionSignal, bool) {
	var sig models.CompletionSignal
	if err := fsatomic.ReadJSON(s.path(agent), &sig); err != nil {
		return models.CompletionSignal{}, false
	}
	return sig, true
}

// Clear removes any completion signal for agent.
func (s *Store) Clear(agent string) error {
	err := os.Remove(s.path(agent))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Wait blocks until Check(agent) returns true, timeout elapses, or ctx is
// canceled, waking on filesystem change events under dir where possible
// (internal/sync/watch) and falling back to plain polling otherwise.
func (s *Store) Wait(ctx context.Context, agent string, timeout, pollInterval time.Duration) bool {
	err := watch.Until(ctx, s.dir, timeout, pollInterval, func() (bool, error) {
		return s.Check(agent), nil
	})
	return err == nil
}

// WaitAll blocks until every agent in agents has a completion signal, the
// timeout elapses, or ctx is canceled.
func (s *Store) WaitAll(ctx context.Context, agents []string, timeout, pollInterval time.Duration) bool {
	err := watch.Until(ctx, s.dir, timeout, pollInterval, func() (bool, error) {
		for _, a := range agents {
			if !s.Check(a) {
				return false, nil
			}
		}
		return true, nil
	})
	return err == nil
}
