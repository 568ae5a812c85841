// Package watch provides an fsnotify-backed fast path for the polling
// loops in internal/pollwait. Every blocking synchronization primitive
// (signal wait, lock acquire) is correct under plain polling alone; this
// package only shortens the average latency between a filesystem write
// and the waiter noticing it, by waking on a directory change event
// instead of sleeping out a full poll interval.
//
// When a watcher cannot be established (missing directory, platform
// without inotify/kqueue support, too many open watches) Until falls back
// to internal/pollwait.Until unconditionally, so callers never need a
// separate error path for the no-watch case.
package watch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/daedalos/daedalos/internal/pollwait"
)

// Until polls check, waking either on a change event under dir or on
// pollInterval, until check reports true, ctx is canceled, or timeout
// elapses. Semantics otherwise match pollwait.Until.
func Until(ctx context.Context, dir string, timeout, pollInterval time.Duration, check func() (bool, error)) error {
	if pollInterval <= 0 {
		pollInterval = 250 * time.Millisecond
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return pollwait.Until(ctx, timeout, pollInterval, check)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return pollwait.Until(ctx, timeout, pollInterval, check)
	}

	deadline := time.Now().Add(timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := check()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return pollwait.ErrTimeout
			}
			return ctx.Err()
		case <-watcher.Events:
			// Any event (create/write/rename) is cause to re-check;
			// the caller's check function is the source of truth.
		case err := <-watcher.Errors:
			if err != nil {
				return err
			}
		case <-ticker.C:
			// Guards against missed or coalesced events.
		}
	}
}
