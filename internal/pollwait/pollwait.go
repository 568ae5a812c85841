// Package pollwait implements the bounded polling loop used by every
// blocking synchronization primitive (lock acquire, completion-signal
// wait/wait_all). It polls the filesystem directly; internal/sync/watch
// wraps this loop with an fsnotify-backed fast path and falls back to it
// wherever a watch cannot be established.
package pollwait

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrTimeout is returned by Until when the deadline elapses before check
// reports true.
var ErrTimeout = errors.New("timed out waiting for condition")

// Until polls check every interval until it returns true, ctx is
// cancelled, or timeout elapses. Returns nil on success, ErrTimeout on
// expiry, or ctx.Err() if the context was cancelled first.
//
// Same constant-backoff shape (no jitter) as a SQL-write retry loop,
// generalized to polling a filesystem predicate to true instead.
func Until(ctx context.Context, timeout, interval time.Duration, check func() (bool, error)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	deadline := time.Now().Add(timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	b := backoff.NewConstantBackOff(interval)

	err := backoff.Retry(func() error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return backoff.Permanent(ctxErr)
		}
		ok, err := check()
		if err != nil {
			return backoff.Permanent(err)
		}
		if ok {
			return nil
		}
		return errNotYet
	}, backoff.WithContext(b, ctx))

	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return err
}

var errNotYet = errors.New("condition not yet satisfied")
