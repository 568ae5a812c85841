// Package lock implements advisory mutual-exclusion locks.
// The mutex primitive is atomic directory creation: the winner of an
// os.Mkdir race holds the lock. A metadata file inside the directory
// records the holder and its PID, so a later acquirer can detect and
// reclaim a lock whose holder process has died.
package lock

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/daedalos/daedalos/internal/fsatomic"
	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/pollwait"
	"github.com/daedalos/daedalos/internal/sync/watch"
)

const metaFile = "holder.json"

// Store persists locks as one subdirectory per lock name under dir.
type Store struct {
	dir string
}

// New returns a Store rooted at dir (<data-root>/locks).
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) lockDir(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) metaPath(name string) string {
	return filepath.Join(s.lockDir(name), metaFile)
}

// Acquire attempts to take the lock within timeout, polling on contention.
// If the current holder's PID is no longer a live process, the lock is
// reclaimed (stale-lock recovery).
func (s *Store) Acquire(ctx context.Context, name, owner string, timeout, pollInterval time.Duration) (bool, error) {
	err := watch.Until(ctx, s.dir, timeout, pollInterval, func() (bool, error) {
		return s.tryAcquire(name, owner)
	})
	if err == pollwait.ErrTimeout {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) tryAcquire(name, owner string) (bool, error) {
	dir := s.lockDir(name)
	created, err := fsatomic.Mkdir(dir)
	if err != nil {
		return false, err
	}
	if created {
		return s.writeHolder(name, owner)
	}

	// Contended: check for a stale holder.
	info, ok := s.readHolder(name)
	if !ok {
		// Directory exists but metadata is missing/corrupt; treat as stale.
		return s.writeHolder(name, owner)
	}
	if processAlive(info.HolderPID) {
		return false, nil
	}
	return s.writeHolder(name, owner)
}

func (s *Store) writeHolder(name, owner string) (bool, error) {
	info := models.Lock{
		Name:       name,
		Owner:      owner,
		AcquiredAt: time.Now(),
		HolderPID:  os.Getpid(),
	}
	if err := fsatomic.WriteJSON(s.metaPath(name), info, 0644); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) readHolder(name string) (models.Lock, bool) {
	var info models.Lock
	if err := fsatomic.ReadJSON(s.metaPath(name), &info); err != nil {
		return models.Lock{}, false
	}
	return info, true
}

// Release drops the lock if owned by owner. No-op if not held; fails with
// NotOwner if held by someone else.
func (s *Store) Release(name, owner string) error {
	info, ok := s.readHolder(name)
	if !ok {
		return nil
	}
	if info.Owner != owner {
		return models.ErrNotOwner(name, info.Owner)
	}
	return os.RemoveAll(s.lockDir(name))
}

// Check reports whether name is currently held (by a live holder).
func (s *Store) Check(name string) bool {
	info, ok := s.readHolder(name)
	if !ok {
		return false
	}
	return processAlive(info.HolderPID)
}

// Info returns the current holder record for name, if held.
func (s *Store) Info(name string) (models.Lock, bool) {
	info, ok := s.readHolder(name)
	if !ok || !processAlive(info.HolderPID) {
		return models.Lock{}, false
	}
	return info, true
}

// List returns every currently-held lock, sorted by name.
func (s *Store) List() []models.Lock {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var out []models.Lock
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if info, ok := s.readHolder(e.Name()); ok && processAlive(info.HolderPID) {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// processAlive reports whether pid refers to a live process. On POSIX
// systems, signal 0 performs existence/permission checks without
// delivering a signal.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
