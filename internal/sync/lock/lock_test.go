package lock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/daedalos/daedalos/internal/fsatomic"
	"github.com/daedalos/daedalos/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	ok, err := s.Acquire(ctx, "build", "alice", time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.Check("build"))

	require.NoError(t, s.Release("build", "alice"))
	assert.False(t, s.Check("build"))
}

func TestAcquire_ExclusiveUntilReleased(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	ok, err := s.Acquire(ctx, "build", "alice", time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Acquire(ctx, "build", "bob", 30*time.Millisecond, 5*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "bob must not acquire while alice holds the lock")
}

func TestRelease_NotOwnerFails(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	_, err := s.Acquire(ctx, "build", "alice", time.Second, 5*time.Millisecond)
	require.NoError(t, err)

	err = s.Release("build", "bob")
	require.Error(t, err)
	var re models.RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "NotOwner", re.ErrorCode())
}

func TestRelease_NotHeldIsNoop(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Release("ghost", "alice"))
}

func TestAcquire_ReclaimsStaleLock(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	// Fabricate a lock directory held by a PID guaranteed to be dead.
	lockDir := filepath.Join(dir, "build")
	require.NoError(t, os.Mkdir(lockDir, 0755))
	stale := models.Lock{Name: "build", Owner: "ghost", AcquiredAt: time.Now(), HolderPID: deadPID()}
	require.NoError(t, fsatomic.WriteJSON(filepath.Join(lockDir, metaFile), stale, 0644))

	ok, err := s.Acquire(context.Background(), "build", "bob", time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	info, held := s.Info("build")
	require.True(t, held)
	assert.Equal(t, "bob", info.Owner)
}

func TestList_ReturnsHeldLocksSorted(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()
	_, err := s.Acquire(ctx, "zeta", "alice", time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	_, err = s.Acquire(ctx, "alpha", "bob", time.Second, 5*time.Millisecond)
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[1].Name)
}

// deadPID returns a PID that is very unlikely to correspond to a live
// process, for exercising stale-lock reclaim deterministically.
func deadPID() int {
	return 1 << 30
}
