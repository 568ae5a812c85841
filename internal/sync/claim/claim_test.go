package claim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/daedalos/daedalos/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	archive := filepath.Join(dir, "_archive")
	require.NoError(t, os.MkdirAll(archive, 0755))
	return New(dir, archive)
}

func TestCreate_IdempotentForSameOwner(t *testing.T) {
	s := newTestStore(t)
	c1, err := s.Create("task_1", "alice", "do the thing")
	require.NoError(t, err)

	c2, err := s.Create("task_1", "alice", "do the thing")
	require.NoError(t, err)
	assert.Equal(t, c1.ClaimedAt, c2.ClaimedAt)
}

func TestCreate_FailsForDifferentOwner(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("task_1", "alice", "desc")
	require.NoError(t, err)

	_, err = s.Create("task_1", "bob", "desc")
	require.Error(t, err)
	var re models.RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "AlreadyClaimed", re.ErrorCode())
}

func TestRelease_ArchivesClaim(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("task_1", "alice", "desc")
	require.NoError(t, err)

	require.NoError(t, s.Release("task_1", "alice", models.ClaimStatusCompleted))
	assert.False(t, s.Check("task_1"))

	_, ok := s.Get("task_1")
	assert.False(t, ok)
}

func TestRelease_NotOwnerFails(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("task_1", "alice", "desc")
	require.NoError(t, err)

	err = s.Release("task_1", "bob", models.ClaimStatusCompleted)
	require.Error(t, err)
	var re models.RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "NotOwner", re.ErrorCode())
}

func TestRelease_UnknownClaimFails(t *testing.T) {
	s := newTestStore(t)
	err := s.Release("ghost", "alice", models.ClaimStatusCompleted)
	require.Error(t, err)
	var re models.RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "UnknownClaim", re.ErrorCode())
}

func TestList_ReturnsActiveClaimsSorted(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("task_b", "alice", "")
	require.NoError(t, err)
	_, err = s.Create("task_a", "bob", "")
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "task_a", list[0].TaskID)
	assert.Equal(t, "task_b", list[1].TaskID)
}
