package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/daedalos/daedalos/internal/app"
	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/registry"
	"github.com/daedalos/daedalos/internal/sessionhost/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplate(name string) (models.Template, error) {
	return models.Template{Name: name, BaseArgs: []string{"agent-cli"}, OnComplete: "signal"}, nil
}

func newTestManager(t *testing.T) (*Manager, *fake.Host, string) {
	t.Helper()
	root := t.TempDir()
	reg, err := registry.Open(filepath.Join(root, "agents.json"))
	require.NoError(t, err)

	host := fake.New(0)
	project := t.TempDir()

	idN := 0
	m := &Manager{
		Registry:     reg,
		Host:         host,
		Paths:        app.NewPaths(root),
		MaxSlots:     9,
		LoadTemplate: testTemplate,
		NewID: func() string {
			idN++
			return "snap-" + strconv.Itoa(idN)
		},
	}
	return m, host, project
}

func TestSpawn_CreatesSessionAndRegistersAgent(t *testing.T) {
	m, host, project := newTestManager(t)
	ctx := context.Background()

	agent, err := m.Spawn(ctx, "alice", project, "default", "build the thing", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, agent.Slot)
	assert.Equal(t, "agent-alice", agent.SessionHandle)

	exists, err := host.Exists(ctx, "agent-alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSpawn_RejectsMissingProject(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.Spawn(context.Background(), "alice", "/no/such/dir", "default", "task", nil)
	require.Error(t, err)
	var re models.RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "ProjectMissing", re.ErrorCode())
}

func TestSpawn_RejectsDuplicateName(t *testing.T) {
	m, _, project := newTestManager(t)
	ctx := context.Background()
	_, err := m.Spawn(ctx, "alice", project, "default", "task", nil)
	require.NoError(t, err)

	_, err = m.Spawn(ctx, "alice", project, "default", "task2", nil)
	require.Error(t, err)
	var re models.RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "DuplicateName", re.ErrorCode())
}

func TestKill_RemovesRegistryEntryAndSession(t *testing.T) {
	m, host, project := newTestManager(t)
	ctx := context.Background()
	_, err := m.Spawn(ctx, "alice", project, "default", "task", nil)
	require.NoError(t, err)

	require.NoError(t, m.Kill(ctx, "alice", false))

	_, ok := m.Registry.Lookup("alice")
	assert.False(t, ok)

	exists, err := host.Exists(ctx, "agent-alice")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPauseResume(t *testing.T) {
	m, host, project := newTestManager(t)
	ctx := context.Background()
	_, err := m.Spawn(ctx, "alice", project, "default", "task", nil)
	require.NoError(t, err)

	require.NoError(t, m.Pause(ctx, "alice"))
	assert.True(t, host.IsPaused("agent-alice"))

	agent, _ := m.Registry.Lookup("alice")
	assert.Equal(t, models.StatusPaused, agent.Status)

	require.NoError(t, m.Resume(ctx, "alice"))
	assert.False(t, host.IsPaused("agent-alice"))
}

func TestSnapshotAndRestore_RoundTrip(t *testing.T) {
	m, _, project := newTestManager(t)
	ctx := context.Background()
	_, err := m.Spawn(ctx, "alice", project, "default", "task", nil)
	require.NoError(t, err)

	id, err := m.Snapshot(ctx, nil, "before cleanup")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, m.Kill(ctx, "alice", true))
	_, ok := m.Registry.Lookup("alice")
	require.False(t, ok)

	restored, err := m.Restore(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, restored)

	_, ok = m.Registry.Lookup("alice")
	assert.True(t, ok)
}

func TestRestore_SkipsLiveNameCollision(t *testing.T) {
	m, _, project := newTestManager(t)
	ctx := context.Background()
	_, err := m.Spawn(ctx, "alice", project, "default", "task", nil)
	require.NoError(t, err)

	id, err := m.Snapshot(ctx, nil, "")
	require.NoError(t, err)

	// alice is still live; restore should skip her rather than error.
	restored, err := m.Restore(ctx, id, "")
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestSnapshot_CapturesGitDiffWhenUnderVersionControl(t *testing.T) {
	m, _, project := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(project, ".git"), 0755))

	_, err := m.Spawn(ctx, "alice", project, "default", "task", nil)
	require.NoError(t, err)

	id, err := m.Snapshot(ctx, nil, "")
	require.NoError(t, err)

	// git is not guaranteed runnable in this sandbox; scrollback is.
	_, err = os.Stat(filepath.Join(m.Paths.SnapshotsDir(), id, "alice", "scrollback.txt"))
	assert.NoError(t, err)
}

func TestFocus_ResolvesAlias(t *testing.T) {
	m, _, project := newTestManager(t)
	ctx := context.Background()
	_, err := m.Spawn(ctx, "alice", project, "default", "task", nil)
	require.NoError(t, err)

	handle, err := m.Focus(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "agent-alice", handle)
}
