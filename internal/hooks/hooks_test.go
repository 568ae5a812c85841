package hooks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_RunsMatchingEventScripts(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, nil)

	marker := filepath.Join(dir, "marker.txt")
	script := "#!/bin/sh\necho \"$DAEDALOS_EVENT:$DAEDALOS_AGENT_NAME\" > " + marker + "\n"
	require.NoError(t, m.Add(EventSpawn, "00-marker.sh", []byte(script)))

	m.Dispatch(context.Background(), EventSpawn, Context{AgentName: "alice"})

	got, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "on_spawn:alice\n", string(got))
}

func TestDispatch_NoHooksRegisteredIsNoop(t *testing.T) {
	m := New(t.TempDir(), nil)
	m.Dispatch(context.Background(), EventKill, Context{AgentName: "alice"})
}

func TestDispatch_FailingHookDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, nil)
	marker := filepath.Join(dir, "second-ran.txt")

	require.NoError(t, m.Add(EventComplete, "00-fails.sh", []byte("#!/bin/sh\nexit 1\n")))
	require.NoError(t, m.Add(EventComplete, "01-succeeds.sh", []byte("#!/bin/sh\ntouch "+marker+"\n")))

	m.Dispatch(context.Background(), EventComplete, Context{AgentName: "bob"})

	_, err := os.Stat(marker)
	assert.NoError(t, err)
}

func TestSetEnabled_DisabledHookIsSkipped(t *testing.T) {
	dir := t.TempDir()
	m := New(dir, nil)
	marker := filepath.Join(dir, "ran.txt")

	require.NoError(t, m.Add(EventSpawn, "00-hook.sh", []byte("#!/bin/sh\ntouch "+marker+"\n")))
	require.NoError(t, m.SetEnabled(EventSpawn, "00-hook.sh", false))

	m.Dispatch(context.Background(), EventSpawn, Context{AgentName: "alice"})

	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err))
}

func TestListAddRemove(t *testing.T) {
	m := New(t.TempDir(), nil)
	require.NoError(t, m.Add(EventKill, "a.sh", []byte("#!/bin/sh\n")))
	require.NoError(t, m.Add(EventKill, "b.sh", []byte("#!/bin/sh\n")))

	assert.Equal(t, []string{"a.sh", "b.sh"}, m.List(EventKill))

	require.NoError(t, m.Remove(EventKill, "a.sh"))
	assert.Equal(t, []string{"b.sh"}, m.List(EventKill))

	require.NoError(t, m.Remove(EventKill, "a.sh")) // idempotent
}
