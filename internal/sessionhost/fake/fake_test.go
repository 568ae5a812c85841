package fake

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/daedalos/daedalos/internal/sessionhost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndCapture(t *testing.T) {
	h := New(0)
	ctx := context.Background()

	require.NoError(t, h.Create(ctx, "agent-alice", "/work", "claude", nil, map[string]string{"AGENT_NAME": "alice"}))

	exists, err := h.Exists(ctx, "agent-alice")
	require.NoError(t, err)
	assert.True(t, exists)

	h.Feed("agent-alice", "hello\nworld")
	out, err := h.Capture(ctx, "agent-alice", 10)
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "world")
}

func TestCaptureMaxLinesTruncates(t *testing.T) {
	h := New(0)
	ctx := context.Background()
	require.NoError(t, h.Create(ctx, "s1", "/work", "cmd", nil, nil))

	for i := 0; i < 20; i++ {
		h.Feed("s1", "line"+strconv.Itoa(i))
	}

	out, err := h.Capture(ctx, "s1", 3)
	require.NoError(t, err)
	assert.NotContains(t, out, "line0")
	assert.Contains(t, out, "line19")
}

func TestScrollbackEviction(t *testing.T) {
	h := New(5)
	ctx := context.Background()
	require.NoError(t, h.Create(ctx, "s1", "/work", "cmd", nil, nil))

	for i := 0; i < 50; i++ {
		h.Feed("s1", "line"+strconv.Itoa(i))
	}

	out, err := h.Capture(ctx, "s1", 1000)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(splitLines(out)), 5)
	assert.Contains(t, out, "line49")
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func TestKillMakesSessionGone(t *testing.T) {
	h := New(0)
	ctx := context.Background()
	require.NoError(t, h.Create(ctx, "s1", "/work", "cmd", nil, nil))
	require.NoError(t, h.Kill(ctx, "s1", false))

	exists, err := h.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = h.Capture(ctx, "s1", 10)
	assert.ErrorIs(t, err, sessionhost.ErrSessionGone)
}

func TestKillIsIdempotent(t *testing.T) {
	h := New(0)
	ctx := context.Background()
	require.NoError(t, h.Create(ctx, "s1", "/work", "cmd", nil, nil))
	require.NoError(t, h.Kill(ctx, "s1", false))
	require.NoError(t, h.Kill(ctx, "s1", false))
	require.NoError(t, h.Kill(ctx, "nonexistent", true))
}

func TestPauseResume(t *testing.T) {
	h := New(0)
	ctx := context.Background()
	require.NoError(t, h.Create(ctx, "s1", "/work", "cmd", nil, nil))

	assert.False(t, h.IsPaused("s1"))
	require.NoError(t, h.Pause(ctx, "s1"))
	assert.True(t, h.IsPaused("s1"))
	require.NoError(t, h.Resume(ctx, "s1"))
	assert.False(t, h.IsPaused("s1"))
}

func TestSendKeysToGoneSession(t *testing.T) {
	h := New(0)
	ctx := context.Background()
	err := h.SendKeys(ctx, "ghost", "echo hi")
	assert.True(t, errors.Is(err, sessionhost.ErrSessionGone))
}

func TestCreateDuplicateFails(t *testing.T) {
	h := New(0)
	ctx := context.Background()
	require.NoError(t, h.Create(ctx, "s1", "/work", "cmd", nil, nil))
	err := h.Create(ctx, "s1", "/work", "cmd", nil, nil)
	assert.Error(t, err)
}

func TestPIDAssignedAndStable(t *testing.T) {
	h := New(0)
	ctx := context.Background()
	require.NoError(t, h.Create(ctx, "s1", "/work", "cmd", nil, nil))

	pid1, err := h.PID(ctx, "s1")
	require.NoError(t, err)
	assert.NotZero(t, pid1)

	pid2, err := h.PID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, pid1, pid2)
}

func TestSessionNameFormat(t *testing.T) {
	assert.Equal(t, "agent-alice", sessionhost.SessionName("alice"))
}
