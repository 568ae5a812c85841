package bus

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/daedalos/daedalos/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgents struct {
	agents []models.Agent
}

func (f *fakeAgents) All() []models.Agent { return f.agents }
func (f *fakeAgents) Lookup(name string) (models.Agent, bool) {
	for _, a := range f.agents {
		if a.Name == name {
			return a, true
		}
	}
	return models.Agent{}, false
}

func counterIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
}

func newTestBus(t *testing.T, agentNames ...string) (*Bus, *fakeAgents) {
	t.Helper()
	dir := t.TempDir()
	fa := &fakeAgents{}
	for _, n := range agentNames {
		fa.agents = append(fa.agents, models.Agent{Name: n})
	}
	b := New(filepath.Join(dir, "messages"), filepath.Join(dir, "shared"), fa, counterIDs())
	return b, fa
}

func TestSend_UnknownRecipientFails(t *testing.T) {
	b, _ := newTestBus(t)
	_, err := b.Send("ghost", "alice", models.MessageKindUser, "hi")
	require.Error(t, err)
	var re models.RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "UnknownRecipient", re.ErrorCode())
}

func TestSendAndInbox_FIFOOrder(t *testing.T) {
	b, _ := newTestBus(t, "bob")
	_, err := b.Send("bob", "alice", models.MessageKindUser, "first")
	require.NoError(t, err)
	_, err = b.Send("bob", "alice", models.MessageKindUser, "second")
	require.NoError(t, err)

	msgs, err := b.Inbox("bob", false)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestInbox_PendingOnlyFiltersRead(t *testing.T) {
	b, _ := newTestBus(t, "bob")
	id, err := b.Send("bob", "alice", models.MessageKindUser, "m1")
	require.NoError(t, err)
	_, err = b.Send("bob", "alice", models.MessageKindUser, "m2")
	require.NoError(t, err)

	require.NoError(t, b.MarkRead("bob", id))

	pending, err := b.Inbox("bob", true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "m2", pending[0].Content)
}

func TestMarkRead_All(t *testing.T) {
	b, _ := newTestBus(t, "bob")
	_, err := b.Send("bob", "alice", models.MessageKindUser, "m1")
	require.NoError(t, err)
	_, err = b.Send("bob", "alice", models.MessageKindUser, "m2")
	require.NoError(t, err)

	require.NoError(t, b.MarkRead("bob", "all"))
	pending, err := b.Inbox("bob", true)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestClear_RetainsOnlyPending(t *testing.T) {
	b, _ := newTestBus(t, "bob")
	id, err := b.Send("bob", "alice", models.MessageKindUser, "m1")
	require.NoError(t, err)
	_, err = b.Send("bob", "alice", models.MessageKindUser, "m2")
	require.NoError(t, err)
	require.NoError(t, b.MarkRead("bob", id))

	require.NoError(t, b.Clear("bob"))
	all, err := b.Inbox("bob", false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "m2", all[0].Content)
}

func TestBroadcast_ExcludesSender(t *testing.T) {
	b, _ := newTestBus(t, "alice", "bob", "carol")
	require.NoError(t, b.Broadcast("alice", "hello all"))

	bobInbox, err := b.Inbox("bob", false)
	require.NoError(t, err)
	require.Len(t, bobInbox, 1)

	carolInbox, err := b.Inbox("carol", false)
	require.NoError(t, err)
	require.Len(t, carolInbox, 1)

	aliceInbox, err := b.Inbox("alice", false)
	require.NoError(t, err)
	assert.Empty(t, aliceInbox)
}

func TestPublish_CopiesFileAndNotifiesRecipients(t *testing.T) {
	b, _ := newTestBus(t, "alice", "bob")

	src := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(src, []byte("findings"), 0644))

	name, err := b.Publish("alice", src, nil, "")
	require.NoError(t, err)
	assert.NotEmpty(t, name)

	artifact, ok := b.GetArtifact(name)
	require.True(t, ok)
	assert.Equal(t, "alice", artifact.SharedBy)

	bobInbox, err := b.Inbox("bob", false)
	require.NoError(t, err)
	require.Len(t, bobInbox, 1)
	assert.Equal(t, models.MessageKindSharedArtifact, bobInbox[0].Type)
}

func TestArtifacts_ListsAllPublished(t *testing.T) {
	b, _ := newTestBus(t, "alice")

	src := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	_, err := b.Publish("alice", src, nil, "report-1")
	require.NoError(t, err)
	_, err = b.Publish("alice", src, nil, "report-2")
	require.NoError(t, err)

	all, err := b.Artifacts()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "report-1", all[0].Name)
	assert.Equal(t, "report-2", all[1].Name)
}
