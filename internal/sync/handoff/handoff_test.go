package handoff

import (
	"strconv"
	"testing"

	"github.com/daedalos/daedalos/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	sent []sentMessage
}

type sentMessage struct {
	to, from string
	kind     models.MessageKind
	content  string
}

func (m *fakeMessenger) Send(to, from string, kind models.MessageKind, content string) (string, error) {
	m.sent = append(m.sent, sentMessage{to, from, kind, content})
	return "msg-" + strconv.Itoa(len(m.sent)), nil
}

func counterIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return "handoff-" + strconv.Itoa(n)
	}
}

func TestCreate_DeliversHandoffMessage(t *testing.T) {
	msgr := &fakeMessenger{}
	s := New(t.TempDir(), msgr, counterIDs())

	id, err := s.Create("alice", "bob", "please continue from commit abc123")
	require.NoError(t, err)
	assert.Equal(t, "handoff-1", id)

	require.Len(t, msgr.sent, 1)
	assert.Equal(t, "bob", msgr.sent[0].to)
	assert.Equal(t, "alice", msgr.sent[0].from)
	assert.Equal(t, models.MessageKindHandoff, msgr.sent[0].kind)

	h, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, models.HandoffPending, h.Status)
}

func TestAccept_WrongRecipientFails(t *testing.T) {
	msgr := &fakeMessenger{}
	s := New(t.TempDir(), msgr, counterIDs())
	id, err := s.Create("alice", "bob", "context")
	require.NoError(t, err)

	_, err = s.Accept(id, "carol")
	require.Error(t, err)
	var re models.RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "NotOwner", re.ErrorCode())
}

func TestAccept_FlipsStatusAndReturnsContext(t *testing.T) {
	msgr := &fakeMessenger{}
	s := New(t.TempDir(), msgr, counterIDs())
	id, err := s.Create("alice", "bob", "the context payload")
	require.NoError(t, err)

	ctx, err := s.Accept(id, "bob")
	require.NoError(t, err)
	assert.Equal(t, "the context payload", ctx)

	h, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, models.HandoffAccepted, h.Status)
}

func TestAccept_UnknownIDFails(t *testing.T) {
	msgr := &fakeMessenger{}
	s := New(t.TempDir(), msgr, counterIDs())
	_, err := s.Accept("ghost", "bob")
	require.Error(t, err)
	var re models.RecoverableError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "UnknownHandoff", re.ErrorCode())
}

func TestList(t *testing.T) {
	msgr := &fakeMessenger{}
	s := New(t.TempDir(), msgr, counterIDs())
	_, err := s.Create("alice", "bob", "c1")
	require.NoError(t, err)
	_, err = s.Create("bob", "alice", "c2")
	require.NoError(t, err)

	list := s.List()
	assert.Len(t, list, 2)
}
