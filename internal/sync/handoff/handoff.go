// Package handoff implements context handoffs between agents: a request
// to transfer working context, delivered to the recipient as an ordinary
// message of type "handoff".
package handoff

import (
	"os"
	"path/filepath"
	"time"

	"github.com/daedalos/daedalos/internal/fsatomic"
	"github.com/daedalos/daedalos/internal/models"
)

// Messenger delivers the notification message accompanying a handoff.
// Satisfied by internal/bus.Bus; declared here (rather than imported) to
// keep handoff from depending on the message bus's package.
type Messenger interface {
	Send(to, from string, kind models.MessageKind, content string) (string, error)
}

// IDGenerator produces unique handoff ids.
type IDGenerator func() string

// Store persists handoffs as one file per id under dir.
type Store struct {
	dir      string
	messages Messenger
	newID    IDGenerator
}

// New returns a Store rooted at dir (<data-root>/handoffs), delivering
// notifications via messages and minting ids with newID.
func New(dir string, messages Messenger, newID IDGenerator) *Store {
	return &Store{dir: dir, messages: messages, newID: newID}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Create records a handoff from `from` to `to` carrying context, and
// delivers a handoff message to the recipient.
func (s *Store) Create(from, to, context string) (string, error) {
	id := s.newID()
	h := models.Handoff{
		ID:      id,
		From:    from,
		To:      to,
		Context: context,
		Created: time.Now(),
		Status:  models.HandoffPending,
	}
	if err := fsatomic.WriteJSON(s.path(id), h, 0644); err != nil {
		return "", err
	}
	if _, err := s.messages.Send(to, from, models.MessageKindHandoff, context); err != nil {
		return "", err
	}
	return id, nil
}

// Accept verifies agent is the addressed recipient, flips the handoff to
// accepted, and returns its context.
func (s *Store) Accept(id, agent string) (string, error) {
	var h models.Handoff
	if err := fsatomic.ReadJSON(s.path(id), &h); err != nil {
		return "", models.ErrUnknownHandoff(id)
	}
	if h.To != agent {
		return "", models.ErrNotOwner(id, h.To)
	}
	h.Status = models.HandoffAccepted
	if err := fsatomic.WriteJSON(s.path(id), h, 0644); err != nil {
		return "", err
	}
	return h.Context, nil
}

// Get returns the handoff record by id.
func (s *Store) Get(id string) (models.Handoff, bool) {
	var h models.Handoff
	if err := fsatomic.ReadJSON(s.path(id), &h); err != nil {
		return models.Handoff{}, false
	}
	return h, true
}

// List returns every handoff record under dir.
func (s *Store) List() []models.Handoff {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var out []models.Handoff
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id := e.Name()
		if filepath.Ext(id) == ".json" {
			id = id[:len(id)-len(".json")]
		}
		if h, ok := s.Get(id); ok {
			out = append(out, h)
		}
	}
	return out
}
