// Package bus implements the MessageBus (C5): per-recipient append-only
// message queues, broadcast, and shared-artifact publishing.
package bus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/daedalos/daedalos/internal/fsatomic"
	"github.com/daedalos/daedalos/internal/models"
)

// AgentLister resolves the set of known agent names, used to validate
// recipients and to exclude the sender from broadcast. Satisfied by
// internal/registry.Registry.
type AgentLister interface {
	All() []models.Agent
	Lookup(name string) (models.Agent, bool)
}

// IDGenerator mints unique ids for messages and artifacts.
type IDGenerator func() string

// Bus owns the messages and shared-artifact namespaces.
type Bus struct {
	messagesDir string
	sharedDir   string
	agents      AgentLister
	newID       IDGenerator
}

// New returns a Bus backed by messagesDir (<data-root>/messages) and
// sharedDir (<data-root>/shared), validating recipients against agents.
func New(messagesDir, sharedDir string, agents AgentLister, newID IDGenerator) *Bus {
	return &Bus{messagesDir: messagesDir, sharedDir: sharedDir, agents: agents, newID: newID}
}

func (b *Bus) logPath(agent string) string {
	return filepath.Join(b.messagesDir, agent+".jsonl")
}

// Send appends a message to `to`'s queue. Fails with UnknownRecipient if
// `to` has no Registry entry.
func (b *Bus) Send(to, from string, kind models.MessageKind, content string) (string, error) {
	if _, ok := b.agents.Lookup(to); !ok {
		return "", models.ErrUnknownRecipient(to)
	}

	msg := models.Message{
		ID:        b.newID(),
		From:      from,
		To:        to,
		Type:      kind,
		Content:   content,
		Timestamp: time.Now(),
		Status:    models.MessageStatusPending,
	}
	line, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	if err := fsatomic.AppendLine(b.logPath(to), line, 0644); err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (b *Bus) readAll(agent string) ([]models.Message, error) {
	f, err := os.Open(b.logPath(agent))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []models.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var m models.Message
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("unmarshal message line: %w", err)
		}
		out = append(out, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Inbox returns agent's messages in insertion order. pendingOnly hides
// messages already marked read.
func (b *Bus) Inbox(agent string, pendingOnly bool) ([]models.Message, error) {
	all, err := b.readAll(agent)
	if err != nil {
		return nil, err
	}
	if !pendingOnly {
		return all, nil
	}
	out := make([]models.Message, 0, len(all))
	for _, m := range all {
		if m.Status == models.MessageStatusPending {
			out = append(out, m)
		}
	}
	return out, nil
}

// MarkRead marks a single message (or, if id == "all", every message) read.
func (b *Bus) MarkRead(agent, id string) error {
	all, err := b.readAll(agent)
	if err != nil {
		return err
	}
	for i := range all {
		if id == "all" || all[i].ID == id {
			all[i].Status = models.MessageStatusRead
		}
	}
	return b.rewrite(agent, all)
}

// Clear retains only still-pending messages for agent.
func (b *Bus) Clear(agent string) error {
	all, err := b.readAll(agent)
	if err != nil {
		return err
	}
	pending := make([]models.Message, 0, len(all))
	for _, m := range all {
		if m.Status == models.MessageStatusPending {
			pending = append(pending, m)
		}
	}
	return b.rewrite(agent, pending)
}

func (b *Bus) rewrite(agent string, msgs []models.Message) error {
	var buf []byte
	for _, m := range msgs {
		line, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	if buf == nil {
		buf = []byte{}
	}
	return fsatomic.WriteFile(b.logPath(agent), buf, 0644)
}

// Broadcast sends content to every known agent except from.
func (b *Bus) Broadcast(from, content string) error {
	for _, a := range b.agents.All() {
		if a.Name == from {
			continue
		}
		if _, err := b.Send(a.Name, from, models.MessageKindBroadcast, content); err != nil {
			return err
		}
	}
	return nil
}

// Publish copies filePath into the shared namespace under a unique
// artifact name, writes a metadata record, and dispatches shared_artifact
// messages to recipients (or every agent if recipients is empty).
func (b *Bus) Publish(from, filePath string, recipients []string, name string) (string, error) {
	if name == "" {
		name = b.newID()
	}

	artifactDir := filepath.Join(b.sharedDir, name)
	if err := os.MkdirAll(artifactDir, 0755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	src, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open source file %s: %w", filePath, err)
	}
	defer src.Close()

	contentPath := filepath.Join(artifactDir, "content")
	tmp, err := os.CreateTemp(artifactDir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("copy artifact content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp artifact file: %w", err)
	}
	if err := os.Rename(tmp.Name(), contentPath); err != nil {
		return "", fmt.Errorf("rename artifact content into place: %w", err)
	}

	meta := models.Artifact{
		Name:         name,
		OriginalPath: filePath,
		SharedBy:     from,
		SharedAt:     time.Now(),
		Recipients:   recipients,
	}
	if err := fsatomic.WriteJSON(filepath.Join(artifactDir, "meta.json"), meta, 0644); err != nil {
		return "", err
	}

	targets := recipients
	if len(targets) == 0 {
		for _, a := range b.agents.All() {
			if a.Name != from {
				targets = append(targets, a.Name)
			}
		}
	}
	for _, to := range targets {
		if _, err := b.Send(to, from, models.MessageKindSharedArtifact, name); err != nil {
			return "", err
		}
	}
	return name, nil
}

// Artifacts returns every published artifact's metadata, sorted by name.
func (b *Bus) Artifacts() ([]models.Artifact, error) {
	entries, err := os.ReadDir(b.sharedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []models.Artifact
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if a, ok := b.GetArtifact(e.Name()); ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetArtifact returns the metadata record for a published artifact.
func (b *Bus) GetArtifact(name string) (models.Artifact, bool) {
	var a models.Artifact
	if err := fsatomic.ReadJSON(filepath.Join(b.sharedDir, name, "meta.json"), &a); err != nil {
		return models.Artifact{}, false
	}
	return a, true
}
