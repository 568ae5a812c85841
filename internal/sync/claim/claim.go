// Package claim implements task claims: lightweight marks
// that a task is owned by a particular agent, with an archive namespace
// for released claims.
package claim

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/daedalos/daedalos/internal/fsatomic"
	"github.com/daedalos/daedalos/internal/models"
)

// Store persists claims as one file per task id under dir, with released
// claims moved into archiveDir.
type Store struct {
	dir        string
	archiveDir string
}

// New returns a Store rooted at dir (<data-root>/claims), archiving
// released claims under archiveDir (<data-root>/claims/archive).
func New(dir, archiveDir string) *Store {
	return &Store{dir: dir, archiveDir: archiveDir}
}

func (s *Store) path(taskID string) string {
	return filepath.Join(s.dir, taskID+".json")
}

func (s *Store) archivePath(taskID string) string {
	return filepath.Join(s.archiveDir, taskID+".json")
}

// Create claims taskID for agent. Idempotent if agent already owns it;
// fails with AlreadyClaimed if owned by a different agent.
func (s *Store) Create(taskID, agent, description string) (models.Claim, error) {
	if existing, ok := s.get(s.path(taskID)); ok {
		if existing.Agent == agent {
			return existing, nil
		}
		return models.Claim{}, models.ErrAlreadyClaimed(taskID, existing.Agent)
	}

	c := models.Claim{
		TaskID:      taskID,
		Agent:       agent,
		Description: description,
		ClaimedAt:   time.Now(),
		Status:      models.ClaimStatusActive,
	}
	if err := fsatomic.WriteJSON(s.path(taskID), c, 0644); err != nil {
		return models.Claim{}, err
	}
	return c, nil
}

// Release marks taskID as released by agent with the given terminal
// status and moves the record into the archive namespace.
func (s *Store) Release(taskID, agent string, status models.ClaimStatus) error {
	c, ok := s.get(s.path(taskID))
	if !ok {
		return models.ErrUnknownClaim(taskID)
	}
	if c.Agent != agent {
		return models.ErrNotOwner(taskID, c.Agent)
	}

	now := time.Now()
	c.Status = status
	c.ReleasedAt = &now

	if err := fsatomic.WriteJSON(s.archivePath(taskID), c, 0644); err != nil {
		return err
	}
	return os.Remove(s.path(taskID))
}

// Check reports whether taskID currently has an active claim.
func (s *Store) Check(taskID string) bool {
	return fsatomic.Exists(s.path(taskID))
}

// Get returns the active claim for taskID, if any.
func (s *Store) Get(taskID string) (models.Claim, bool) {
	return s.get(s.path(taskID))
}

func (s *Store) get(path string) (models.Claim, bool) {
	var c models.Claim
	if err := fsatomic.ReadJSON(path, &c); err != nil {
		return models.Claim{}, false
	}
	return c, true
}

// List returns every active (unreleased) claim, sorted by task id.
func (s *Store) List() []models.Claim {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	var out []models.Claim
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if c, ok := s.get(filepath.Join(s.dir, e.Name())); ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}
