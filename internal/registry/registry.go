// Package registry implements the Registry (C1): the authoritative
// directory of agents, their slots, projects, templates, and cached
// status.
package registry

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/daedalos/daedalos/internal/fsatomic"
	"github.com/daedalos/daedalos/internal/models"
)

// document is the on-disk shape of agents.json: an ordered list of agent
// records, whose insertion order gives resolve() its deterministic
// tie-breaking.
type document struct {
	Agents []models.Agent `json:"agents"`
}

// Registry owns agent records, persisted as a single JSON document at
// <data-root>/agents.json written via write-temp-then-rename.
type Registry struct {
	mu   sync.Mutex
	path string

	order []string // agent names, insertion order
	byKey map[string]models.Agent
}

// Open loads (or initializes) the registry at path.
func Open(path string) (*Registry, error) {
	r := &Registry{
		path:  path,
		byKey: make(map[string]models.Agent),
	}
	var doc document
	err := fsatomic.ReadJSON(path, &doc)
	if err != nil && !fsatomic.IsNotExist(err) {
		return nil, err
	}
	for _, a := range doc.Agents {
		r.order = append(r.order, a.Name)
		r.byKey[a.Name] = a
	}
	return r, nil
}

func (r *Registry) saveLocked() error {
	doc := document{Agents: make([]models.Agent, 0, len(r.order))}
	for _, name := range r.order {
		doc.Agents = append(doc.Agents, r.byKey[name])
	}
	return fsatomic.WriteJSON(r.path, doc, 0644)
}

// Create registers a new agent. Fails with InvalidName, DuplicateName or
// NoSlot.
func (r *Registry) Create(name, project, template string, maxSlots int) (models.Agent, error) {
	if err := models.ValidateAgentName(name); err != nil {
		return models.Agent{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[name]; exists {
		return models.Agent{}, models.ErrDuplicateName(name)
	}

	slot, ok := r.nextSlotLocked(maxSlots)
	if !ok {
		return models.Agent{}, models.ErrNoSlot(maxSlots)
	}

	now := time.Now()
	agent := models.Agent{
		Name:         name,
		Slot:         slot,
		Project:      project,
		Template:     template,
		CreatedAt:    now,
		LastActivity: now,
		Status:       models.StatusStarting,
	}
	r.order = append(r.order, name)
	r.byKey[name] = agent
	if err := r.saveLocked(); err != nil {
		r.removeLocked(name)
		return models.Agent{}, err
	}
	return agent, nil
}

func (r *Registry) removeLocked(name string) {
	delete(r.byKey, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Delete removes an agent record. Idempotent.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[name]; !ok {
		return nil
	}
	r.removeLocked(name)
	return r.saveLocked()
}

// Update applies a mutation function to an agent record and persists it.
func (r *Registry) Update(name string, mutate func(*models.Agent)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byKey[name]
	if !ok {
		return models.ErrUnknownAgent(name)
	}
	mutate(&a)
	r.byKey[name] = a
	return r.saveLocked()
}

// Touch refreshes an agent's last_activity timestamp.
func (r *Registry) Touch(name string) error {
	return r.Update(name, func(a *models.Agent) {
		a.LastActivity = time.Now()
	})
}

// Lookup returns the agent by exact name.
func (r *Registry) Lookup(name string) (models.Agent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byKey[name]
	return a, ok
}

// Resolve maps a user-supplied identifier to a canonical agent name:
// numeric -> slot, else exact name, else prefix match, else substring
// match. Ambiguity resolves to the first match in insertion order.
func (r *Registry) Resolve(identifier string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot, err := strconv.Atoi(identifier); err == nil {
		for _, name := range r.order {
			if r.byKey[name].Slot == slot {
				return name, true
			}
		}
		return "", false
	}

	if _, ok := r.byKey[identifier]; ok {
		return identifier, true
	}

	for _, name := range r.order {
		if strings.HasPrefix(name, identifier) {
			return name, true
		}
	}
	for _, name := range r.order {
		if strings.Contains(name, identifier) {
			return name, true
		}
	}
	return "", false
}

// NextSlot returns the lowest unassigned slot in 1..maxSlots, or false if
// none is free.
func (r *Registry) NextSlot(maxSlots int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextSlotLocked(maxSlots)
}

func (r *Registry) nextSlotLocked(maxSlots int) (int, bool) {
	taken := make(map[int]bool, len(r.byKey))
	for _, a := range r.byKey {
		taken[a.Slot] = true
	}
	for s := 1; s <= maxSlots; s++ {
		if !taken[s] {
			return s, true
		}
	}
	return 0, false
}

// All returns every agent, ordered by slot.
func (r *Registry) All() []models.Agent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Agent, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byKey[name])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}
