// Package lifecycle implements the Lifecycle Manager (C6): spawn, kill,
// pause, resume, focus, snapshot, and restore for supervised agents.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/daedalos/daedalos/internal/app"
	"github.com/daedalos/daedalos/internal/fsatomic"
	"github.com/daedalos/daedalos/internal/hooks"
	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/sessionhost"
)

// Registry is the subset of internal/registry.Registry the manager needs.
type Registry interface {
	Create(name, project, template string, maxSlots int) (models.Agent, error)
	Delete(name string) error
	Update(name string, mutate func(*models.Agent)) error
	Lookup(name string) (models.Agent, bool)
	Resolve(identifier string) (string, bool)
	All() []models.Agent
}

// TemplateLoader resolves a named template document.
type TemplateLoader func(name string) (models.Template, error)

// IDGenerator mints snapshot ids.
type IDGenerator func() string

// Manager drives agent lifecycles on top of a Registry and a SessionHost.
type Manager struct {
	Registry      Registry
	Host          sessionhost.Host
	Hooks         *hooks.Manager
	Paths         app.Paths
	MaxSlots      int
	SettleDelay   time.Duration
	ScrollbackCap int
	LoadTemplate  TemplateLoader
	NewID         IDGenerator
}

// Spawn starts a new agent session bound to project, using the named
// template. Terminal attach is left to the CLI layer; Spawn only starts
// the session and records it in the registry.
func (m *Manager) Spawn(ctx context.Context, name, project, templateName, prompt string, extraEnv map[string]string) (models.Agent, error) {
	if err := models.ValidateAgentName(name); err != nil {
		return models.Agent{}, err
	}
	if _, ok := m.Registry.Lookup(name); ok {
		return models.Agent{}, models.ErrDuplicateName(name)
	}
	if _, err := os.Stat(project); err != nil {
		return models.Agent{}, models.ErrProjectMissing(project)
	}

	tmpl, err := m.LoadTemplate(templateName)
	if err != nil {
		return models.Agent{}, err
	}

	agent, err := m.Registry.Create(name, project, templateName, m.MaxSlots)
	if err != nil {
		return models.Agent{}, err
	}

	session := sessionhost.SessionName(name)
	env := map[string]string{
		"AGENT_NAME":    name,
		"AGENT_SESSION": session,
		"AGENT_SLOT":    strconv.Itoa(agent.Slot),
		"DATA_ROOT":     m.Paths.Root,
		"MESSAGES_DIR":  m.Paths.MessagesDir(),
		"SIGNALS_DIR":   m.Paths.SignalsDir(),
		"SHARED_DIR":    m.Paths.SharedDir(),
	}
	for k, v := range tmpl.Env {
		env[k] = v
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	command, args := commandFromTemplate(tmpl, prompt)

	if err := m.Host.Create(ctx, session, project, command, args, env); err != nil {
		_ = m.Registry.Delete(name)
		return models.Agent{}, fmt.Errorf("create session: %w", err)
	}

	agent.SessionHandle = session
	if err := m.Registry.Update(name, func(a *models.Agent) {
		a.SessionHandle = session
	}); err != nil {
		return models.Agent{}, err
	}

	if m.SettleDelay > 0 {
		time.Sleep(m.SettleDelay)
	}
	if pid, err := m.Host.PID(ctx, session); err == nil {
		_ = m.Registry.Update(name, func(a *models.Agent) { a.ChildPID = pid })
		agent.ChildPID = pid
	}

	if m.Hooks != nil {
		m.Hooks.Dispatch(ctx, hooks.EventSpawn, hooks.Context{
			AgentName: name, Project: project, Template: templateName,
		})
	}

	return agent, nil
}

func commandFromTemplate(tmpl models.Template, userTask string) (string, []string) {
	effectivePrompt := tmpl.EffectivePrompt(userTask)
	if len(tmpl.BaseArgs) == 0 {
		return "", []string{effectivePrompt}
	}
	args := append([]string(nil), tmpl.BaseArgs[1:]...)
	args = append(args, effectivePrompt)
	return tmpl.BaseArgs[0], args
}

// Kill tears down an agent's session (graceful then forced) and removes
// its Registry record.
func (m *Manager) Kill(ctx context.Context, name string, force bool) error {
	agent, ok := m.Registry.Lookup(name)
	if !ok {
		return models.ErrUnknownAgent(name)
	}

	if err := m.Host.Kill(ctx, agent.SessionHandle, force); err != nil {
		return fmt.Errorf("kill session: %w", err)
	}

	if m.Hooks != nil {
		m.Hooks.Dispatch(ctx, hooks.EventKill, hooks.Context{AgentName: name, Project: agent.Project})
	}

	return m.Registry.Delete(name)
}

// Pause stops an agent's child process; its cached status becomes paused.
func (m *Manager) Pause(ctx context.Context, name string) error {
	agent, ok := m.Registry.Lookup(name)
	if !ok {
		return models.ErrUnknownAgent(name)
	}
	if err := m.Host.Pause(ctx, agent.SessionHandle); err != nil {
		return err
	}
	return m.Registry.Update(name, func(a *models.Agent) { a.Status = models.StatusPaused })
}

// Resume continues a paused agent's child process.
func (m *Manager) Resume(ctx context.Context, name string) error {
	agent, ok := m.Registry.Lookup(name)
	if !ok {
		return models.ErrUnknownAgent(name)
	}
	return m.Host.Resume(ctx, agent.SessionHandle)
}

// Focus resolves name to a live agent and attaches (or, if the caller is
// already inside an interactive multiplexer session, switches) to it,
// returning the session handle attached to.
func (m *Manager) Focus(ctx context.Context, name string) (string, error) {
	canonical, ok := m.Registry.Resolve(name)
	if !ok {
		return "", models.ErrUnknownAgent(name)
	}
	agent, _ := m.Registry.Lookup(canonical)
	if err := m.Host.Attach(ctx, agent.SessionHandle); err != nil {
		return "", err
	}
	return agent.SessionHandle, nil
}

// Snapshot captures the Registry record, scrollback, and (best-effort)
// working-tree diff of every named agent, writing a single snapshot
// directory.
func (m *Manager) Snapshot(ctx context.Context, names []string, label string) (string, error) {
	if len(names) == 0 {
		for _, a := range m.Registry.All() {
			names = append(names, a.Name)
		}
	}

	id := m.NewID()
	dir := filepath.Join(m.Paths.SnapshotsDir(), id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	meta := models.SnapshotMeta{ID: id, Label: label, CreatedAt: time.Now(), Agents: names}

	var size int64
	for _, name := range names {
		agent, ok := m.Registry.Lookup(name)
		if !ok {
			continue
		}
		agentDir := filepath.Join(dir, name)
		if err := os.MkdirAll(agentDir, 0755); err != nil {
			return "", err
		}
		if err := fsatomic.WriteJSON(filepath.Join(agentDir, "registry.json"), agent, 0644); err != nil {
			return "", err
		}

		scrollback, _ := m.Host.Capture(ctx, agent.SessionHandle, 500)
		if err := os.WriteFile(filepath.Join(agentDir, "scrollback.txt"), []byte(scrollback), 0644); err != nil {
			return "", fmt.Errorf("write scrollback: %w", err)
		}
		size += int64(len(scrollback))

		if diff := gitDiff(ctx, agent.Project); diff != "" {
			if err := os.WriteFile(filepath.Join(agentDir, "diff.patch"), []byte(diff), 0644); err != nil {
				return "", fmt.Errorf("write diff: %w", err)
			}
			size += int64(len(diff))
		}
	}

	meta.SizeBytes = size
	meta.Size = humanize.Bytes(uint64(size))

	if err := fsatomic.WriteJSON(filepath.Join(dir, "meta.json"), meta, 0644); err != nil {
		return "", err
	}
	return id, nil
}

// gitDiff returns the uncommitted working-tree diff for project, or "" if
// project is not under version control or the diff fails. Best-effort,
// grounded on the generic external-process-with-timeout invocation style
// used throughout this package.
func gitDiff(ctx context.Context, project string) string {
	if _, err := os.Stat(filepath.Join(project, ".git")); err != nil {
		return ""
	}
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", "-C", project, "diff", "HEAD") //nolint:gosec // G204: fixed args, operator-controlled project path
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return string(out)
}

// Restore re-spawns every agent captured in a snapshot whose name is not
// already live, skipping any collision with a currently-live agent,
// re-applying each agent's captured diff.
func (m *Manager) Restore(ctx context.Context, snapshotID, which string) ([]string, error) {
	dir := filepath.Join(m.Paths.SnapshotsDir(), snapshotID)
	var meta models.SnapshotMeta
	if err := fsatomic.ReadJSON(filepath.Join(dir, "meta.json"), &meta); err != nil {
		return nil, models.ErrBackupMissing(snapshotID)
	}

	targets := meta.Agents
	if which != "" {
		targets = []string{which}
	}

	var restored []string
	for _, name := range targets {
		if _, live := m.Registry.Lookup(name); live {
			continue // skipped without a warning; omitted from the returned list
		}

		var agent models.Agent
		if err := fsatomic.ReadJSON(filepath.Join(dir, name, "registry.json"), &agent); err != nil {
			continue
		}

		if _, err := m.Spawn(ctx, agent.Name, agent.Project, agent.Template, "", nil); err != nil {
			continue
		}

		diffPath := filepath.Join(dir, name, "diff.patch")
		if data, err := os.ReadFile(diffPath); err == nil && len(data) > 0 {
			applyDiff(ctx, agent.Project, diffPath)
		}

		restored = append(restored, name)
	}
	return restored, nil
}

func applyDiff(ctx context.Context, project, diffPath string) {
	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cmd := exec.CommandContext(runCtx, "git", "-C", project, "apply", diffPath) //nolint:gosec // G204: fixed args, operator-controlled project path
	_ = cmd.Run()
}
