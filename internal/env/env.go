// Package env wires the orchestration engine's components together from a
// resolved data root and effective settings, for use by internal/commands
// and tests that need a fully assembled engine instance.
package env

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daedalos/daedalos/internal/app"
	"github.com/daedalos/daedalos/internal/bus"
	"github.com/daedalos/daedalos/internal/catalog"
	"github.com/daedalos/daedalos/internal/hooks"
	"github.com/daedalos/daedalos/internal/lifecycle"
	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/registry"
	"github.com/daedalos/daedalos/internal/sessionhost"
	"github.com/daedalos/daedalos/internal/sessionhost/fake"
	"github.com/daedalos/daedalos/internal/sync/claim"
	"github.com/daedalos/daedalos/internal/sync/handoff"
	"github.com/daedalos/daedalos/internal/sync/lock"
	"github.com/daedalos/daedalos/internal/sync/signal"
	"github.com/daedalos/daedalos/internal/workflow"
)

// Env bundles every wired component, addressable by name from command
// handlers.
type Env struct {
	Paths    app.Paths
	Settings app.OrchestrationSettings

	Registry *registry.Registry
	Bus      *bus.Bus
	Signals  *signal.Store
	Locks    *lock.Store
	Claims   *claim.Store
	Handoffs *handoff.Store
	Hooks    *hooks.Manager
	Host     sessionhost.Host

	Lifecycle *lifecycle.Manager
	Workflow  *workflow.Engine
	Catalog   *catalog.Catalog

	PollInterval time.Duration
}

func newID() string { return uuid.NewString() }

// Build assembles a fully wired Env rooted at dataRoot, using the given
// effective settings. The returned Env's components share state only
// through the filesystem, and, for the on_complete hook dispatch, a single
// in-process callback; no component directly imports another's package
// where a narrower interface would do.
func Build(dataRoot string, settings app.OrchestrationSettings, log *slog.Logger) (*Env, error) {
	paths := app.NewPaths(dataRoot)

	reg, err := registry.Open(paths.AgentsFile())
	if err != nil {
		return nil, err
	}

	var host sessionhost.Host
	if settings.SessionBackend == "fake" {
		host = fake.New(settings.ScrollbackLines * 10)
	} else {
		host = sessionhost.NewTmuxHost()
	}

	hooksMgr := hooks.New(paths.HooksDir(), log)

	signals := signal.New(paths.SignalsDir(), func(agent string, status models.SignalStatus, data string) {
		hooksMgr.Dispatch(context.Background(), hooks.EventComplete, hooks.Context{
			AgentName: agent,
			Data:      data,
			Status:    string(status),
		})
	})

	msgBus := bus.New(paths.MessagesDir(), paths.SharedDir(), reg, newID)
	handoffs := handoff.New(paths.HandoffsDir(), msgBus, newID)
	locks := lock.New(paths.LocksDir())
	claims := claim.New(paths.ClaimsDir(), paths.ClaimsArchiveDir())

	cat := catalog.New(paths.TemplatesDir(), paths.WorkflowsDir())

	lc := &lifecycle.Manager{
		Registry:      reg,
		Host:          host,
		Hooks:         hooksMgr,
		Paths:         paths,
		MaxSlots:      settings.MaxSlots,
		SettleDelay:   300 * time.Millisecond,
		ScrollbackCap: settings.ScrollbackLines,
		LoadTemplate:  cat.Template,
		NewID:         newID,
	}

	wf := &workflow.Engine{
		Lifecycle:       lc,
		Signals:         signals,
		Hooks:           hooksMgr,
		Paths:           paths,
		NewID:           newID,
		ParallelTimeout: time.Duration(settings.ParallelTimeoutS) * time.Second,
		StageTimeout:    time.Duration(settings.StageTimeoutS) * time.Second,
		PollInterval:    time.Duration(settings.PollInterval) * time.Millisecond,
	}

	return &Env{
		Paths:        paths,
		Settings:     settings,
		Registry:     reg,
		Bus:          msgBus,
		Signals:      signals,
		Locks:        locks,
		Claims:       claims,
		Handoffs:     handoffs,
		Hooks:        hooksMgr,
		Host:         host,
		Lifecycle:    lc,
		Workflow:     wf,
		Catalog:      cat,
		PollInterval: time.Duration(settings.PollInterval) * time.Millisecond,
	}, nil
}
