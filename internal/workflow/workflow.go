// Package workflow implements the WorkflowEngine (C7): multi-stage plans
// driven to completion either in parallel or sequentially, with per-stage
// retry strategies.
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/daedalos/daedalos/internal/app"
	"github.com/daedalos/daedalos/internal/fsatomic"
	"github.com/daedalos/daedalos/internal/hooks"
	"github.com/daedalos/daedalos/internal/lifecycle"
	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/sync/signal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultParallelTimeout = 15 * time.Minute
	defaultStageTimeout    = 10 * time.Minute
	defaultPollInterval    = 2 * time.Second
)

// completionInstructionsTmpl is appended to every stage prompt so the spawned
// agent knows how to report back.
const completionInstructionsTmpl = `

When you are done, write your complete findings to %s, then run:
  daedalos signal complete --agent %s --data %s
If you cannot complete the task, run:
  daedalos signal complete --agent %s --status failure --data "<reason>"
`

// TransientPredicate decides whether a failure's data payload looks
// transient (and therefore worth an automatic retry). Overridable.
type TransientPredicate func(data string) bool

// DefaultTransientPredicate matches timeout/network/rate-limit-sounding
// failures.
func DefaultTransientPredicate(data string) bool {
	lower := strings.ToLower(data)
	for _, substr := range []string{"timeout", "network", "rate limit"} {
		if strings.Contains(lower, substr) {
			return true
		}
	}
	return false
}

// IDGenerator mints workflow instance ids.
type IDGenerator func() string

// Engine drives workflow instances. Lifecycle spawns/kills stage agents;
// Signals reports stage completion.
type Engine struct {
	Lifecycle       *lifecycle.Manager
	Signals         *signal.Store
	Hooks           *hooks.Manager
	Paths           app.Paths
	NewID           IDGenerator
	ParallelTimeout time.Duration
	StageTimeout    time.Duration
	PollInterval    time.Duration
	IsTransient     TransientPredicate
}

// dispatchWorkflowComplete fires on_workflow_complete once an instance
// reaches a terminal status, mirroring the per-agent hook dispatch in
// internal/lifecycle.
func (e *Engine) dispatchWorkflowComplete(ctx context.Context, inst *models.WorkflowInstance) {
	if e.Hooks == nil {
		return
	}
	e.Hooks.Dispatch(ctx, hooks.EventWorkflowComplete, hooks.Context{
		Data:   inst.ID,
		Status: string(inst.Status),
	})
}

// dispatchStageError fires on_error for a stage agent that reported a
// failure signal.
func (e *Engine) dispatchStageError(ctx context.Context, agentName, data string) {
	if e.Hooks == nil {
		return
	}
	e.Hooks.Dispatch(ctx, hooks.EventError, hooks.Context{
		AgentName: agentName,
		Data:      data,
	})
}

func (e *Engine) parallelTimeout() time.Duration {
	if e.ParallelTimeout > 0 {
		return e.ParallelTimeout
	}
	return defaultParallelTimeout
}

func (e *Engine) stageTimeout() time.Duration {
	if e.StageTimeout > 0 {
		return e.StageTimeout
	}
	return defaultStageTimeout
}

func (e *Engine) pollInterval() time.Duration {
	if e.PollInterval > 0 {
		return e.PollInterval
	}
	return defaultPollInterval
}

func (e *Engine) isTransient() TransientPredicate {
	if e.IsTransient != nil {
		return e.IsTransient
	}
	return DefaultTransientPredicate
}

func (e *Engine) instancePath(id string) string {
	return filepath.Join(e.Paths.WorkflowStateDir(), id+".json")
}

func (e *Engine) stageAgentName(instanceID, stageName string) string {
	name := fmt.Sprintf("wf-%s-%s", instanceID, stageName)
	if len(name) > 32 {
		name = name[:32]
	}
	return name
}

func (e *Engine) outputPath(instanceID, stageName string) string {
	return filepath.Join(e.Paths.WorkflowStateDir(), instanceID, stageName+".output")
}

func (e *Engine) save(inst models.WorkflowInstance) error {
	return fsatomic.WriteJSON(e.instancePath(inst.ID), inst, 0644)
}

// Start begins a new workflow instance from doc, substituting {task} into
// every stage prompt and dispatching either the parallel or sequential
// driver.
func (e *Engine) Start(ctx context.Context, doc models.WorkflowDoc, task, project, retryStrategy string) (string, error) {
	id := e.NewID()
	stageNames := make([]string, len(doc.Stages))
	for i, st := range doc.Stages {
		stageNames[i] = st.Name
	}

	inst := models.WorkflowInstance{
		ID:            id,
		Workflow:      doc.Name,
		Task:          task,
		Project:       project,
		Parallel:      doc.Parallel,
		Stages:        stageNames,
		StageOutputs:  make(map[string]string),
		AgentsByStage: make(map[string]string),
		Status:        models.WorkflowRunning,
		Started:       time.Now(),
		RetryStrategy: retryStrategy,
		StageAttempts: make(map[string]int),
	}
	if err := os.MkdirAll(filepath.Join(e.Paths.WorkflowStateDir(), id), 0755); err != nil {
		return "", fmt.Errorf("create workflow state dir: %w", err)
	}
	if err := e.save(inst); err != nil {
		return "", err
	}

	if doc.Parallel {
		go e.runParallel(context.Background(), &inst, doc, task, project)
	} else {
		go e.runSequential(context.Background(), &inst, doc, task, project)
	}
	return id, nil
}

func (e *Engine) runParallel(ctx context.Context, inst *models.WorkflowInstance, doc models.WorkflowDoc, task, project string) {
	var g errgroup.Group
	var agentNames []string

	for _, stage := range doc.Stages {
		stage := stage
		agentName := e.stageAgentName(inst.ID, stage.Name)
		agentNames = append(agentNames, agentName)
		inst.AgentsByStage[stage.Name] = agentName

		g.Go(func() error {
			prompt := e.buildStagePrompt(inst.ID, stage, Substitute(stage.Prompt, task, nil))
			_, err := e.Lifecycle.Spawn(ctx, agentName, project, stage.Template, prompt, nil)
			return err
		})
	}
	_ = e.save(*inst)

	if err := g.Wait(); err != nil {
		inst.Status = models.WorkflowFailed
		_ = e.save(*inst)
		e.dispatchWorkflowComplete(ctx, inst)
		return
	}

	ok := e.Signals.WaitAll(ctx, agentNames, e.parallelTimeout(), e.pollInterval())

	complete := make(map[string]bool, len(doc.Stages))
	for _, stage := range doc.Stages {
		agentName := inst.AgentsByStage[stage.Name]
		if sig, got := e.Signals.Get(agentName); got {
			inst.StageOutputs[stage.Name] = e.resolveOutput(inst.ID, stage.Name, sig.Data)
			complete[stage.Name] = true
			if sig.Status == models.SignalFailure {
				e.dispatchStageError(ctx, agentName, sig.Data)
			}
		}
	}

	if ok {
		inst.Status = models.WorkflowCompleted
	} else {
		inst.Status = models.WorkflowPartial
	}
	if path, err := e.writeAggregate(inst.ID, doc, inst.StageOutputs, complete); err == nil {
		inst.Artifact = path
	}
	now := time.Now()
	inst.Completed = &now
	_ = e.save(*inst)
	e.dispatchWorkflowComplete(ctx, inst)
}

// writeAggregate builds the single aggregated artifact for a parallel
// workflow instance: one "## Stage: <name>" heading per stage, in the
// order stages were declared in the workflow document, holding that
// stage's resolved output or a note that it never completed.
func (e *Engine) writeAggregate(instanceID string, doc models.WorkflowDoc, outputs map[string]string, complete map[string]bool) (string, error) {
	var b strings.Builder
	for _, stage := range doc.Stages {
		fmt.Fprintf(&b, "## Stage: %s\n\n", stage.Name)
		if complete[stage.Name] {
			b.WriteString(outputs[stage.Name])
		} else {
			b.WriteString("(incomplete: stage did not signal within the timeout)")
		}
		b.WriteString("\n\n")
	}

	path := filepath.Join(e.Paths.WorkflowStateDir(), instanceID, "aggregated.md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("write aggregated artifact: %w", err)
	}
	return path, nil
}

func (e *Engine) resolveOutput(instanceID, stageName, signalData string) string {
	if signalData != "" {
		if data, err := os.ReadFile(signalData); err == nil {
			return string(data)
		}
		return signalData
	}
	if data, err := os.ReadFile(e.outputPath(instanceID, stageName)); err == nil {
		return string(data)
	}
	return ""
}

func (e *Engine) runSequential(ctx context.Context, inst *models.WorkflowInstance, doc models.WorkflowDoc, task, project string) {
	allReal := true
	passThrough := make(map[string]string)

	for idx, stage := range doc.Stages {
		inst.CurrentStage = idx
		output, real, failed := e.runSequentialStage(ctx, inst, stage, task, project, passThrough)
		if failed {
			inst.Status = models.WorkflowFailed
			now := time.Now()
			inst.Completed = &now
			_ = e.save(*inst)
			e.dispatchWorkflowComplete(ctx, inst)
			return
		}
		inst.StageOutputs[stage.Name] = output
		if stage.PassToNext != "" {
			passThrough[stage.PassToNext] = output
		}
		if !real {
			allReal = false
		}
		_ = e.save(*inst)
	}

	if allReal {
		inst.Status = models.WorkflowCompleted
	} else {
		inst.Status = models.WorkflowPartial
	}
	now := time.Now()
	inst.Completed = &now
	_ = e.save(*inst)
	e.dispatchWorkflowComplete(ctx, inst)
}

// runSequentialStage drives one stage to completion, applying the
// instance's retry strategy on a failure signal. Returns the stage's
// recorded output, whether it's a genuine result (vs. a timeout
// placeholder), and whether the instance should be marked failed.
func (e *Engine) runSequentialStage(ctx context.Context, inst *models.WorkflowInstance, stage models.StageDef, task, project string, passThrough map[string]string) (output string, real bool, failed bool) {
	agentName := e.stageAgentName(inst.ID, stage.Name)
	inst.AgentsByStage[stage.Name] = agentName

	strategy := models.FailureStrategy(stage.RetryStrategy)
	if strategy == "" {
		strategy = models.FailureStrategy(inst.RetryStrategy)
	}

	attempt := 0
	for {
		attempt++
		inst.StageAttempts[stage.Name] = attempt

		prompt := e.buildStagePrompt(inst.ID, stage, Substitute(stage.Prompt, task, passThrough))
		if _, err := e.Lifecycle.Spawn(ctx, agentName, project, stage.Template, prompt, nil); err != nil {
			return "", false, true
		}
		_ = e.save(*inst)

		ok := e.Signals.Wait(ctx, agentName, e.stageTimeout(), e.pollInterval())
		if !ok {
			return "", false, false // timeout: placeholder, continue
		}

		sig, _ := e.Signals.Get(agentName)
		switch sig.Status {
		case models.SignalSuccess:
			return e.resolveOutput(inst.ID, stage.Name, sig.Data), true, false
		case models.SignalBlocked:
			return "", false, false
		case models.SignalFailure:
			e.dispatchStageError(ctx, agentName, sig.Data)
			if strategy == models.FailureStrategyRetry && e.isTransient()(sig.Data) {
				_ = e.Signals.Clear(agentName)
				_ = e.Lifecycle.Kill(ctx, agentName, true)
				time.Sleep(time.Duration(attempt) * time.Second)
				continue
			}
			switch strategy {
			case models.FailureStrategySkip:
				return "(skipped: " + sig.Data + ")", false, false
			case models.FailureStrategyFallback:
				return "(fallback placeholder)", false, false
			default: // abort, or no strategy configured
				return "", false, true
			}
		}
		return "", false, false
	}
}

// buildStagePrompt appends the Completion Instructions footer to an
// already-substituted stage body.
func (e *Engine) buildStagePrompt(instanceID string, stage models.StageDef, body string) string {
	agentName := e.stageAgentName(instanceID, stage.Name)
	outPath := e.outputPath(instanceID, stage.Name)
	return body + fmt.Sprintf(completionInstructionsTmpl, outPath, agentName, outPath, agentName)
}

// Substitute applies {task} and any prior pass_to_next outputs to a
// stage's prompt template, exported for use by sequential substitution
// tests.
func Substitute(promptTmpl, task string, passThrough map[string]string) string {
	out := strings.ReplaceAll(promptTmpl, "{task}", task)
	for key, value := range passThrough {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// Status returns the instance record for id.
func (e *Engine) Status(id string) (models.WorkflowInstance, bool) {
	var inst models.WorkflowInstance
	if err := fsatomic.ReadJSON(e.instancePath(id), &inst); err != nil {
		return models.WorkflowInstance{}, false
	}
	return inst, true
}

// List returns every workflow instance, sorted by id.
func (e *Engine) List() []models.WorkflowInstance {
	entries, err := os.ReadDir(e.Paths.WorkflowStateDir())
	if err != nil {
		return nil
	}
	var out []models.WorkflowInstance
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(ent.Name(), ".json")
		if inst, ok := e.Status(id); ok {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stop kills every stage agent belonging to instance id and marks it
// stopped.
func (e *Engine) Stop(ctx context.Context, id string, force bool) error {
	inst, ok := e.Status(id)
	if !ok {
		return models.ErrUnknownWorkflowInstance(id)
	}
	for _, agentName := range inst.AgentsByStage {
		_ = e.Lifecycle.Kill(ctx, agentName, force)
	}
	inst.Status = models.WorkflowStopped
	now := time.Now()
	inst.Completed = &now
	return e.save(inst)
}
