package models

import "time"

// Status is the cached/detected lifecycle status of an agent's session.
// It is a closed sum type; handling must be exhaustive.
type Status string

const (
	StatusActive   Status = "active"
	StatusThinking Status = "thinking"
	StatusWaiting  Status = "waiting"
	StatusIdle     Status = "idle"
	StatusPaused   Status = "paused"
	StatusError    Status = "error"
	StatusDead     Status = "dead"
	StatusStarting Status = "starting" // transient: set by spawn before first status refresh
)

// Agent is a named coordinator-managed entity.
type Agent struct {
	Name          string    `json:"name"`
	Slot          int       `json:"slot"`
	Project       string    `json:"project"`
	Template      string    `json:"template"`
	SessionHandle string    `json:"session_handle"`
	ChildPID      int       `json:"child_pid"`
	CreatedAt     time.Time `json:"created_at"`
	LastActivity  time.Time `json:"last_activity"`
	Status        Status    `json:"status"`
}

// MessageKind enumerates the closed set of message types.
type MessageKind string

const (
	MessageKindHelpRequest    MessageKind = "help_request"
	MessageKindHelpResponse   MessageKind = "help_response"
	MessageKindHandoff        MessageKind = "handoff"
	MessageKindSharedArtifact MessageKind = "shared_artifact"
	MessageKindBroadcast      MessageKind = "broadcast"
	MessageKindGroupMessage   MessageKind = "group_message"
	MessageKindUser           MessageKind = "user"
)

// MessageStatus tracks whether a message has been consumed.
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusRead    MessageStatus = "read"
)

// Message is a record addressed to one agent.
type Message struct {
	ID        string        `json:"id"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	Type      MessageKind   `json:"type"`
	Content   string        `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	Status    MessageStatus `json:"status"`
}

// SignalStatus enumerates the closed set of completion-signal outcomes.
type SignalStatus string

const (
	SignalSuccess SignalStatus = "success"
	SignalFailure SignalStatus = "failure"
	SignalBlocked SignalStatus = "blocked"
)

// CompletionSignal is exactly one per agent-task completion attempt.
type CompletionSignal struct {
	Agent     string       `json:"agent"`
	Status    SignalStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Data      string       `json:"data,omitempty"`
}

// Lock is advisory mutual-exclusion on a named resource.
type Lock struct {
	Name       string    `json:"name"`
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
	HolderPID  int       `json:"holder_pid"`
}

// ClaimStatus tracks a claim's lifecycle.
type ClaimStatus string

const (
	ClaimStatusActive    ClaimStatus = "active"
	ClaimStatusCompleted ClaimStatus = "completed"
	ClaimStatusFailed    ClaimStatus = "failed"
	ClaimStatusAbandoned ClaimStatus = "abandoned"
)

// Claim is a lightweight mark that a task is owned.
type Claim struct {
	TaskID      string      `json:"task_id"`
	Agent       string      `json:"agent"`
	Description string      `json:"description"`
	ClaimedAt   time.Time   `json:"claimed_at"`
	Status      ClaimStatus `json:"status"`
	ReleasedAt  *time.Time  `json:"released_at,omitempty"`
}

// HandoffStatus tracks whether a handoff has been accepted.
type HandoffStatus string

const (
	HandoffPending  HandoffStatus = "pending"
	HandoffAccepted HandoffStatus = "accepted"
)

// Handoff is a context transfer request.
type Handoff struct {
	ID      string        `json:"id"`
	From    string        `json:"from"`
	To      string        `json:"to"`
	Context string        `json:"context"`
	Created time.Time     `json:"created"`
	Status  HandoffStatus `json:"status"`
}

// Artifact is a file published by one agent to a shared namespace.
type Artifact struct {
	Name         string    `json:"name"`
	OriginalPath string    `json:"original_path"`
	SharedBy     string    `json:"shared_by"`
	SharedAt     time.Time `json:"shared_at"`
	Recipients   []string  `json:"recipients,omitempty"` // empty = all
}

// WorkflowStatus is the closed set of workflow-instance outcomes.
type WorkflowStatus string

const (
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
	WorkflowPartial   WorkflowStatus = "partial"
	WorkflowStopped   WorkflowStatus = "stopped"
)

// WorkflowInstance is a scheduled multi-stage job.
type WorkflowInstance struct {
	ID             string            `json:"id"`
	Workflow       string            `json:"workflow"`
	Task           string            `json:"task"`
	Project        string            `json:"project"`
	Parallel       bool              `json:"parallel"`
	Stages         []string          `json:"stages"`
	CurrentStage   int               `json:"current_stage"`
	StageOutputs   map[string]string `json:"stage_outputs"`
	AgentsByStage  map[string]string `json:"agents_by_stage"`
	Status         WorkflowStatus    `json:"status"`
	Started        time.Time         `json:"started"`
	Completed      *time.Time        `json:"completed,omitempty"`
	RetryStrategy  string            `json:"retry_strategy,omitempty"`
	StageAttempts  map[string]int    `json:"stage_attempts,omitempty"`
	Artifact       string            `json:"artifact,omitempty"`
}

// Template describes how to invoke the underlying agent process for a
// given role.
type Template struct {
	Name         string            `yaml:"name" json:"name"`
	Description  string            `yaml:"description" json:"description"`
	BaseArgs     []string          `yaml:"base_args" json:"base_args"`
	Env          map[string]string `yaml:"env" json:"env"`
	AllowedTools []string          `yaml:"allowed_tools" json:"allowed_tools"`
	DeniedTools  []string          `yaml:"denied_tools" json:"denied_tools"`
	SystemPrompt string            `yaml:"system_prompt" json:"system_prompt"`
	PromptPrefix string            `yaml:"prompt_prefix" json:"prompt_prefix"`
	OnComplete   string            `yaml:"on_complete" json:"on_complete"` // default "signal"
}

// EffectivePrompt composes the template's effective prompt for a user task:
// system prompt, a blank-line separator, then the prompt prefix and task.
func (t Template) EffectivePrompt(userTask string) string {
	out := t.SystemPrompt
	if out != "" {
		out += "\n\n"
	}
	out += t.PromptPrefix + userTask
	return out
}

// StageDef declares one stage of a workflow document.
type StageDef struct {
	Name          string `yaml:"name" json:"name"`
	Template      string `yaml:"template" json:"template"`
	Prompt        string `yaml:"prompt" json:"prompt"`
	PassToNext    string `yaml:"pass_to_next,omitempty" json:"pass_to_next,omitempty"`
	RetryStrategy string `yaml:"retry_strategy,omitempty" json:"retry_strategy,omitempty"`
}

// WorkflowDoc is a named multi-stage plan document.
type WorkflowDoc struct {
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description"`
	Parallel    bool       `yaml:"parallel" json:"parallel"`
	Stages      []StageDef `yaml:"stages" json:"stages"`
}

// FailureStrategy enumerates how the WorkflowEngine reacts to a stage
// failure signal.
type FailureStrategy string

const (
	FailureStrategyRetry    FailureStrategy = "retry"
	FailureStrategySkip     FailureStrategy = "skip"
	FailureStrategyAbort    FailureStrategy = "abort"
	FailureStrategyFallback FailureStrategy = "fallback"
)

// SnapshotMeta describes a point-in-time capture of one or more agents.
type SnapshotMeta struct {
	ID        string    `json:"id"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Agents    []string  `json:"agents"`
	SizeBytes int64     `json:"size_bytes"`
	Size      string    `json:"size"`
}

// SnapshotAgentRecord is the per-agent payload inside a snapshot
// directory.
type SnapshotAgentRecord struct {
	Agent      Agent  `json:"agent"`
	Scrollback string `json:"-"` // stored alongside as scrollback.txt, not inlined
	Diff       string `json:"-"` // stored alongside as diff.patch, not inlined
	HasDiff    bool   `json:"has_diff"`
}
