package models

import "fmt"

// RecoverableError is implemented by enriched errors that carry structured
// context and remediation hints. Both the store/sync layers and the output
// package use this interface to avoid an import cycle.
type RecoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}

// taxonomyError is the concrete RecoverableError implementation shared by
// every error constructor below. Each constructor fixes the code and a
// default suggested action; Context is supplied per call site.
type taxonomyError struct {
	code            string
	message         string
	context         map[string]string
	suggestedAction string
}

func (e *taxonomyError) Error() string            { return e.message }
func (e *taxonomyError) ErrorCode() string        { return e.code }
func (e *taxonomyError) Context() map[string]string { return e.context }
func (e *taxonomyError) SuggestedAction() string  { return e.suggestedAction }

// ValidationCodes are the error-taxonomy codes that stem from bad caller
// input (a malformed name, an unknown recipient) rather than a runtime or
// resource failure. internal/output and internal/commands both key off this
// set: the CLI's exit code 2 vs 1, and a captured JSON response's ExitCode
// field for agents that read another agent's output after the fact instead
// of its live process exit status.
var ValidationCodes = map[string]bool{
	"InvalidName":      true,
	"NameTooLong":      true,
	"UnknownAgent":     true,
	"UnknownRecipient": true,
	"UnknownTemplate":  true,
	"UnknownWorkflow":  true,
	"NoSlot":           true,
	"DuplicateName":    true,
}

func newErr(code, action string, ctx map[string]string, format string, args ...any) *taxonomyError {
	return &taxonomyError{
		code:            code,
		message:         fmt.Sprintf(format, args...),
		context:         ctx,
		suggestedAction: action,
	}
}

// --- Validation errors ---

func ErrInvalidName(name string) error {
	return newErr("InvalidName", "names must be 1-32 chars, start with a letter, and contain only [A-Za-z0-9_-]",
		map[string]string{"name": name}, "invalid agent name %q", name)
}

func ErrNameTooLong(name string) error {
	return newErr("NameTooLong", "shorten the name to 32 characters or fewer",
		map[string]string{"name": name}, "agent name %q exceeds 32 characters", name)
}

func ErrUnknownAgent(name string) error {
	return newErr("UnknownAgent", "check `daedalos list` for live agent names",
		map[string]string{"name": name}, "unknown agent %q", name)
}

func ErrUnknownRecipient(name string) error {
	return newErr("UnknownRecipient", "the recipient must be a registered agent name",
		map[string]string{"to": name}, "unknown recipient %q", name)
}

func ErrUnknownTemplate(name string) error {
	return newErr("UnknownTemplate", "check templates under <data-root>/templates",
		map[string]string{"template": name}, "unknown template %q", name)
}

func ErrUnknownHandoff(id string) error {
	return newErr("UnknownHandoff", "check `daedalos handoff list` for the handoff id",
		map[string]string{"handoff_id": id}, "unknown handoff %q", id)
}

func ErrUnknownClaim(taskID string) error {
	return newErr("UnknownClaim", "check `daedalos claim list` for active task ids",
		map[string]string{"task_id": taskID}, "no active claim for task %q", taskID)
}

func ErrUnknownWorkflow(name string) error {
	return newErr("UnknownWorkflow", "check workflow documents under <data-root>/workflows",
		map[string]string{"workflow": name}, "unknown workflow %q", name)
}

func ErrUnknownWorkflowInstance(id string) error {
	return newErr("UnknownWorkflowInstance", "check `daedalos workflow status` for active instance ids",
		map[string]string{"instance_id": id}, "unknown workflow instance %q", id)
}

func ErrNoSlot(maxSlots int) error {
	return newErr("NoSlot", "kill an idle agent to free a slot, or raise max_slots in config.yaml",
		map[string]string{"max_slots": fmt.Sprintf("%d", maxSlots)}, "no free slot (max_slots=%d)", maxSlots)
}

func ErrDuplicateName(name string) error {
	return newErr("DuplicateName", "choose a different name or kill the existing agent first",
		map[string]string{"name": name}, "agent %q already exists", name)
}

// --- Resource errors ---

func ErrSessionGone(session string) error {
	return newErr("SessionGone", "the agent's session no longer exists; treat the agent as dead",
		map[string]string{"session": session}, "session %q is gone", session)
}

func ErrProjectMissing(path string) error {
	return newErr("ProjectMissing", "verify the project directory exists before spawning",
		map[string]string{"project": path}, "project directory %q does not exist", path)
}

func ErrBackupMissing(id string) error {
	return newErr("BackupMissing", "check `daedalos snapshot` output for valid snapshot ids",
		map[string]string{"snapshot_id": id}, "snapshot %q not found", id)
}

// --- Conflict errors ---

func ErrAlreadyClaimed(taskID, owner string) error {
	return newErr("AlreadyClaimed", "wait for the current owner to release, or pick a different task",
		map[string]string{"task_id": taskID, "owner": owner}, "task %q already claimed by %q", taskID, owner)
}

func ErrNotOwner(name, owner string) error {
	return newErr("NotOwner", "only the current owner may release this resource",
		map[string]string{"name": name, "owner": owner}, "%q is held by %q, not you", name, owner)
}

// --- Timeout errors ---

func ErrWaitTimeout(agent string) error {
	return newErr("WaitTimeout", "retry, skip, or abort depending on your workflow's failure strategy",
		map[string]string{"agent": agent}, "timed out waiting for %q to complete", agent)
}

func ErrLockTimeout(name string) error {
	return newErr("LockTimeout", "retry later or inspect `daedalos lock list` for the current holder",
		map[string]string{"lock": name}, "timed out acquiring lock %q", name)
}

// --- Protocol errors ---

func ErrProtocol(kind, detail string) error {
	return newErr("Protocol", "fix the document and retry; no side effects were made",
		map[string]string{"kind": kind}, "malformed %s document: %s", kind, detail)
}
