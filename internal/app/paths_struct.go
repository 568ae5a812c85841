package app

import "path/filepath"

// Paths bundles the data-root subdirectories every component reads or
// writes. Constructing one explicitly (rather than re-deriving paths ad
// hoc) keeps the namespace layout in one place and makes components
// trivially testable against a t.TempDir() root.
type Paths struct {
	Root string
}

// NewPaths wraps a resolved data root. Callers should have already run it
// through EnsureDataRoot (GetDataRoot does this for the process-wide root;
// tests do it directly).
func NewPaths(root string) Paths { return Paths{Root: root} }

func (p Paths) AgentsFile() string       { return filepath.Join(p.Root, "agents.json") }
func (p Paths) MessagesDir() string      { return filepath.Join(p.Root, "messages") }
func (p Paths) SignalsDir() string       { return filepath.Join(p.Root, "signals") }
func (p Paths) LocksDir() string         { return filepath.Join(p.Root, "locks") }
func (p Paths) ClaimsDir() string        { return filepath.Join(p.Root, "claims") }
func (p Paths) ClaimsArchiveDir() string { return filepath.Join(p.Root, "claims", "archive") }
func (p Paths) SharedDir() string        { return filepath.Join(p.Root, "shared") }
func (p Paths) HandoffsDir() string      { return filepath.Join(p.Root, "handoffs") }
func (p Paths) SnapshotsDir() string     { return filepath.Join(p.Root, "snapshots") }
func (p Paths) WorkflowStateDir() string { return filepath.Join(p.Root, "workflow_state") }
func (p Paths) TemplatesDir() string     { return filepath.Join(p.Root, "templates") }
func (p Paths) WorkflowsDir() string     { return filepath.Join(p.Root, "workflows") }
func (p Paths) HooksDir() string         { return filepath.Join(p.Root, "hooks") }
func (p Paths) HookEventDir(event string) string {
	return filepath.Join(p.HooksDir(), event)
}
