package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daedalos/daedalos/internal/env"
	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/output"
	"github.com/daedalos/daedalos/internal/sessionhost"
	"github.com/daedalos/daedalos/internal/status"
)

// NewLifecycleCommands returns the Lifecycle Manager (C6) verb group: spawn,
// kill, pause, resume, focus, list, status, snapshot, restore.
func NewLifecycleCommands() []*cobra.Command {
	return []*cobra.Command{
		newSpawnCmd(),
		newKillCmd(),
		newPauseCmd(),
		newResumeCmd(),
		newFocusCmd(),
		newListCmd(),
		newStatusCmd(),
		newSnapshotCmd(),
		newRestoreCmd(),
	}
}

func newSpawnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spawn <name>",
		Short: "Start a new supervised agent session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetString("project")
			template, _ := cmd.Flags().GetString("template")
			prompt, _ := cmd.Flags().GetString("prompt")
			focus, _ := cmd.Flags().GetBool("focus")
			if project == "" {
				return cmdErr(fmt.Errorf("--project is required"))
			}
			if template == "" {
				template = "default"
			}

			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}

			ctx := context.Background()
			agent, err := e.Lifecycle.Spawn(ctx, args[0], project, template, prompt, nil)
			if err != nil {
				return cmdErr(err)
			}

			// Step 8 of spawn: only switch when already inside an
			// interactive multiplexer session; otherwise no-op, since
			// attaching from outside one would block the CLI invocation.
			if focus && os.Getenv("TMUX") != "" {
				_ = e.Host.Attach(ctx, agent.SessionHandle)
			}

			return output.PrintSuccess(agent)
		},
	}
	cmd.Flags().String("project", "", "Working directory the session is rooted at (required)")
	cmd.Flags().String("template", "default", "Template name under <data-root>/templates")
	cmd.Flags().String("prompt", "", "Initial task prompt")
	cmd.Flags().Bool("focus", false, "Switch to the new session if already inside an interactive multiplexer session")
	return cmd
}

func newKillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kill <name>",
		Short: "Terminate an agent session and remove its registry entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Lifecycle.Kill(context.Background(), args[0], force); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Killed string `json:"killed"`
			}
			return output.PrintSuccess(resp{Killed: args[0]})
		},
	}
	cmd.Flags().Bool("force", false, "Force-kill without a graceful signal first")
	return cmd
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause <name>",
		Short: "Stop an agent's child process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Lifecycle.Pause(context.Background(), args[0]); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Paused string `json:"paused"`
			}
			return output.PrintSuccess(resp{Paused: args[0]})
		},
	}
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <name>",
		Short: "Continue a paused agent's child process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Lifecycle.Resume(context.Background(), args[0]); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Resumed string `json:"resumed"`
			}
			return output.PrintSuccess(resp{Resumed: args[0]})
		},
	}
}

func newFocusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "focus <name-or-alias>",
		Short: "Attach or switch to an agent's session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			handle, err := e.Lifecycle.Focus(context.Background(), args[0])
			if err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Session string `json:"session"`
			}
			return output.PrintSuccess(resp{Session: handle})
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered agent, with freshly classified status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			agents := e.Registry.All()
			for i := range agents {
				agents[i].Status = refreshStatus(cmd.Context(), e, agents[i])
			}
			return output.PrintSuccess(agents)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <name>",
		Short: "Classify an agent's current status from its live scrollback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			agent, ok := e.Registry.Lookup(args[0])
			if !ok {
				return cmdErr(models.ErrUnknownAgent(args[0]))
			}
			agent.Status = refreshStatus(context.Background(), e, agent)
			_ = e.Registry.Update(agent.Name, func(a *models.Agent) { a.Status = agent.Status })
			return output.PrintSuccess(agent)
		},
	}
}

// refreshStatus captures the agent's current scrollback and classifies it
// per internal/status's priority rules, falling back to the cached
// registry status if the session can't be reached.
func refreshStatus(ctx context.Context, e *env.Env, agent models.Agent) models.Status {
	exists, err := e.Host.Exists(ctx, agent.SessionHandle)
	if err != nil {
		return agent.Status
	}
	if !exists {
		return models.StatusDead
	}

	scrollback, err := e.Host.Capture(ctx, agent.SessionHandle, e.Settings.ScrollbackLines)
	if err != nil {
		return agent.Status
	}
	lines := strings.Split(scrollback, "\n")
	paused := agent.Status == models.StatusPaused
	return status.Classify(lines, paused, exists)
}

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot [name...]",
		Short: "Capture registry, scrollback, and working-tree diff for one or more agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			label, _ := cmd.Flags().GetString("label")
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			id, err := e.Lifecycle.Snapshot(context.Background(), args, label)
			if err != nil {
				return cmdErr(err)
			}
			type resp struct {
				SnapshotID string `json:"snapshot_id"`
			}
			return output.PrintSuccess(resp{SnapshotID: id})
		},
	}
	cmd.Flags().String("label", "", "Human-readable label for the snapshot")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <snapshot-id>",
		Short: "Re-spawn agents captured in a snapshot (skipping any still live)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			which, _ := cmd.Flags().GetString("agent")
			focus, _ := cmd.Flags().GetBool("focus")
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			ctx := context.Background()
			restored, err := e.Lifecycle.Restore(ctx, args[0], which)
			if err != nil {
				return cmdErr(err)
			}

			if focus && len(restored) > 0 {
				_ = e.Host.Attach(ctx, sessionhost.SessionName(restored[0]))
			}

			type resp struct {
				Restored []string `json:"restored"`
			}
			return output.PrintSuccess(resp{Restored: restored})
		},
	}
	cmd.Flags().String("agent", "", "Restore only this agent from the snapshot (default: all)")
	cmd.Flags().Bool("focus", true, "Reattach to the first restored agent (set --focus=false to disable)")
	return cmd
}
