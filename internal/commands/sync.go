package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/output"
)

// NewSignalCmd returns the `signal {complete,wait,check,clear}` verb group
// over completion signals.
func NewSignalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signal",
		Short: "Completion-signal primitive: complete, wait, check, clear",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newSignalCompleteCmd(), newSignalWaitCmd(), newSignalCheckCmd(), newSignalClearCmd())
	return cmd
}

func newSignalCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Record a completion signal for an agent, overwriting any prior one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _ := cmd.Flags().GetString("data")
			statusFlag, _ := cmd.Flags().GetString("status")
			sigStatus := models.SignalSuccess
			if statusFlag != "" {
				sigStatus = models.SignalStatus(statusFlag)
			}

			agent, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Signals.Complete(agent, sigStatus, data); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Completed string `json:"completed"`
			}
			return output.PrintSuccess(resp{Completed: agent})
		},
	}
	cmd.Flags().String("data", "", "Payload accompanying the signal (e.g. output file path)")
	cmd.Flags().String("status", "success", "Signal status: success, failure, or blocked")
	return cmd
}

func newSignalWaitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait <agent>",
		Short: "Block until an agent's completion signal appears, or timeout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeoutS, _ := cmd.Flags().GetInt("timeout")
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			ok := e.Signals.Wait(context.Background(), args[0], time.Duration(timeoutS)*time.Second, e.PollInterval)
			if !ok {
				return cmdErr(models.ErrWaitTimeout(args[0]))
			}
			sig, _ := e.Signals.Get(args[0])
			return output.PrintSuccess(sig)
		},
	}
	cmd.Flags().Int("timeout", 600, "Timeout in seconds")
	return cmd
}

func newSignalCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <agent>",
		Short: "Report whether an agent's completion signal exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Agent    string `json:"agent"`
				Complete bool   `json:"complete"`
			}
			return output.PrintSuccess(resp{Agent: args[0], Complete: e.Signals.Check(args[0])})
		},
	}
}

func newSignalClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <agent>",
		Short: "Remove any completion signal for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Signals.Clear(args[0]); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Cleared string `json:"cleared"`
			}
			return output.PrintSuccess(resp{Cleared: args[0]})
		},
	}
}

// NewLockCmd returns the `lock {acquire,release,check,list}` verb group.
func NewLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Mutual-exclusion primitive with stale-holder reclaim: acquire, release, check, list",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newLockAcquireCmd(), newLockReleaseCmd(), newLockCheckCmd(), newLockListCmd())
	return cmd
}

func newLockAcquireCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acquire <name>",
		Short: "Acquire a named lock, reclaiming it if the current holder's PID is dead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeoutS, _ := cmd.Flags().GetInt("timeout")
			owner, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			ok, err := e.Locks.Acquire(context.Background(), args[0], owner, time.Duration(timeoutS)*time.Second, e.PollInterval)
			if err != nil {
				return cmdErr(err)
			}
			if !ok {
				return cmdErr(models.ErrLockTimeout(args[0]))
			}
			type resp struct {
				Acquired string `json:"acquired"`
			}
			return output.PrintSuccess(resp{Acquired: args[0]})
		},
	}
	cmd.Flags().Int("timeout", 30, "Timeout in seconds")
	return cmd
}

func newLockReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <name>",
		Short: "Release a lock held by the current agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Locks.Release(args[0], owner); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Released string `json:"released"`
			}
			return output.PrintSuccess(resp{Released: args[0]})
		},
	}
}

func newLockCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <name>",
		Short: "Show a lock's current holder, if any",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			info, held := e.Locks.Info(args[0])
			type resp struct {
				Name string      `json:"name"`
				Held bool        `json:"held"`
				Lock models.Lock `json:"lock,omitempty"`
			}
			return output.PrintSuccess(resp{Name: args[0], Held: held, Lock: info})
		},
	}
}

func newLockListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every currently held lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(e.Locks.List())
		},
	}
}

// NewClaimCmd returns the `claim {create,release,check,list}` verb group
// over task claims.
func NewClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Task-claim primitive: create, release, check, list",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newClaimCreateCmd(), newClaimReleaseCmd(), newClaimCheckCmd(), newClaimListCmd())
	return cmd
}

func newClaimCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <task-id>",
		Short: "Claim a task (idempotent for the current owner)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")
			agent, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			claim, err := e.Claims.Create(args[0], agent, description)
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(claim)
		},
	}
	cmd.Flags().String("description", "", "Short description of the claimed task")
	return cmd
}

func newClaimReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release <task-id>",
		Short: "Release a claim, archiving it with a final status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statusFlag, _ := cmd.Flags().GetString("status")
			claimStatus := models.ClaimStatusCompleted
			if statusFlag != "" {
				claimStatus = models.ClaimStatus(statusFlag)
			}
			agent, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Claims.Release(args[0], agent, claimStatus); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Released string `json:"released"`
			}
			return output.PrintSuccess(resp{Released: args[0]})
		},
	}
	cmd.Flags().String("status", "completed", "Final claim status: completed, abandoned, or failed")
	return cmd
}

func newClaimCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <task-id>",
		Short: "Show a task's active claim, if any",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			claim, ok := e.Claims.Get(args[0])
			type resp struct {
				TaskID  string       `json:"task_id"`
				Claimed bool         `json:"claimed"`
				Claim   models.Claim `json:"claim,omitempty"`
			}
			return output.PrintSuccess(resp{TaskID: args[0], Claimed: ok, Claim: claim})
		},
	}
}

func newClaimListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every active claim",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(e.Claims.List())
		},
	}
}
