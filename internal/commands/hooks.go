package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daedalos/daedalos/internal/hooks"
	"github.com/daedalos/daedalos/internal/output"
)

var hookEvents = map[string]hooks.Event{
	"on_spawn":             hooks.EventSpawn,
	"on_complete":          hooks.EventComplete,
	"on_error":             hooks.EventError,
	"on_kill":              hooks.EventKill,
	"on_workflow_complete": hooks.EventWorkflowComplete,
}

func parseEvent(name string) (hooks.Event, error) {
	ev, ok := hookEvents[name]
	if !ok {
		return "", fmt.Errorf("unknown hook event %q (want one of on_spawn, on_complete, on_error, on_kill, on_workflow_complete)", name)
	}
	return ev, nil
}

// NewHookCmd returns the `hook {list,add,remove,enable,disable,create}`
// verb group.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Lifecycle-hook primitive: list, add, remove, enable, disable, create",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(
		newHookListCmd(),
		newHookAddCmd(),
		newHookRemoveCmd(),
		newHookEnableCmd(),
		newHookDisableCmd(),
		newHookCreateCmd(),
	)
	return cmd
}

func newHookListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <event>",
		Short: "List hook scripts registered for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := parseEvent(args[0])
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(e.Hooks.List(ev))
		},
	}
}

func newHookAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <event> <name> <script-path>",
		Short: "Register an existing script as a hook for an event",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := parseEvent(args[0])
			if err != nil {
				return cmdErr(err)
			}
			content, err := os.ReadFile(args[2])
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Hooks.Add(ev, args[1], content); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Added string `json:"added"`
			}
			return output.PrintSuccess(resp{Added: args[1]})
		},
	}
}

func newHookCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <event> <name>",
		Short: "Create a new hook script from inline content or stdin",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := cmd.Flags().GetString("body")
			ev, err := parseEvent(args[0])
			if err != nil {
				return cmdErr(err)
			}
			if body == "" {
				body = "#!/bin/sh\nexit 0\n"
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Hooks.Add(ev, args[1], []byte(body)); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Created string `json:"created"`
			}
			return output.PrintSuccess(resp{Created: args[1]})
		},
	}
	cmd.Flags().String("body", "", "Script contents (default: a no-op shell stub)")
	return cmd
}

func newHookRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <event> <name>",
		Short: "Delete a hook script",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := parseEvent(args[0])
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Hooks.Remove(ev, args[1]); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Removed string `json:"removed"`
			}
			return output.PrintSuccess(resp{Removed: args[1]})
		},
	}
}

func newHookEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <event> <name>",
		Short: "Re-enable a disabled hook script",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := parseEvent(args[0])
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Hooks.SetEnabled(ev, args[1], true); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Enabled string `json:"enabled"`
			}
			return output.PrintSuccess(resp{Enabled: args[1]})
		},
	}
}

func newHookDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <event> <name>",
		Short: "Disable a hook script without deleting it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := parseEvent(args[0])
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Hooks.SetEnabled(ev, args[1], false); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Disabled string `json:"disabled"`
			}
			return output.PrintSuccess(resp{Disabled: args[1]})
		},
	}
}
