package commands

import (
	"github.com/spf13/cobra"

	"github.com/daedalos/daedalos/internal/output"
)

// NewHandoffCmd returns the `handoff {create,accept,list}` verb group over
// context handoffs: the C4 handoff primitive exposed the same way every
// other synchronization primitive is.
func NewHandoffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handoff",
		Short: "Context-handoff primitive: create, accept, list",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newHandoffCreateCmd(), newHandoffAcceptCmd(), newHandoffListCmd())
	return cmd
}

func newHandoffCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <to> <context>",
		Short: "Request a context handoff to another agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			id, err := e.Handoffs.Create(from, args[0], args[1])
			if err != nil {
				return cmdErr(err)
			}
			type resp struct {
				HandoffID string `json:"handoff_id"`
			}
			return output.PrintSuccess(resp{HandoffID: id})
		},
	}
	return cmd
}

func newHandoffAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <id>",
		Short: "Accept a handoff addressed to the current agent, returning its context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := requireAgentName(cmd, "")
			if err != nil {
				return cmdErr(err)
			}
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			context, err := e.Handoffs.Accept(args[0], agent)
			if err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Context string `json:"context"`
			}
			return output.PrintSuccess(resp{Context: context})
		},
	}
}

func newHandoffListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every handoff record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(e.Handoffs.List())
		},
	}
}
