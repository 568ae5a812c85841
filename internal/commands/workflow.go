package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/output"
)

// NewWorkflowCmd returns the `workflow {list,show,start,status,stop}` verb
// group over the Workflow Engine (C7).
func NewWorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Multi-stage workflow primitive: list, show, start, status, stop",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newWorkflowListCmd(), newWorkflowShowCmd(), newWorkflowStartCmd(), newWorkflowStatusCmd(), newWorkflowStopCmd())
	return cmd
}

func newWorkflowListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflow document names available under the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(e.Catalog.Workflows())
		},
	}
}

func newWorkflowShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a workflow document's stage definitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			doc, err := e.Catalog.Workflow(args[0])
			if err != nil {
				return cmdErr(err)
			}
			return output.PrintSuccess(doc)
		},
	}
}

func newWorkflowStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start a workflow instance from a catalog document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, _ := cmd.Flags().GetString("task")
			project, _ := cmd.Flags().GetString("project")
			retryStrategy, _ := cmd.Flags().GetString("retry-strategy")
			if project == "" {
				return cmdErr(models.ErrProjectMissing(""))
			}

			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			doc, err := e.Catalog.Workflow(args[0])
			if err != nil {
				return cmdErr(err)
			}
			id, err := e.Workflow.Start(context.Background(), doc, task, project, retryStrategy)
			if err != nil {
				return cmdErr(err)
			}
			type resp struct {
				InstanceID string `json:"instance_id"`
			}
			return output.PrintSuccess(resp{InstanceID: id})
		},
	}
	cmd.Flags().String("task", "", "Task description substituted into every stage prompt")
	cmd.Flags().String("project", "", "Working directory each stage agent is rooted at (required)")
	cmd.Flags().String("retry-strategy", "", "Override each stage's configured failure strategy")
	return cmd
}

func newWorkflowStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [instance-id]",
		Short: "Show one workflow instance, or list every started instance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if len(args) == 1 {
				inst, ok := e.Workflow.Status(args[0])
				if !ok {
					return cmdErr(models.ErrUnknownWorkflowInstance(args[0]))
				}
				return output.PrintSuccess(inst)
			}
			return output.PrintSuccess(e.Workflow.List())
		},
	}
}

func newWorkflowStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <instance-id>",
		Short: "Stop a running workflow instance, killing its stage agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			e, err := requireDataRoot(cmd)
			if err != nil {
				return cmdErr(err)
			}
			if err := e.Workflow.Stop(context.Background(), args[0], force); err != nil {
				return cmdErr(err)
			}
			type resp struct {
				Stopped string `json:"stopped"`
			}
			return output.PrintSuccess(resp{Stopped: args[0]})
		},
	}
	cmd.Flags().Bool("force", false, "Force-kill stage agents without a graceful signal first")
	return cmd
}
