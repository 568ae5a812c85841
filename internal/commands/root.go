package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/daedalos/daedalos/internal/app"
	"github.com/daedalos/daedalos/internal/output"
)

// Execute runs the CLI application, returning an error whose ExitCode maps
// to the three-way exit-code contract: 0 success, 1 fatal/timeout, 2
// validation.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "daedalos",
		Short:         "Multi-agent orchestration engine: spawn, coordinate, and supervise coding agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			showVersion, _ := cmd.Flags().GetBool("version")
			if showVersion {
				type resp struct {
					Version string `json:"version"`
				}
				return output.PrintSuccess(resp{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.EnsureConfigDir()
		},
	}

	root.PersistentFlags().String("data-root", "", "Override the orchestration data root (default: $DAEDALOS_DATA_ROOT or config.yaml)")
	root.PersistentFlags().StringP("agent", "a", "", "Agent name, where a command needs one (default: $DAEDALOS_AGENT)")
	root.PersistentFlags().String("request-id", "", "Idempotency key for mutating operations (currently informational)")
	root.Flags().BoolP("version", "v", false, "version for daedalos")

	root.AddCommand(NewLifecycleCommands()...)
	root.AddCommand(NewMessagingCommands()...)
	root.AddCommand(NewSignalCmd())
	root.AddCommand(NewLockCmd())
	root.AddCommand(NewClaimCmd())
	root.AddCommand(NewHandoffCmd())
	root.AddCommand(NewWorkflowCmd())
	root.AddCommand(NewHookCmd())

	err := root.Execute()
	if err != nil {
		var pe printedError
		if !errors.As(err, &pe) {
			slog.Default().Error("command failed", "error", err.Error())
		}
	}
	return err
}
