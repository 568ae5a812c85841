package commands

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/daedalos/daedalos/internal/app"
	"github.com/daedalos/daedalos/internal/env"
	"github.com/daedalos/daedalos/internal/models"
	"github.com/daedalos/daedalos/internal/output"
)

// printedError marks an error whose JSON response has already been written
// to stdout, so Execute's caller doesn't print it again.
type printedError struct {
	code string
}

func (e printedError) Error() string { return "error already printed" }

// cmdErr prints err as a JSON error envelope and wraps it so Execute can
// derive the right process exit code without re-printing.
func cmdErr(err error) error {
	if err == nil {
		return nil
	}
	code := ""
	var re models.RecoverableError
	if errors.As(err, &re) {
		code = re.ErrorCode()
	}
	if pe := output.PrintError(err); pe != nil {
		slog.Default().Error("failed to print error response", "error", pe.Error())
	}
	return printedError{code: code}
}

// ExitCode derives the process exit code for an error returned by Execute:
// 0 success, 1 fatal/timeout, 2 validation.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var pe printedError
	if errors.As(err, &pe) {
		if models.ValidationCodes[pe.code] {
			return 2
		}
		return 1
	}
	return 1
}

// requireDataRoot resolves the --data-root flag (falling back to
// app.GetDataRoot's documented lookup order) and builds a fully wired Env.
func requireDataRoot(cmd *cobra.Command) (*env.Env, error) {
	if dataRoot, err := cmd.Root().PersistentFlags().GetString("data-root"); err == nil && dataRoot != "" {
		app.SetDataRootOverride(dataRoot)
	}

	root, err := app.GetDataRoot()
	if err != nil {
		return nil, err
	}

	settings := app.EffectiveOrchestrationSettings()
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	return env.Build(root, settings, log)
}

// requireAgentName resolves the agent name from the --agent flag or the
// DAEDALOS_AGENT environment variable.
func requireAgentName(cmd *cobra.Command, perCmdFlag string) (string, error) {
	if perCmdFlag != "" {
		return perCmdFlag, nil
	}
	if name, err := cmd.Root().PersistentFlags().GetString("agent"); err == nil && name != "" {
		return name, nil
	}
	if name := os.Getenv("DAEDALOS_AGENT"); name != "" {
		return name, nil
	}
	return "", errors.New("agent name is required: pass --agent or set DAEDALOS_AGENT")
}
