package output

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/daedalos/daedalos/internal/models"
)

// Response represents a standard JSON response. ExitCode mirrors the
// process exit code an equivalent CLI invocation would have produced
// (0/1/2, per internal/commands.ExitCode), so an agent reading another
// agent's captured scrollback after the fact can classify a failure
// without access to the original process's exit status.
type Response struct {
	SchemaVersion   string            `json:"schema_version"`
	Success         bool              `json:"success"`
	Data            interface{}       `json:"data,omitempty"`
	Error           string            `json:"error,omitempty"`
	ErrorCode       string            `json:"error_code,omitempty"`
	ErrorContext    map[string]string `json:"error_context,omitempty"`
	SuggestedAction string            `json:"suggested_action,omitempty"`
	ExitCode        int               `json:"exit_code,omitempty"`
}

// Config holds output configuration
type Config struct {
	Writer io.Writer
	Pretty bool
}

// DefaultConfig returns configuration using stdout and environment
func DefaultConfig() Config {
	pretty := os.Getenv("DAEDALOS_PRETTY_JSON") == "1" || os.Getenv("DAEDALOS_PRETTY_JSON") == "true"
	return Config{
		Writer: os.Stdout,
		Pretty: pretty,
	}
}

// Success wraps a successful response with data
func Success(data interface{}) Response {
	return Response{
		SchemaVersion: "v1",
		Success:       true,
		Data:          data,
	}
}

// Error wraps an error in a response, enriching with structured metadata if
// available and classifying it into the exit-code tier a CLI invocation
// would use: 2 for validation errors, 1 for everything else.
func Error(err error) Response {
	resp := Response{
		SchemaVersion: "v1",
		Success:       false,
		Error:         err.Error(),
		ExitCode:      1,
	}
	var re models.RecoverableError
	if errors.As(err, &re) {
		resp.ErrorCode = re.ErrorCode()
		resp.ErrorContext = re.Context()
		resp.SuggestedAction = re.SuggestedAction()
		if models.ValidationCodes[resp.ErrorCode] {
			resp.ExitCode = 2
		}
	}
	return resp
}

// PrintWith prints a value as JSON to the configured writer
func PrintWith(cfg Config, v interface{}) error {
	enc := json.NewEncoder(cfg.Writer)
	if cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Print prints a value as JSON to stdout
// Default to compact JSON to minimize token/output size for agent consumption.
// Enable pretty JSON for humans via env var: DAEDALOS_PRETTY_JSON=1.
func Print(v interface{}) error {
	return PrintWith(DefaultConfig(), v)
}

// PrintSuccess prints a success response
func PrintSuccess(data interface{}) error {
	return Print(Success(data))
}

// PrintError prints an error response
func PrintError(err error) error {
	return Print(Error(err))
}

// Keep output package focused: commands should handle human-readable formatting.
