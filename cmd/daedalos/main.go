// Daedalos orchestrates fleets of coding agents over a filesystem-based
// coordination layer: spawning, messaging, synchronization primitives, and
// multi-stage workflows, all backed by one small file per record under a
// data root.
package main

import (
	"os"
	"runtime/debug"

	"github.com/daedalos/daedalos/internal/commands"
)

// version is set via ldflags (-X main.version=v1.0.0) or detected
// automatically from Go module info embedded by go install.
var version = "dev"

func main() {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
	err := commands.Execute(version)
	os.Exit(commands.ExitCode(err))
}
