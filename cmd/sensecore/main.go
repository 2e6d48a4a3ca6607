// Command sensecore runs and exercises the adaptive voice core.
//
// Usage:
//
//	sensecore [flags] <command> [args]
//
// Commands:
//
//	serve     - HTTP, websocket and gRPC service
//	classify  - interpret one utterance
//	score     - stress score a file of interaction events
//	replay    - stream recorded transcripts through a remote session
//	watch     - tail published commands and adaptation decisions
package main

import (
	"fmt"
	"os"

	"sense-adaptive-core/cmd/sensecore/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
