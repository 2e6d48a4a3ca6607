package commands

import (
	"github.com/spf13/cobra"

	"sense-adaptive-core/internal/config"
)

var (
	// Global flags
	remoteAddr   string
	formatOutput string

	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sensecore",
	Short: "Always-listening voice commands with stress-driven adaptations",
	Long: `sensecore - voice command interpreter and adaptive accessibility core.

Configuration comes from the environment (SENSE_*, KAFKA_*, REDIS_*, STT_*).

Examples:
  # Run the service
  sensecore serve

  # Interpret a sentence in-process or against a running server
  sensecore classify "hey sense take me to the cart"
  sensecore --remote localhost:50051 classify "hey sense show me shoes under 50"

  # Score recorded interaction events
  sensecore score -f events.jsonl`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		globalConfig = config.Load()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&remoteAddr, "remote", "", "gRPC address of a running server (default: in-process)")
	rootCmd.PersistentFlags().StringVarP(&formatOutput, "output", "o", "text", "output format: text or json")
}
