package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	grpcapi "sense-adaptive-core/internal/api/grpc"
)

var replayFile string

var replayCmd = &cobra.Command{
	Use:   "replay -f <frames.jsonl>",
	Short: "Stream recorded transcripts through a remote session",
	Long: `Replay recognizer results and interaction events through one session on a
running server and print what it produced. One frame per line.

Example lines:
  {"text":"hey sense take me to products","isFinal":true,"confidence":0.93}
  {"interaction":{"type":"click","timestamp":"2026-03-01T10:00:00Z"}}

Examples:
  sensecore --remote localhost:50051 replay -f session.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if remoteAddr == "" {
			remoteAddr = "localhost:" + globalConfig.Service.GRPCPort
		}

		in, err := openInput(replayFile)
		if err != nil {
			return err
		}
		defer in.Close()
		frames, err := readJSONLines[grpcapi.TranscriptFrame](in)
		if err != nil {
			return err
		}

		client, closeConn, err := dialRemote()
		if err != nil {
			return err
		}
		defer closeConn()

		ack, err := client.StreamTranscripts(cmd.Context(), frames)
		if err != nil {
			return err
		}

		if formatOutput == "json" {
			return printJSON(ack)
		}
		fmt.Printf("session: %s\n", ack.SessionID)
		for i, c := range ack.Commands {
			fmt.Printf("command %d:\n", i+1)
			printCommand(c)
		}
		fmt.Printf("stress:  %d\n", ack.Stress.Score)

		var on []string
		for k, v := range ack.Adaptations {
			if v {
				on = append(on, string(k))
			}
		}
		sort.Strings(on)
		fmt.Printf("adaptations on: %v\n", on)
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "JSON-lines frames file (use '-' for stdin)")
	rootCmd.AddCommand(replayCmd)
}
