package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/schema"
	"sense-adaptive-core/internal/service/stress"
)

var (
	scoreFile   string
	scoreWindow time.Duration
)

var scoreCmd = &cobra.Command{
	Use:   "score -f <events.jsonl>",
	Short: "Stress score recorded interaction events",
	Long: `Score a batch of interaction events, one JSON object per line.
Use '-' to read from stdin. Events without a timestamp count as now.

Example line:
  {"type":"click","timestamp":"2026-03-01T10:00:00Z","payload":{"x":10,"y":20}}

Examples:
  sensecore score -f events.jsonl
  sensecore score -f - --window 30s < events.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInput(scoreFile)
		if err != nil {
			return err
		}
		defer in.Close()

		events, err := readJSONLines[models.InteractionEvent](in)
		if err != nil {
			return err
		}
		req := &models.ScoreRequest{Events: events, WindowSeconds: int(scoreWindow / time.Second)}

		var res stress.Result
		if remoteAddr != "" {
			client, closeConn, err := dialRemote()
			if err != nil {
				return err
			}
			defer closeConn()
			r, err := client.Score(cmd.Context(), req)
			if err != nil {
				return err
			}
			res = *r
		} else {
			if err := schema.New().Validate(req); err != nil {
				return err
			}
			thresholds, err := stress.LoadThresholds(globalConfig.Stress.ThresholdsFile)
			if err != nil {
				return err
			}
			res = stress.NewScorer(thresholds).ScoreBatch(req.Events, scoreWindow, time.Now())
		}

		if formatOutput == "json" {
			return printJSON(res)
		}
		fmt.Printf("score:  %d (%d events)\n", res.Score, res.Events)
		for _, sig := range res.Signals {
			fmt.Printf("  %-14s %8.2f  +%d\n", sig.Name, sig.Value, sig.Points)
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreFile, "file", "f", "", "JSON-lines events file (use '-' for stdin)")
	scoreCmd.Flags().DurationVar(&scoreWindow, "window", stress.DefaultWindow, "span the events were collected over")
	rootCmd.AddCommand(scoreCmd)
}
