package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sense-adaptive-core/internal/events"
	"sense-adaptive-core/internal/models"
)

var watchSince time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail published commands and adaptation decisions",
	Long: `Tail the command and adaptation topics and print each event.

Examples:
  KAFKA_BROKERS=localhost:9092 sensecore watch
  sensecore watch --since 1h -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kcfg := globalConfig.Kafka
		if len(kcfg.Brokers) == 0 {
			return errors.New("no Kafka brokers configured (set KAFKA_BROKERS)")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var mu sync.Mutex
		handle := func(ev models.Event) {
			mu.Lock()
			defer mu.Unlock()
			if formatOutput == "json" {
				_ = printJSON(ev)
				return
			}
			printEvent(ev)
		}

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, topic := range []string{kcfg.TopicCommands, kcfg.TopicAdaptations} {
			c, err := events.NewConsumer(events.ConsumerConfig{Brokers: kcfg.Brokers, Topic: topic, Since: watchSince})
			if err != nil {
				return err
			}
			defer c.Close()

			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- c.Run(ctx, handle)
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		}
		return nil
	},
}

func printEvent(ev models.Event) {
	ts := time.UnixMilli(ev.Timestamp).Format("15:04:05.000")
	switch ev.EventType {
	case models.EventTypeCommand:
		c := ev.Command
		fmt.Printf("%s %s command %-12s %s %s\n", ts, ev.SessionID, c.Type, c.Action, c.Route)
	case models.EventTypeAdaptation:
		d := ev.Decision
		fmt.Printf("%s %s adapt   source=%s stress=%d changed=%v\n", ts, ev.SessionID, d.Source, d.StressScore, d.Changed)
	}
}

func init() {
	watchCmd.Flags().DurationVar(&watchSince, "since", 0, "replay events from this far back (default: new events only)")
	rootCmd.AddCommand(watchCmd)
}
