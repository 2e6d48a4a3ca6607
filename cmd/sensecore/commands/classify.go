package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/schema"
	"sense-adaptive-core/internal/service/command"
	"sense-adaptive-core/internal/service/wakeword"
)

var (
	classifyCommandMode bool
	classifyRoute       string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <text...>",
	Short: "Interpret one utterance",
	Long: `Interpret one utterance the way a live session would.

Without --command-mode the text must start with the wake phrase.

Examples:
  sensecore classify "hey sense add two apples to my cart"
  sensecore classify --command-mode "go back"
  sensecore -o json classify "hey sense turn on high contrast"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &models.ClassifyRequest{
			Text:        strings.Join(args, " "),
			CommandMode: classifyCommandMode,
			Route:       classifyRoute,
		}

		var result models.Command
		if remoteAddr != "" {
			client, closeConn, err := dialRemote()
			if err != nil {
				return err
			}
			defer closeConn()
			res, err := client.Classify(cmd.Context(), req)
			if err != nil {
				return err
			}
			result = *res
		} else {
			if err := schema.New().Validate(req); err != nil {
				return err
			}
			cfg := globalConfig.Voice
			interp := command.NewInterpreter(wakeword.New(cfg.AssistantName, cfg.WakePhrases...), nil)
			result = interp.ProcessInContext(req.Text, req.CommandMode, command.Context{Route: req.Route})
		}

		if formatOutput == "json" {
			return printJSON(result)
		}
		printCommand(result)
		return nil
	},
}

func printCommand(c models.Command) {
	fmt.Printf("type:    %s\n", c.Type)
	if c.Action != "" {
		fmt.Printf("action:  %s\n", c.Action)
	}
	if c.Route != "" {
		fmt.Printf("route:   %s\n", c.Route)
	}
	if c.Message != "" {
		fmt.Printf("message: %s\n", c.Message)
	}
	if c.Error != "" {
		fmt.Printf("error:   %s\n", c.Error)
	}
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyCommandMode, "command-mode", false, "treat the text as spoken inside command mode")
	classifyCmd.Flags().StringVar(&classifyRoute, "route", "", "current page route, e.g. /products/42")
	rootCmd.AddCommand(classifyCmd)
}
