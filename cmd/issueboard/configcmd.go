package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"issueboard/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change persistent settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, key := range config.Keys() {
			fmt.Fprintf(tw, "%s\t%s\n", key, config.GetString(key))
		}
		return tw.Flush()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set poll-interval <seconds>",
	Short: "Persist a setting",
	Long: `Persist a setting to the project config (.issueboard/config.yaml) when one
exists, otherwise to ~/.issueboard/config.yaml. Only poll-interval is supported;
it accepts whole seconds between 1 and 100.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "poll-interval", config.KeyPollIntervalSeconds:
		seconds, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("poll interval %q is not a whole number of seconds", args[1])
		}
		if err := config.SavePollInterval(seconds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Poll interval set to %ds\n", seconds)
		return nil
	default:
		return fmt.Errorf("unknown setting %q", args[0])
	}
}
