// Package main provides the issueboard CLI: an interactive Kanban board over a
// remote issue store, plus seeding and headless watch modes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"issueboard/internal/config"
	"issueboard/internal/debug"
)

// Global flags
var (
	debugFlag    bool
	remoteFlag   string
	dbPathFlag   string
	pollFlag     int
	rankBiasFlag int
	roleFlag     string
	noSynthFlag  bool
	telemetryOn  bool
)

// flagKeys maps persistent flags onto configuration keys. Only flags the
// user actually set are applied, so config files and env keep precedence
// over flag defaults.
var flagKeys = map[string]string{
	"remote":                config.KeyRemoteMode,
	"db":                    config.KeyDatabasePath,
	"poll-interval-seconds": config.KeyPollIntervalSeconds,
	"rank-bias":             config.KeyRankBias,
	"role":                  config.KeyUserRole,
	"telemetry":             config.KeyTelemetryEnabled,
}

var rootCmd = &cobra.Command{
	Use:   "issueboard",
	Short: "Kanban board for issues with optimistic edits and background sync",
	Long: `issueboard shows issues in Backlog, In Progress and Done columns, ranked by
severity and age. Edits apply immediately and are confirmed with the remote
after a short undo window; the board re-syncs on a fixed poll interval.

Examples:
  issueboard                          # Open the board against the mock remote
  issueboard --remote sqlite --db x.db
  issueboard seed --db x.db           # Create and populate a SQLite remote
  issueboard watch                    # Headless sync loop, logs reconcile results
  issueboard config set poll-interval 30`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runBoard,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&debugFlag, "debug", false, "Write debug logs to ~/.issueboard/debug.log")
	pf.StringVar(&remoteFlag, "remote", config.RemoteModeMock, "Remote backend (mock, sqlite)")
	pf.StringVar(&dbPathFlag, "db", "", "Path to the SQLite database used by --remote sqlite")
	pf.IntVar(&pollFlag, "poll-interval-seconds", config.DefaultPollIntervalSeconds, "Seconds between syncs (0 disables polling)")
	pf.IntVar(&rankBiasFlag, "rank-bias", 1, "Bias added to every issue score")
	pf.StringVar(&roleFlag, "role", config.RoleAdmin, "User role (admin, viewer)")
	pf.BoolVar(&telemetryOn, "telemetry", false, "Export OpenTelemetry metrics and traces")
	pf.BoolVar(&noSynthFlag, "no-synth", false, "Disable the synthetic issue writer")

	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	err := rootCmd.Execute()
	debug.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := debug.Init(debugFlag); err != nil {
		return fmt.Errorf("initialize debug log: %w", err)
	}
	if err := config.Initialize(); err != nil {
		return err
	}
	overrides := collectOverrides(cmd.Flags())
	if noSynthFlag {
		overrides[config.KeySynthEnabled] = false
	}
	return config.ApplyOverrides(overrides)
}

// collectOverrides returns config overrides for every mapped flag that was
// explicitly set on the command line.
func collectOverrides(flags *pflag.FlagSet) map[string]any {
	overrides := map[string]any{}
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		switch f.Value.Type() {
		case "int":
			v, _ := flags.GetInt(f.Name)
			overrides[key] = v
		case "bool":
			v, _ := flags.GetBool(f.Name)
			overrides[key] = v
		default:
			overrides[key] = f.Value.String()
		}
	})
	return overrides
}
