package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"issueboard/internal/config"
	"issueboard/internal/domain"
	"issueboard/internal/remote"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the SQLite remote and load issues into it",
	Long: `Create the SQLite database named by --db (or database.path) and insert issues.
Without --file the built-in sample issues are used. Existing ids are replaced.

Examples:
  issueboard seed --db ./board.db
  issueboard seed --db ./board.db --file fixtures.yaml`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML file of issues to load")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	now := time.Now()

	issues := remote.DefaultSeed(now)
	if seedFile != "" {
		loaded, err := remote.LoadSeedFile(seedFile, now)
		if err != nil {
			return err
		}
		issues = loaded
	}
	for _, iss := range issues {
		if err := iss.Validate(); err != nil {
			return err
		}
	}

	client, err := remote.OpenSQLite(ctx, config.GetString(config.KeyDatabasePath))
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Seed(ctx, issues); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d %s into %s\n", len(issues), plural(len(issues)), client.Path())
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "issue"
	}
	return "issues"
}

// statusCounts tallies issues per board column.
func statusCounts(issues []domain.Issue) map[domain.Status]int {
	counts := make(map[domain.Status]int, len(domain.Statuses))
	for _, iss := range issues {
		counts[iss.Status]++
	}
	return counts
}
