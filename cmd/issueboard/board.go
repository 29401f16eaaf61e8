package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"issueboard/internal/config"
	"issueboard/internal/debug"
	"issueboard/internal/telemetry"
	"issueboard/internal/ui"
)

var outputFormatFlag string

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive board (default)",
	Args:  cobra.NoArgs,
	RunE:  runBoard,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, boardCmd} {
		cmd.Flags().StringVar(&outputFormatFlag, "output-format", "rich", "Detail panel markdown style (rich, light, plain)")
	}
}

type programRunner interface {
	Run() (tea.Model, error)
}

type programFactory func(*ui.App) programRunner

func runBoard(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := telemetry.Init(ctx, config.GetBool(config.KeyTelemetryEnabled), "issueboard", Version); err != nil {
		return err
	}
	defer telemetry.Shutdown(context.WithoutCancel(ctx))

	client, closeRemote, err := openRemote(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRemote(); err != nil {
			debug.Logf("close remote: %v", err)
		}
	}()

	notifier := ui.NewNotifier()
	defer notifier.Close()
	c, err := buildCore(ctx, client, hooks{
		committed:  notifier.Committed,
		rolledBack: notifier.RolledBack,
		superseded: notifier.Superseded,
		pollFailed: notifier.PollFailed,
	})
	if err != nil {
		return err
	}
	defer c.stop()

	c.initialLoad(ctx, notifier.PollFailed)
	c.poller.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	if c.writer != nil {
		g.Go(func() error { return ignoreCanceled(c.writer.Run(gctx)) })
	}
	if c.recent.Path() != "" {
		g.Go(func() error {
			if err := c.recent.Watch(gctx); err != nil {
				// The sidebar still works without cross-process updates.
				debug.Logf("recent watch stopped: %v", err)
			}
			return nil
		})
	}

	appCfg := ui.Config{
		Store:            c.board,
		Mutator:          c.mutator,
		Recent:           c.recent,
		Poller:           c.poller,
		Notifier:         notifier,
		Refresh:          c.refresher.Cycle,
		SavePollInterval: config.SavePollInterval,
		Admin:            config.IsAdmin(),
		OutputFormat:     outputFormatFlag,
		Version:          Version,
	}
	runErr := runProgram(appCfg, ui.NewApp, func(app *ui.App) programRunner {
		return tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	})

	cancel()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func runProgram(cfg ui.Config, builder func(ui.Config) (*ui.App, error), factory programFactory) error {
	app, err := builder(cfg)
	if err != nil {
		return fmt.Errorf("initialize UI: %w", err)
	}
	defer app.Close()
	if factory == nil {
		return fmt.Errorf("program factory is nil")
	}
	prog := factory(app)
	if prog == nil {
		return fmt.Errorf("program is nil")
	}
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
