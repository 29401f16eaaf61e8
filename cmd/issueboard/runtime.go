package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"issueboard/internal/config"
	"issueboard/internal/debug"
	"issueboard/internal/domain"
	"issueboard/internal/optimistic"
	"issueboard/internal/poll"
	"issueboard/internal/recent"
	"issueboard/internal/remote"
	"issueboard/internal/store"
	"issueboard/internal/synth"
	"issueboard/internal/telemetry"
)

// hooks receives background events from the commit timer and poll loop.
// The board routes them into the UI; watch mode prints them.
type hooks struct {
	committed  func(optimistic.Mutation, domain.Issue)
	rolledBack func(optimistic.Mutation, error)
	superseded func(optimistic.Mutation)
	pollFailed func(error)
}

// core is the assembled board: the local store and everything that feeds
// or drains it.
type core struct {
	client    remote.Client
	board     *store.Store
	refresher *store.Refresher
	mutator   *optimistic.Controller
	poller    *poll.Scheduler
	writer    *synth.Writer
	recent    *recent.Store

	closeRemote func() error
}

// openRemote builds the configured remote backend.
func openRemote(ctx context.Context) (remote.Client, func() error, error) {
	mode := strings.ToLower(strings.TrimSpace(config.GetString(config.KeyRemoteMode)))
	switch mode {
	case "", config.RemoteModeMock:
		api := remote.NewMockAPI(remote.DefaultSeed(time.Now()),
			remote.WithLatency(config.GetDuration(config.KeyMockLatency)),
			remote.WithFailureRate(config.GetFloat64(config.KeyMockFailureRate)),
		)
		return api, func() error { return nil }, nil
	case config.RemoteModeSQLite:
		client, err := remote.OpenSQLite(ctx, config.GetString(config.KeyDatabasePath))
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown remote mode %q (want %s or %s)", mode, config.RemoteModeMock, config.RemoteModeSQLite)
	}
}

// buildCore wires the store, optimistic controller, poll scheduler, synthetic
// writer and recency store against client. Nothing is started yet.
func buildCore(ctx context.Context, client remote.Client, h hooks) (*core, error) {
	client = telemetry.WrapClient(client)

	board := store.New(store.WithRankBias(config.GetInt(config.KeyRankBias)))
	refresher := store.NewRefresher(board, client)

	opts := []optimistic.Option{optimistic.WithContext(ctx)}
	if d := config.GetDuration(config.KeyCommitDelay); d > 0 {
		opts = append(opts, optimistic.WithCommitDelay(d))
	}
	if h.committed != nil {
		opts = append(opts, optimistic.OnCommitted(h.committed))
	}
	if h.rolledBack != nil {
		opts = append(opts, optimistic.OnRolledBack(h.rolledBack))
	}
	if h.superseded != nil {
		opts = append(opts, optimistic.OnSuperseded(h.superseded))
	}
	mutator := optimistic.New(board, client, opts...)

	pollOpts := []poll.Option{poll.WithIntervalSeconds(config.GetInt(config.KeyPollIntervalSeconds))}
	if h.pollFailed != nil {
		pollOpts = append(pollOpts, poll.OnError(h.pollFailed))
	}
	poller := poll.New(refresher.Cycle, pollOpts...)

	var writer *synth.Writer
	if config.GetBool(config.KeySynthEnabled) {
		writer = synth.New(board,
			synth.WithInterval(config.GetDuration(config.KeySynthInterval)),
			synth.WithChance(config.GetFloat64(config.KeySynthChance)),
		)
	}

	recents, err := recent.Open(config.GetString(config.KeyRecentPath))
	if err != nil {
		return nil, fmt.Errorf("open recent issues: %w", err)
	}

	return &core{
		client:    client,
		board:     board,
		refresher: refresher,
		mutator:   mutator,
		poller:    poller,
		writer:    writer,
		recent:    recents,
	}, nil
}

// initialLoad performs the first fetch. A failure is logged and reported to
// onError; the board starts empty and the poll loop keeps retrying.
func (c *core) initialLoad(ctx context.Context, onError func(error)) {
	if _, err := c.refresher.Refresh(ctx); err != nil {
		debug.Logf("initial load failed: %v", err)
		if onError != nil {
			onError(err)
		}
	}
}

func (c *core) stop() {
	c.poller.Stop()
	c.mutator.Stop()
}
