package telemetry

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const boardScopeName = "issueboard/board"

type boardEvents struct {
	reconciles metric.Int64Counter
	boardSize  metric.Int64Gauge
	pending    metric.Int64Histogram
	fetchErrs  metric.Int64Counter
	commits    metric.Int64Counter
	rollbacks  metric.Int64Counter
	synthetic  metric.Int64Counter
}

var events atomic.Pointer[boardEvents]

// resetEvents rebuilds the instruments against the current global provider.
func resetEvents() {
	m := Meter(boardScopeName)
	ev := &boardEvents{}
	ev.reconciles, _ = m.Int64Counter("ib.reconcile.count",
		metric.WithDescription("Completed reconciliations"),
	)
	ev.boardSize, _ = m.Int64Gauge("ib.board.issues",
		metric.WithDescription("Issues on the board after the last reconciliation"),
	)
	ev.pending, _ = m.Int64Histogram("ib.reconcile.pending",
		metric.WithDescription("Pending-local entries folded in per reconciliation"),
	)
	ev.fetchErrs, _ = m.Int64Counter("ib.fetch.errors",
		metric.WithDescription("Failed remote fetches"),
	)
	ev.commits, _ = m.Int64Counter("ib.optimistic.commits",
		metric.WithDescription("Optimistic mutations confirmed by the remote"),
	)
	ev.rollbacks, _ = m.Int64Counter("ib.optimistic.rollbacks",
		metric.WithDescription("Optimistic mutations rolled back"),
	)
	ev.synthetic, _ = m.Int64Counter("ib.synthetic.inserts",
		metric.WithDescription("Synthetic issues queued for reconciliation"),
	)
	events.Store(ev)
}

func current() *boardEvents {
	if ev := events.Load(); ev != nil {
		return ev
	}
	resetEvents()
	return events.Load()
}

// RecordReconcile counts a reconciliation and the resulting board size.
func RecordReconcile(ctx context.Context, boardSize, pending int) {
	ev := current()
	ev.reconciles.Add(ctx, 1)
	ev.boardSize.Record(ctx, int64(boardSize))
	ev.pending.Record(ctx, int64(pending))
}

// RecordFetchError counts a failed refresh.
func RecordFetchError(ctx context.Context) {
	current().fetchErrs.Add(ctx, 1)
}

// RecordCommit counts a confirmed optimistic mutation.
func RecordCommit(ctx context.Context, field string) {
	current().commits.Add(ctx, 1, metric.WithAttributes(attribute.String("field", field)))
}

// RecordRollback counts a rolled back optimistic mutation. reason is
// "error", "undo" or "superseded".
func RecordRollback(ctx context.Context, reason string) {
	current().rollbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordSynthetic counts a synthetic insert.
func RecordSynthetic(ctx context.Context) {
	current().synthetic.Add(ctx, 1)
}
