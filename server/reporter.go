package server

import (
	"context"
	"fmt"
	"io"
	"time"

	"bankd/bank"
	"bankd/internal/metrics"
	"bankd/util"
)

// reportDivider frames each account block of the printed table.
const reportDivider = "-----------------------------------------------------"

// Reporter periodically snapshots the store and prints the full
// account table, independent of client activity.  Snapshot holds locks
// only long enough to copy, so a tick cannot starve workers for longer
// than the copy of a bounded number of accounts.
type Reporter struct {
	store    *bank.Store
	interval time.Duration
	out      io.Writer
	logger   *util.Logger
	metrics  *metrics.Collector
}

// NewReporter returns a reporter writing to out every interval.
func NewReporter(store *bank.Store, interval time.Duration, out io.Writer, logger *util.Logger, collector *metrics.Collector) *Reporter {
	return &Reporter{
		store:    store,
		interval: interval,
		out:      out,
		logger:   logger,
		metrics:  collector,
	}
}

// Run prints one report immediately and then once per interval until
// ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Print()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Print()
		}
	}
}

// Print writes the current account table.
func (r *Reporter) Print() {
	rows := r.store.Snapshot()
	if len(rows) == 0 {
		fmt.Fprintln(r.out, "There are no open accounts at the moment.")
	}
	for _, row := range rows {
		status := "NOT IN SERVICE"
		if row.InSession {
			status = "IN SERVICE"
		}
		fmt.Fprintln(r.out, reportDivider)
		fmt.Fprintf(r.out, "Account name    -- %s\n", row.Name)
		fmt.Fprintf(r.out, "Current balance -- %s\n", row.Balance.StringFixed(2))
		fmt.Fprintf(r.out, "Session status  -- %s\n", status)
		fmt.Fprintln(r.out, reportDivider)
	}

	r.logger.Debug("metrics: %s", r.metrics.JSON())
}
