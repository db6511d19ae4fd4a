package trace

import (
	"context"
	"log/slog"
	"time"

	"msgtracetool/internal/common/logger"
)

// Options configures a pipeline run.
type Options struct {
	Start         time.Time
	End           time.Time
	TimeoutAfter  time.Duration // pagination bound, default DefaultTimeoutAfter
	SenderAddress string
	TopN          int // default DefaultTopSenders
	BucketMode    BucketMode
	Location      *time.Location // default UTC
	Progress      ProgressFunc
	Logger        *slog.Logger
	Now           func() time.Time
}

// Run executes the whole pipeline once: split the range into windows,
// fetch every window, aggregate, and build the report.
//
// It returns ErrRetentionExceeded (wrapped) without querying anything when
// Start is older than the retention period.
func Run(ctx context.Context, service QueryService, opts Options) (*Report, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	startedAt := now()

	if err := CheckRetention(opts.Start, startedAt); err != nil {
		return nil, err
	}

	windows, err := SplitWindows(opts.Start, opts.End)
	if err != nil {
		return nil, err
	}
	logger.LogInfo(opts.Logger, "Fetching message trace",
		"start", opts.Start.Format(time.RFC3339),
		"end", opts.End.Format(time.RFC3339),
		"windows", len(windows),
		"sender", opts.SenderAddress)

	fetcher := NewFetcher(service, FetcherOptions{
		SenderAddress: opts.SenderAddress,
		TimeoutAfter:  opts.TimeoutAfter,
		StartedAt:     startedAt,
		Now:           now,
		Progress:      opts.Progress,
		Logger:        opts.Logger,
	})
	rows, err := fetcher.Fetch(ctx, windows)
	if err != nil {
		return nil, err
	}

	sorted := SortRows(rows)
	agg := NewAggregator(opts.BucketMode, opts.Location)
	buckets := agg.Hourly(sorted)
	events := agg.Groups(sorted)

	logger.LogInfo(opts.Logger, "Aggregated message trace",
		"rows", len(rows),
		"buckets", len(buckets),
		"groupEvents", len(events),
		"bucketMode", opts.BucketMode.String())

	return BuildReport(buckets, events, opts.TopN), nil
}
