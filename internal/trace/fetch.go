package trace

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"msgtracetool/internal/common/logger"
)

// PageSize is the number of rows requested per page. A page with fewer
// rows marks the end of a window.
const PageSize = 5000

// DefaultTimeoutAfter bounds pagination when no timeout is configured.
const DefaultTimeoutAfter = 30 * time.Minute

// Query is one page request against the trace query service.
type Query struct {
	Start         time.Time
	End           time.Time
	Page          int // 1-based
	PageSize      int
	SenderAddress string // optional exact-match filter
}

// QueryService returns one page of message-trace rows.
type QueryService interface {
	QueryTrace(ctx context.Context, q Query) ([]Row, error)
}

// QueryFunc adapts a plain function to QueryService.
type QueryFunc func(ctx context.Context, q Query) ([]Row, error)

// QueryTrace calls f.
func (f QueryFunc) QueryTrace(ctx context.Context, q Query) ([]Row, error) {
	return f(ctx, q)
}

// Progress describes how far the fetch loop has advanced.
type Progress struct {
	Completed int
	Total     int
	Window    Window
}

// Percent returns the share of completed windows in the range 0-100.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// ProgressFunc observes the fetch loop before each window is queried.
type ProgressFunc func(Progress)

// Fetcher pages through the trace query for a list of windows.
type Fetcher struct {
	service       QueryService
	senderAddress string
	deadline      time.Time
	now           func() time.Time
	progress      ProgressFunc
	logger        *slog.Logger
}

// FetcherOptions configures a Fetcher. Zero values select defaults.
type FetcherOptions struct {
	SenderAddress string
	TimeoutAfter  time.Duration // default DefaultTimeoutAfter
	StartedAt     time.Time     // invocation start, default now
	Now           func() time.Time
	Progress      ProgressFunc
	Logger        *slog.Logger
}

// NewFetcher creates a Fetcher. The pagination deadline is fixed at
// StartedAt + TimeoutAfter.
func NewFetcher(service QueryService, opts FetcherOptions) *Fetcher {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timeout := opts.TimeoutAfter
	if timeout <= 0 {
		timeout = DefaultTimeoutAfter
	}
	startedAt := opts.StartedAt
	if startedAt.IsZero() {
		startedAt = now()
	}

	return &Fetcher{
		service:       service,
		senderAddress: opts.SenderAddress,
		deadline:      startedAt.Add(timeout),
		now:           now,
		progress:      opts.Progress,
		logger:        opts.Logger,
	}
}

// Deadline returns the time after which no further pages are requested
// within a window.
func (f *Fetcher) Deadline() time.Time {
	return f.deadline
}

// Fetch queries every window and returns all rows in the order received.
// Pagination within a window stops at the first short page or once the
// deadline has passed; the deadline never skips a window entirely. Any
// query error aborts the fetch.
func (f *Fetcher) Fetch(ctx context.Context, windows []Window) ([]Row, error) {
	var rows []Row

	for i, w := range windows {
		if f.progress != nil {
			f.progress(Progress{Completed: i, Total: len(windows), Window: w})
		}

		windowRows, err := f.fetchWindow(ctx, w)
		rows = append(rows, windowRows...)
		if err != nil {
			return nil, err
		}
	}

	if f.progress != nil && len(windows) > 0 {
		f.progress(Progress{Completed: len(windows), Total: len(windows), Window: windows[len(windows)-1]})
	}

	logger.LogDebug(f.logger, "Trace fetch complete", "windows", len(windows), "rows", len(rows))
	return rows, nil
}

func (f *Fetcher) fetchWindow(ctx context.Context, w Window) ([]Row, error) {
	var rows []Row

	for page := 1; ; page++ {
		q := Query{
			Start:         w.Start,
			End:           w.End,
			Page:          page,
			PageSize:      PageSize,
			SenderAddress: f.senderAddress,
		}

		logger.LogDebug(f.logger, "Querying message trace", "window", w.String(), "page", page)
		pageRows, err := f.service.QueryTrace(ctx, q)
		if err != nil {
			return rows, fmt.Errorf("message trace query failed for window %s page %d: %w", w, page, err)
		}
		rows = append(rows, pageRows...)

		if len(pageRows) < PageSize {
			return rows, nil
		}
		if f.now().After(f.deadline) {
			logger.LogDebug(f.logger, "Pagination deadline reached, truncating window",
				"window", w.String(), "pages", page, "deadline", f.deadline.Format(time.RFC3339))
			return rows, nil
		}
	}
}
