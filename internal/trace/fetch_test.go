package trace

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeQueryService records every query and answers through QueryFn.
type fakeQueryService struct {
	QueryFn func(ctx context.Context, q Query) ([]Row, error)
	queries []Query
}

func (f *fakeQueryService) QueryTrace(ctx context.Context, q Query) ([]Row, error) {
	f.queries = append(f.queries, q)
	if f.QueryFn != nil {
		return f.QueryFn(ctx, q)
	}
	return nil, nil
}

func makeRows(n int, sender string, received time.Time) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			SenderAddress:    sender,
			RecipientAddress: "rcpt@example.com",
			Received:         received,
			Status:           StatusDelivered,
		}
	}
	return rows
}

func oneWindow(start time.Time) []Window {
	return []Window{{Start: start, End: start.Add(time.Hour)}}
}

func TestFetcher_FullPageThenEmptyPage(t *testing.T) {
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	svc := &fakeQueryService{
		QueryFn: func(ctx context.Context, q Query) ([]Row, error) {
			if q.Page == 1 {
				return makeRows(PageSize, "a@example.com", q.Start), nil
			}
			return nil, nil
		},
	}

	f := NewFetcher(svc, FetcherOptions{})
	rows, err := f.Fetch(context.Background(), oneWindow(start))
	if err != nil {
		t.Fatalf("Fetch() unexpected error = %v", err)
	}

	if len(svc.queries) != 2 {
		t.Fatalf("expected 2 page requests, got %d", len(svc.queries))
	}
	if len(rows) != PageSize {
		t.Errorf("expected %d rows, got %d", PageSize, len(rows))
	}
	for i, q := range svc.queries {
		if q.Page != i+1 {
			t.Errorf("request %d asked for page %d, want %d", i, q.Page, i+1)
		}
		if q.PageSize != PageSize {
			t.Errorf("request %d page size = %d, want %d", i, q.PageSize, PageSize)
		}
		if !q.Start.Equal(start) || !q.End.Equal(start.Add(time.Hour)) {
			t.Errorf("request %d window = %v-%v, want %v-%v", i, q.Start, q.End, start, start.Add(time.Hour))
		}
	}
}

func TestFetcher_ShortPageEndsWindow(t *testing.T) {
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	svc := &fakeQueryService{
		QueryFn: func(ctx context.Context, q Query) ([]Row, error) {
			return makeRows(3, "a@example.com", q.Start), nil
		},
	}
	windows, _ := SplitWindows(start, start.Add(4*time.Hour))

	f := NewFetcher(svc, FetcherOptions{})
	rows, err := f.Fetch(context.Background(), windows)
	if err != nil {
		t.Fatalf("Fetch() unexpected error = %v", err)
	}

	if len(svc.queries) != 4 {
		t.Errorf("expected one request per window (4), got %d", len(svc.queries))
	}
	if len(rows) != 12 {
		t.Errorf("expected 12 rows, got %d", len(rows))
	}
}

func TestFetcher_SenderFilterPassedThrough(t *testing.T) {
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	svc := &fakeQueryService{}

	f := NewFetcher(svc, FetcherOptions{SenderAddress: "boss@example.com"})
	if _, err := f.Fetch(context.Background(), oneWindow(start)); err != nil {
		t.Fatalf("Fetch() unexpected error = %v", err)
	}

	if len(svc.queries) != 1 {
		t.Fatalf("expected 1 request, got %d", len(svc.queries))
	}
	if svc.queries[0].SenderAddress != "boss@example.com" {
		t.Errorf("SenderAddress = %q, want %q", svc.queries[0].SenderAddress, "boss@example.com")
	}
}

func TestFetcher_DeadlineStopsPagination(t *testing.T) {
	startedAt := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	clock := startedAt.Add(31 * time.Minute) // already past the 30 minute deadline

	svc := &fakeQueryService{
		QueryFn: func(ctx context.Context, q Query) ([]Row, error) {
			return makeRows(PageSize, "a@example.com", q.Start), nil
		},
	}
	windowStart := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	windows, _ := SplitWindows(windowStart, windowStart.Add(3*time.Hour))

	f := NewFetcher(svc, FetcherOptions{
		StartedAt: startedAt,
		Now:       func() time.Time { return clock },
	})
	rows, err := f.Fetch(context.Background(), windows)
	if err != nil {
		t.Fatalf("Fetch() unexpected error = %v", err)
	}

	// The deadline only bounds pagination: every window still gets its
	// first page.
	if len(svc.queries) != 3 {
		t.Errorf("expected 3 requests (one per window), got %d", len(svc.queries))
	}
	if len(rows) != 3*PageSize {
		t.Errorf("expected %d rows, got %d", 3*PageSize, len(rows))
	}
	if want := startedAt.Add(DefaultTimeoutAfter); !f.Deadline().Equal(want) {
		t.Errorf("Deadline() = %v, want %v", f.Deadline(), want)
	}
}

func TestFetcher_DeadlineReachedMidWindow(t *testing.T) {
	startedAt := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	clock := startedAt

	svc := &fakeQueryService{}
	svc.QueryFn = func(ctx context.Context, q Query) ([]Row, error) {
		// Each page takes four minutes of wall-clock time.
		clock = clock.Add(4 * time.Minute)
		return makeRows(PageSize, "a@example.com", q.Start), nil
	}

	f := NewFetcher(svc, FetcherOptions{
		TimeoutAfter: 10 * time.Minute,
		StartedAt:    startedAt,
		Now:          func() time.Time { return clock },
	})
	if _, err := f.Fetch(context.Background(), oneWindow(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Fetch() unexpected error = %v", err)
	}

	// Pages end at +4m, +8m and +12m; the check after the third page stops.
	if len(svc.queries) != 3 {
		t.Errorf("expected 3 requests before the deadline stopped pagination, got %d", len(svc.queries))
	}
}

func TestFetcher_QueryErrorAborts(t *testing.T) {
	queryErr := errors.New("throttled")
	svc := &fakeQueryService{
		QueryFn: func(ctx context.Context, q Query) ([]Row, error) {
			if q.Start.Hour() == 10 {
				return nil, queryErr
			}
			return makeRows(1, "a@example.com", q.Start), nil
		},
	}
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	windows, _ := SplitWindows(start, start.Add(3*time.Hour))

	f := NewFetcher(svc, FetcherOptions{})
	rows, err := f.Fetch(context.Background(), windows)
	if !errors.Is(err, queryErr) {
		t.Fatalf("Fetch() error = %v, want wrapped %v", err, queryErr)
	}
	if !strings.Contains(err.Error(), "page 1") {
		t.Errorf("error should name the failing page, got %q", err.Error())
	}
	if rows != nil {
		t.Errorf("expected no rows on error, got %d", len(rows))
	}
	if len(svc.queries) != 2 {
		t.Errorf("expected fetch to stop at the failing window (2 requests), got %d", len(svc.queries))
	}
}

func TestFetcher_Progress(t *testing.T) {
	svc := &fakeQueryService{}
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	windows, _ := SplitWindows(start, start.Add(4*time.Hour))

	var seen []Progress
	f := NewFetcher(svc, FetcherOptions{
		Progress: func(p Progress) { seen = append(seen, p) },
	})
	if _, err := f.Fetch(context.Background(), windows); err != nil {
		t.Fatalf("Fetch() unexpected error = %v", err)
	}

	if len(seen) != 5 {
		t.Fatalf("expected 5 progress callbacks (4 windows + done), got %d", len(seen))
	}
	wantPercents := []float64{0, 25, 50, 75, 100}
	for i, p := range seen {
		if p.Percent() != wantPercents[i] {
			t.Errorf("progress %d = %.0f%%, want %.0f%%", i, p.Percent(), wantPercents[i])
		}
		if p.Total != 4 {
			t.Errorf("progress %d total = %d, want 4", i, p.Total)
		}
	}
}

func TestProgress_PercentNoWindows(t *testing.T) {
	p := Progress{}
	if p.Percent() != 100 {
		t.Errorf("Percent() with no windows = %v, want 100", p.Percent())
	}
}
