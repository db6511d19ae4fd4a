package trace

import (
	"errors"
	"fmt"
	"time"
)

// RetentionPeriod is how far back Exchange Online keeps message-trace data
// for the trace query.
const RetentionPeriod = 10 * 24 * time.Hour

// WindowSize is the length of one query window.
const WindowSize = time.Hour

var (
	// ErrRetentionExceeded is returned when the start date is older than the
	// trace retention period. The run halts without a result.
	ErrRetentionExceeded = errors.New("start date is older than the message trace retention period")

	// ErrInvalidWindow is returned when the end date precedes the start date.
	ErrInvalidWindow = errors.New("end date is before start date")
)

// Window is one [Start, End) query interval.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) String() string {
	return fmt.Sprintf("%s - %s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// SplitWindows divides [start, end) into consecutive one-hour windows
// beginning at start. The cursor always advances by a full hour, so the
// final window may extend past end when the range is not a whole number of
// hours.
func SplitWindows(start, end time.Time) ([]Window, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: start %s, end %s", ErrInvalidWindow,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	var windows []Window
	for cursor := start; cursor.Before(end); cursor = cursor.Add(WindowSize) {
		windows = append(windows, Window{Start: cursor, End: cursor.Add(WindowSize)})
	}
	return windows, nil
}

// CheckRetention verifies that start lies within the retention period
// relative to now.
func CheckRetention(start, now time.Time) error {
	oldest := now.Add(-RetentionPeriod)
	if start.Before(oldest) {
		return fmt.Errorf("%w: %s is before %s", ErrRetentionExceeded,
			start.Format(time.RFC3339), oldest.Format(time.RFC3339))
	}
	return nil
}
