package trace

import (
	"sort"
	"strings"
	"time"
)

// BucketMode selects how the hourly scan decides that a row continues the
// previous bucket.
type BucketMode int

const (
	// BucketBySenderHour continues a bucket when sender and hour-of-day
	// match, ignoring the calendar date. Rows for one sender in the same
	// hour on consecutive days merge into one bucket when they are adjacent
	// after sorting.
	BucketBySenderHour BucketMode = iota

	// BucketBySenderDateHour also requires the calendar date to match.
	BucketBySenderDateHour
)

func (m BucketMode) String() string {
	switch m {
	case BucketBySenderDateHour:
		return "sender-date-hour"
	default:
		return "sender-hour"
	}
}

// SortRows returns a copy of rows ordered by sender address
// (case-insensitive) and then by received time. Rows that compare equal
// keep their input order.
func SortRows(rows []Row) []Row {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)

	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := strings.ToLower(sorted[i].SenderAddress), strings.ToLower(sorted[j].SenderAddress)
		if si != sj {
			return si < sj
		}
		return sorted[i].Received.Before(sorted[j].Received)
	})
	return sorted
}

// Aggregator scans sorted rows into hourly buckets and group events.
type Aggregator struct {
	mode     BucketMode
	location *time.Location
}

// NewAggregator creates an Aggregator. Hours and dates are taken in loc;
// a nil loc means UTC.
func NewAggregator(mode BucketMode, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{mode: mode, location: loc}
}

// Hourly counts Delivered and Failed rows per sender and hour. rows must
// already be sorted with SortRows; the scan only compares each row with
// the most recently appended bucket.
func (a *Aggregator) Hourly(rows []Row) []HourlyBucket {
	var buckets []HourlyBucket

	for _, row := range rows {
		if row.Status != StatusDelivered && row.Status != StatusFailed {
			continue
		}

		received := row.Received.In(a.location)
		day := time.Date(received.Year(), received.Month(), received.Day(), 0, 0, 0, 0, a.location)
		hour := received.Hour()

		if n := len(buckets); n > 0 && a.continues(buckets[n-1], row.SenderAddress, day, hour) {
			buckets[n-1].RecipientCount++
			buckets[n-1].Status = row.Status
			continue
		}

		buckets = append(buckets, HourlyBucket{
			Date:           day.Format(DateLayout),
			Hour:           hour,
			SenderAddress:  row.SenderAddress,
			RecipientCount: 1,
			Status:         row.Status,
			day:            day,
		})
	}

	return buckets
}

func (a *Aggregator) continues(last HourlyBucket, sender string, day time.Time, hour int) bool {
	if !strings.EqualFold(last.SenderAddress, sender) || last.Hour != hour {
		return false
	}
	if a.mode == BucketBySenderDateHour {
		return last.day.Equal(day)
	}
	return true
}

// Groups projects every Expanded row into a GroupEvent, one per row.
func (a *Aggregator) Groups(rows []Row) []GroupEvent {
	var events []GroupEvent

	for _, row := range rows {
		if row.Status != StatusExpanded {
			continue
		}
		events = append(events, GroupEvent{
			Date:           row.Received.In(a.location),
			SenderAddress:  row.SenderAddress,
			Recipient:      row.RecipientAddress,
			Status:         row.Status,
			MessageTraceID: row.MessageTraceID,
		})
	}

	return events
}
