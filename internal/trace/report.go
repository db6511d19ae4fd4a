package trace

import (
	"sort"
	"strings"
)

// DefaultTopSenders is the number of senders kept in Report.TopSenders.
const DefaultTopSenders = 10

// RollUpSenders sums RecipientCount per sender. buckets must be in the
// order produced by Aggregator.Hourly, where all buckets of a sender are
// adjacent. An empty input yields an empty result.
func RollUpSenders(buckets []HourlyBucket) []SenderTotal {
	totals := make([]SenderTotal, 0)

	for _, b := range buckets {
		if n := len(totals); n > 0 && strings.EqualFold(totals[n-1].SenderAddress, b.SenderAddress) {
			totals[n-1].RecipientCount += b.RecipientCount
			continue
		}
		totals = append(totals, SenderTotal{
			SenderAddress:  b.SenderAddress,
			RecipientCount: b.RecipientCount,
		})
	}

	return totals
}

// TopSenders returns the n senders with the highest RecipientCount,
// highest first. Senders with equal counts keep their input order.
func TopSenders(totals []SenderTotal, n int) []SenderTotal {
	ranked := make([]SenderTotal, len(totals))
	copy(ranked, totals)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RecipientCount > ranked[j].RecipientCount
	})

	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// SortHourly orders buckets chronologically by calendar date and then
// hour. Buckets for the same date and hour keep their sender order.
func SortHourly(buckets []HourlyBucket) []HourlyBucket {
	sorted := make([]HourlyBucket, len(buckets))
	copy(sorted, buckets)

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].day.Equal(sorted[j].day) {
			return sorted[i].day.Before(sorted[j].day)
		}
		return sorted[i].Hour < sorted[j].Hour
	})
	return sorted
}

// SortGroups orders group events by date.
func SortGroups(events []GroupEvent) []GroupEvent {
	sorted := make([]GroupEvent, len(events))
	copy(sorted, events)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// BuildReport assembles the final report from the aggregation results.
// topN <= 0 selects DefaultTopSenders.
func BuildReport(buckets []HourlyBucket, events []GroupEvent, topN int) *Report {
	if topN <= 0 {
		topN = DefaultTopSenders
	}

	return &Report{
		TopSenders:   TopSenders(RollUpSenders(buckets), topN),
		HourlyReport: SortHourly(buckets),
		GroupReport:  SortGroups(events),
	}
}
