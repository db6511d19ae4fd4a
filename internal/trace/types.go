// Package trace turns Exchange Online message-trace rows into sender and
// distribution-group reports.
//
// The pipeline runs in four stages, each in its own file:
//   - window.go:    split [start, end) into one-hour query windows
//   - fetch.go:     page through the trace query for every window
//   - aggregate.go: sort rows, build hourly buckets and group events
//   - report.go:    roll buckets up per sender and rank them
//
// Run (pipeline.go) wires the stages together. The remote query is reached
// through the QueryService interface so the pipeline can be driven by the
// Exchange adapter or by a fake in tests.
package trace

import "time"

// Status is the delivery status reported for a trace row.
type Status string

// Statuses the reports care about. Any other status is ignored.
const (
	StatusDelivered Status = "Delivered"
	StatusFailed    Status = "Failed"
	StatusExpanded  Status = "Expanded"
)

// DateLayout is the calendar date format used in hourly buckets (MM-dd-yyyy).
const DateLayout = "01-02-2006"

// Row is one message-trace record as returned by the trace query service.
type Row struct {
	SenderAddress    string    `json:"SenderAddress"`
	RecipientAddress string    `json:"RecipientAddress"`
	Received         time.Time `json:"Received"`
	Status           Status    `json:"Status"`
	MessageTraceID   string    `json:"MessageTraceId"`

	// Informational fields, never used by aggregation.
	Subject   string `json:"Subject,omitempty"`
	MessageID string `json:"MessageId,omitempty"`
	Size      int64  `json:"Size,omitempty"`
	FromIP    string `json:"FromIP,omitempty"`
	ToIP      string `json:"ToIP,omitempty"`
}

// HourlyBucket counts recipients for one sender within one hour of one day.
type HourlyBucket struct {
	Date           string `json:"Date"` // MM-dd-yyyy
	Hour           int    `json:"Hour"`
	SenderAddress  string `json:"SenderAddress"`
	RecipientCount int    `json:"RecipientCount"`
	Status         Status `json:"Status"` // status of the last contributing row

	day time.Time // midnight of Date, used for chronological sorting
}

// Day returns the calendar day of the bucket at midnight in the
// aggregation location.
func (b HourlyBucket) Day() time.Time {
	return b.day
}

// GroupEvent is a projection of one trace row whose recipient was a
// distribution group expanded to its members.
type GroupEvent struct {
	Date           time.Time `json:"Date"`
	SenderAddress  string    `json:"SenderAddress"`
	Recipient      string    `json:"Recipient"`
	Status         Status    `json:"Status"`
	MessageTraceID string    `json:"MessageTraceId"`
	GroupName      string    `json:"GroupName,omitempty"`
}

// SenderTotal is the number of recipients a sender reached over the
// whole reporting window.
type SenderTotal struct {
	SenderAddress  string `json:"SenderAddress"`
	RecipientCount int    `json:"RecipientCount"`
}

// Report is the final result of a run.
type Report struct {
	TopSenders   []SenderTotal  `json:"TopSenders"`
	HourlyReport []HourlyBucket `json:"HourlyReport"`
	GroupReport  []GroupEvent   `json:"GroupReport"`
}
