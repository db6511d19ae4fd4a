package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"msgtracetool/internal/trace"
)

var (
	primary = lipgloss.Color("205")
	subtle  = lipgloss.Color("240")
	success = lipgloss.Color("42")
	failure = lipgloss.Color("196")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	mutedStyle  = lipgloss.NewStyle().Foreground(subtle)
)

const (
	chartHeight = 10
	chartWidth  = 72
)

// renderReport writes the sections selected by action to w.
func renderReport(w io.Writer, r *trace.Report, action string, config *Config) {
	loc := config.Location
	if loc == nil {
		loc = time.UTC
	}

	fmt.Fprintln(w, titleStyle.Render("Message Trace Report"))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s to %s (%s)",
		config.Start.In(loc).Format("2006-01-02 15:04"),
		config.End.In(loc).Format("2006-01-02 15:04"),
		loc.String())))

	if action == ActionReport || action == ActionTopSenders {
		fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Top %d Senders", config.Top)))
		fmt.Fprintln(w, renderTopSenders(r.TopSenders))
	}
	if action == ActionReport || action == ActionHourly {
		fmt.Fprintln(w, sectionStyle.Render("Recipients per Hour"))
		fmt.Fprintln(w, renderHourlyChart(r.HourlyReport))
		fmt.Fprintln(w, renderHourly(r.HourlyReport))
	}
	if action == ActionReport || action == ActionGroups {
		fmt.Fprintln(w, sectionStyle.Render("Distribution Group Expansions"))
		fmt.Fprintln(w, renderGroups(r.GroupReport, loc))
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(subtle)).
		Headers(headers...)
}

func renderTopSenders(totals []trace.SenderTotal) string {
	if len(totals) == 0 {
		return mutedStyle.Render("No messages found")
	}

	rows := make([][]string, len(totals))
	for i, t := range totals {
		rows[i] = []string{strconv.Itoa(i + 1), t.SenderAddress, humanize.Comma(int64(t.RecipientCount))}
	}

	return newTable("#", "Sender", "Recipients").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 || col == 2 {
				return numberStyle
			}
			return cellStyle
		}).
		Render()
}

func renderHourly(buckets []trace.HourlyBucket) string {
	if len(buckets) == 0 {
		return mutedStyle.Render("No delivered or failed messages")
	}

	rows := make([][]string, len(buckets))
	for i, b := range buckets {
		rows[i] = []string{b.Date, fmt.Sprintf("%02d:00", b.Hour), b.SenderAddress, humanize.Comma(int64(b.RecipientCount)), string(b.Status)}
	}

	return newTable("Date", "Hour", "Sender", "Recipients", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch col {
			case 3:
				return numberStyle
			case 4:
				return statusStyle(trace.Status(rows[row][4]))
			}
			return cellStyle
		}).
		Render()
}

func renderGroups(events []trace.GroupEvent, loc *time.Location) string {
	if len(events) == 0 {
		return mutedStyle.Render("No group expansions")
	}

	rows := make([][]string, len(events))
	for i, e := range events {
		group := e.Recipient
		if e.GroupName != "" {
			group = fmt.Sprintf("%s (%s)", e.GroupName, e.Recipient)
		}
		rows[i] = []string{e.Date.In(loc).Format("2006-01-02 15:04:05"), e.SenderAddress, group, e.MessageTraceID}
	}

	summary := mutedStyle.Render(fmt.Sprintf("%s expansions to %s groups",
		humanize.Comma(int64(len(events))), humanize.Comma(int64(distinctGroups(events)))))

	t := newTable("Received", "Sender", "Group", "Message Trace ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render() + "\n" + summary
}

func statusStyle(s trace.Status) lipgloss.Style {
	switch s {
	case trace.StatusDelivered:
		return cellStyle.Foreground(success)
	case trace.StatusFailed:
		return cellStyle.Foreground(failure)
	}
	return cellStyle
}

// hourlySeries sums recipient counts per hour of day across all buckets.
func hourlySeries(buckets []trace.HourlyBucket) []float64 {
	series := make([]float64, 24)
	for _, b := range buckets {
		if b.Hour >= 0 && b.Hour < 24 {
			series[b.Hour] += float64(b.RecipientCount)
		}
	}
	return series
}

func renderHourlyChart(buckets []trace.HourlyBucket) string {
	if len(buckets) == 0 {
		return mutedStyle.Render("No data available")
	}

	return asciigraph.Plot(hourlySeries(buckets),
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption("recipients by hour of day (00-23)"),
	)
}

func distinctGroups(events []trace.GroupEvent) int {
	seen := make(map[string]struct{})
	for _, e := range events {
		seen[strings.ToLower(e.Recipient)] = struct{}{}
	}
	return len(seen)
}

// reportView selects the parts of r that action prints.
func reportView(r *trace.Report, action string) any {
	switch action {
	case ActionTopSenders:
		return struct {
			TopSenders []trace.SenderTotal `json:"TopSenders"`
		}{r.TopSenders}
	case ActionHourly:
		return struct {
			HourlyReport []trace.HourlyBucket `json:"HourlyReport"`
		}{r.HourlyReport}
	case ActionGroups:
		return struct {
			GroupReport []trace.GroupEvent `json:"GroupReport"`
		}{r.GroupReport}
	}
	return r
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
