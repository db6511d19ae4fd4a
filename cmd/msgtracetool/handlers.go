package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"msgtracetool/internal/common/logger"
	"msgtracetool/internal/trace"
)

// graphExtras carries the optional Microsoft Graph steps. Nil funcs are
// skipped.
type graphExtras struct {
	lookupGroup groupLookup
	sendReport  reportSender
}

// runInfo identifies one invocation in logs and the mailed report.
type runInfo struct {
	id      string
	version string
	now     func() time.Time
}

// Action log columns. Every row is one line of the printed report.
var actionLogColumns = []string{"Action", "Section", "Date", "Hour", "Sender", "Recipient", "RecipientCount", "Status", "MessageTraceId", "GroupName"}

// executeAction runs the trace pipeline and prints the sections the
// configured action selects.
func executeAction(ctx context.Context, service trace.QueryService, config *Config, actionLog logger.Logger, extras graphExtras, info runInfo, out io.Writer, slogger *slog.Logger) error {
	bucketMode := trace.BucketBySenderHour
	if config.StrictBuckets {
		bucketMode = trace.BucketBySenderDateHour
	}

	report, err := trace.Run(ctx, service, trace.Options{
		Start:         config.Start,
		End:           config.End,
		TimeoutAfter:  time.Duration(config.TimeoutAfter) * time.Minute,
		SenderAddress: config.Sender,
		TopN:          config.Top,
		BucketMode:    bucketMode,
		Location:      config.Location,
		Progress:      progressLogger(slogger),
		Logger:        slogger,
		Now:           info.now,
	})
	if err != nil {
		if errors.Is(err, trace.ErrRetentionExceeded) {
			logger.LogWarn(slogger, "Start date is outside the message trace retention period, nothing to report",
				"start", config.Start.Format(time.RFC3339),
				"retentionDays", int(trace.RetentionPeriod.Hours()/24))
			fmt.Fprintf(out, "Warning: %v (%d days). No report produced.\n", err, int(trace.RetentionPeriod.Hours()/24))
			return nil
		}
		return enrichTraceError(err, slogger)
	}

	if extras.lookupGroup != nil && len(report.GroupReport) > 0 {
		resolveGroupNames(ctx, report.GroupReport, extras.lookupGroup, slogger)
	}

	switch config.OutputFormat {
	case "json":
		if err := printJSON(out, reportView(report, config.Action)); err != nil {
			return fmt.Errorf("failed to write JSON output: %w", err)
		}
	default:
		renderReport(out, report, config.Action, config)
	}

	if actionLog != nil {
		if err := writeReportLog(actionLog, report, config.Action, config.Location); err != nil {
			logger.LogWarn(slogger, "Could not write action log", "error", err)
		}
	}

	if extras.sendReport != nil && len(config.MailTo) > 0 {
		// The printed report is the product; a mail failure is only logged.
		_ = mailReport(ctx, extras.sendReport, report, config, info.id, info.version, slogger)
	}

	return nil
}

func progressLogger(slogger *slog.Logger) trace.ProgressFunc {
	return func(p trace.Progress) {
		logger.LogDebug(slogger, "Fetching window",
			"window", p.Window.String(),
			"completed", p.Completed,
			"total", p.Total,
			"percent", fmt.Sprintf("%.0f", p.Percent()))
	}
}

// writeReportLog appends the sections printed for action to the action log.
func writeReportLog(l logger.Logger, r *trace.Report, action string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	shouldWrite, err := l.ShouldWriteHeader()
	if err != nil {
		return err
	}
	if shouldWrite {
		if err := l.WriteHeader(actionLogColumns); err != nil {
			return err
		}
	}

	if action == ActionReport || action == ActionTopSenders {
		for _, s := range r.TopSenders {
			if err := l.WriteRow([]string{action, "TopSenders", "", "", s.SenderAddress, "", strconv.Itoa(s.RecipientCount), "", "", ""}); err != nil {
				return err
			}
		}
	}
	if action == ActionReport || action == ActionHourly {
		for _, b := range r.HourlyReport {
			if err := l.WriteRow([]string{action, "HourlyReport", b.Date, strconv.Itoa(b.Hour), b.SenderAddress, "", strconv.Itoa(b.RecipientCount), string(b.Status), "", ""}); err != nil {
				return err
			}
		}
	}
	if action == ActionReport || action == ActionGroups {
		for _, e := range r.GroupReport {
			if err := l.WriteRow([]string{action, "GroupReport", e.Date.In(loc).Format(time.RFC3339), "", e.SenderAddress, e.Recipient, "", string(e.Status), e.MessageTraceID, e.GroupName}); err != nil {
				return err
			}
		}
	}
	return nil
}
