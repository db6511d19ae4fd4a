package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Logger is the action log written next to every run: one row per report
// line, timestamp prepended by the implementation.
type Logger interface {
	WriteHeader(columns []string) error
	WriteRow(row []string) error
	Close() error
	ShouldWriteHeader() (bool, error)
}

// LogFormat selects the action log file format.
type LogFormat string

const (
	LogFormatCSV  LogFormat = "csv"
	LogFormatJSON LogFormat = "json"
)

// ParseLogFormat converts a -logformat value to a LogFormat.
// An empty string selects CSV.
func ParseLogFormat(s string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return LogFormatCSV, nil
	case "json", "jsonl":
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported log format %q (must be csv or json)", s)
	}
}

// NewLogger opens the action log for toolName/action in the requested format.
func NewLogger(format LogFormat, toolName, action string) (Logger, error) {
	switch format {
	case LogFormatCSV:
		return NewCSVLogger(toolName, action)
	case LogFormatJSON:
		return NewJSONLogger(toolName, action)
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}

// openActionLog opens %TEMP%/_{toolName}_{action}_{date}.{ext} for
// appending, e.g. _msgtracetool_report_2026-10-18.csv.
func openActionLog(toolName, action, ext string) (*os.File, error) {
	name := fmt.Sprintf("_%s_%s_%s.%s", toolName, action, time.Now().Format("2006-01-02"), ext)
	path := filepath.Join(os.TempDir(), name)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not create %s action log: %w", ext, err)
	}
	fmt.Fprintf(os.Stderr, "Logging to: %s\n", path)
	return file, nil
}

// closeFile closes f, ignoring a repeated close.
func closeFile(f *os.File) error {
	if f == nil {
		return nil
	}
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// flushPolicy decides when buffered rows go to disk: every rowsPerFlush
// rows or once maxDelay has passed since the last flush.
type flushPolicy struct {
	rowsPerFlush int
	maxDelay     time.Duration
	rows         int
	last         time.Time
}

func newFlushPolicy() flushPolicy {
	return flushPolicy{rowsPerFlush: 10, maxDelay: 5 * time.Second, last: time.Now()}
}

// rowWritten records one row and reports whether a flush is due.
func (p *flushPolicy) rowWritten() bool {
	p.rows++
	if p.rows%p.rowsPerFlush == 0 || time.Since(p.last) > p.maxDelay {
		p.last = time.Now()
		return true
	}
	return false
}
