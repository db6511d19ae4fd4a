package logger

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

var (
	_ Logger = (*CSVLogger)(nil)
	_ Logger = (*JSONLogger)(nil)
)

// CSVLogger writes the action log as CSV with a leading Timestamp column.
type CSVLogger struct {
	file   *os.File
	writer *csv.Writer
	flush  flushPolicy
}

// NewCSVLogger opens the day's CSV action log for toolName and action.
func NewCSVLogger(toolName, action string) (*CSVLogger, error) {
	file, err := openActionLog(toolName, action, "csv")
	if err != nil {
		return nil, err
	}
	return &CSVLogger{file: file, writer: csv.NewWriter(file), flush: newFlushPolicy()}, nil
}

// WriteHeader writes the column row. Call it only when ShouldWriteHeader
// reports an empty file.
func (l *CSVLogger) WriteHeader(columns []string) error {
	if err := l.writer.Write(append([]string{"Timestamp"}, columns...)); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	l.writer.Flush()
	return l.writer.Error()
}

// WriteRow writes row behind the current local time.
func (l *CSVLogger) WriteRow(row []string) error {
	record := append([]string{time.Now().Format("2006-01-02 15:04:05")}, row...)
	if err := l.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}

	if l.flush.rowWritten() {
		l.writer.Flush()
		if err := l.writer.Error(); err != nil {
			return fmt.Errorf("failed to flush CSV: %w", err)
		}
	}
	return nil
}

// Close flushes pending rows and closes the file. Safe to call twice.
func (l *CSVLogger) Close() error {
	l.writer.Flush()
	if err := l.writer.Error(); err != nil {
		return fmt.Errorf("error flushing CSV on close: %w", err)
	}
	return closeFile(l.file)
}

// ShouldWriteHeader reports whether the file is still empty.
func (l *CSVLogger) ShouldWriteHeader() (bool, error) {
	info, err := l.file.Stat()
	if err != nil {
		return false, fmt.Errorf("could not stat CSV file: %w", err)
	}
	return info.Size() == 0, nil
}
