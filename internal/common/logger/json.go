package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONLogger writes one JSON object per line (JSONL). Column names given to
// WriteHeader become the object keys; nothing is written for the header
// itself.
type JSONLogger struct {
	file    *os.File
	writer  *bufio.Writer
	columns []string
	flush   flushPolicy
}

// NewJSONLogger opens the day's .jsonl action log for toolName and action.
func NewJSONLogger(toolName, action string) (*JSONLogger, error) {
	file, err := openActionLog(toolName, action, "jsonl")
	if err != nil {
		return nil, err
	}
	return &JSONLogger{file: file, writer: bufio.NewWriter(file), flush: newFlushPolicy()}, nil
}

// WriteHeader records the column names used as keys for subsequent rows.
func (l *JSONLogger) WriteHeader(columns []string) error {
	l.columns = append([]string(nil), columns...)
	return nil
}

// WriteRow encodes row as a JSON object keyed by the header columns plus a
// "timestamp" key.
func (l *JSONLogger) WriteRow(row []string) error {
	if l.columns == nil {
		return fmt.Errorf("WriteHeader must be called before WriteRow")
	}
	if len(row) != len(l.columns) {
		return fmt.Errorf("row has %d values, header has %d columns", len(row), len(l.columns))
	}

	obj := make(map[string]string, len(row)+1)
	obj["timestamp"] = time.Now().Format(time.RFC3339)
	for i, col := range l.columns {
		obj[col] = row[i]
	}

	line, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to encode JSON row: %w", err)
	}
	if _, err := l.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write JSON row: %w", err)
	}

	if l.flush.rowWritten() {
		if err := l.writer.Flush(); err != nil {
			return fmt.Errorf("failed to flush JSON log: %w", err)
		}
	}
	return nil
}

// Close flushes buffered rows and closes the file. Safe to call twice.
func (l *JSONLogger) Close() error {
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("error flushing JSON log on close: %w", err)
	}
	return closeFile(l.file)
}

// ShouldWriteHeader reports whether WriteHeader still has to be called.
// JSONL files carry no header line, so every logger needs its columns
// regardless of what the file already holds.
func (l *JSONLogger) ShouldWriteHeader() (bool, error) {
	return l.columns == nil, nil
}
