package exchange

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// traceTime decodes the Received column. The admin API serialises dates
// either as ISO 8601 strings or in the legacy "/Date(ms)/" form, optionally
// followed by a +hhmm offset that does not change the instant.
type traceTime struct {
	time.Time
}

var msDateRE = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

// Timestamps without a zone are UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func (t *traceTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("received timestamp: %w", err)
	}

	parsed, err := parseTraceTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func parseTraceTime(s string) (time.Time, error) {
	if m := msDateRE.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid /Date()/ timestamp %q: %w", s, err)
		}
		return time.UnixMilli(ms).UTC(), nil
	}

	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised received timestamp %q", s)
}
