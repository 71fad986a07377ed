package main

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// maxEpochMillis bounds numeric datetimes to the range a JavaScript Date
// can represent, 100,000,000 days either side of the epoch.
const maxEpochMillis = 8.64e15

// datetimeLayouts are tried in order. Layouts without a zone are read as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
}

// parseDatetime converts the raw datetime field of a request into a time.
// Strings are matched against datetimeLayouts and numbers are read as Unix
// milliseconds within maxEpochMillis. Anything absent, unparseable or out
// of range yields now.
func parseDatetime(raw json.RawMessage, now time.Time) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return now
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, ok := parseDatetimeString(s); ok {
			return t
		}
		return now
	}

	var ms json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&ms); err == nil {
		if f, err := ms.Float64(); err == nil && math.Abs(f) <= maxEpochMillis {
			return time.UnixMilli(int64(f)).UTC()
		}
	}
	return now
}

func parseDatetimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
