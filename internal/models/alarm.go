package models

import (
	"strings"
	"time"
)

// AlarmInputLayout is the value format of an HTML datetime-local input.
const AlarmInputLayout = "2006-01-02T15:04"

var alarmLayouts = []string{AlarmInputLayout, "2006-01-02T15:04:05", time.RFC3339}

// ParseAlarm parses a submitted alarm timestamp. Empty or unparseable input
// yields nil; zone-less values are read in the server's local time.
func ParseAlarm(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range alarmLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t
		}
	}
	return nil
}
