package util

import (
	"fmt"
	"time"
)

const (
	DateTimeFormat = "2006-01-02 15:04:05"
	ISO8601Format  = "2006-01-02T15:04:05Z07:00"

	clockFormat = "03:04 PM"
	dateFormat  = "01/02/2006"
)

func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}

func ParseDateTime(s string) (time.Time, error) {
	return time.Parse(DateTimeFormat, s)
}

func TimeToISO8601Str(t time.Time) string {
	return t.UTC().Format(ISO8601Format)
}

func ParseISO8601(s string) (time.Time, error) {
	return time.Parse(ISO8601Format, s)
}

// FormatWait renders how long an entry has been waiting: "7m" under an hour,
// "1h 7m" from an hour up. Negative durations clamp to "0m".
func FormatWait(joinedAt, now time.Time) string {
	mins := int(now.Sub(joinedAt).Minutes())
	if mins < 0 {
		mins = 0
	}

	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}

	return fmt.Sprintf("%dh %dm", mins/60, mins%60)
}

// FormatJoinedAt renders the join instant for display: "Today, 02:15 PM" when
// the entry joined on the same calendar day as now, otherwise date plus time.
func FormatJoinedAt(t, now time.Time) string {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return fmt.Sprintf("Today, %s", t.Format(clockFormat))
	}

	return fmt.Sprintf("%s %s", t.Format(dateFormat), t.Format(clockFormat))
}
