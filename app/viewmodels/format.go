package viewmodels

import (
	"fmt"
	"time"
)

const dateLayout = "Jan 2, 2006, 03:04 PM"

// RelativeTime renders the age of t as "N minutes ago", "N hours ago" or
// "N days ago". Timestamps in the future count as zero minutes.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		diff = 0
	}
	mins := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case mins < 60:
		return plural(mins, "minute") + " ago"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	default:
		return plural(days, "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatDate renders t like "Mar 1, 2024, 02:05 PM".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown date"
	}
	return t.Format(dateLayout)
}
