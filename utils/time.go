package utils

import "time"

const dbDateTimeLayout = "2006-01-02 15:04:05"

// FormatDateTimeForDB formats a time for the VARCHAR timestamp columns (UTC).
func FormatDateTimeForDB(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dbDateTimeLayout)
}

// ParseDBDate parses timestamps written by FormatDateTimeForDB.
func ParseDBDate(value string) (time.Time, error) {
	return time.ParseInLocation(dbDateTimeLayout, value, time.UTC)
}
