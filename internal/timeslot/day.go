package timeslot

import "strings"

// Days lists the canonical weekday tokens used across the timetable.
var Days = []string{"monday", "tuesday", "wed", "thur", "fri", "saturday"}

var dayAliases = map[string]string{
	"mon":       "monday",
	"monday":    "monday",
	"tue":       "tuesday",
	"tues":      "tuesday",
	"tuesday":   "tuesday",
	"wed":       "wed",
	"wednesday": "wed",
	"thu":       "thur",
	"thur":      "thur",
	"thurs":     "thur",
	"thursday":  "thur",
	"fri":       "fri",
	"friday":    "fri",
	"sat":       "saturday",
	"saturday":  "saturday",
}

// NormalizeDay maps the day spellings found in source data onto canonical tokens.
// Unknown values are lower-cased and returned as-is.
func NormalizeDay(day string) string {
	key := strings.ToLower(strings.TrimSpace(day))
	if canonical, ok := dayAliases[key]; ok {
		return canonical
	}
	return key
}
