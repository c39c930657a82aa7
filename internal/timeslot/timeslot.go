// Package timeslot converts the timetable's slot labels into comparable minute intervals.
//
// Labels use a 12-hour clock without AM/PM markers. No session starts before 8:00 or
// ends after 7:00 PM, so hours 1-7 are read as afternoon hours.
package timeslot

import (
	"strconv"
	"strings"
)

// Interval is a half-open range of minutes since midnight.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether the interval is non-degenerate.
func (i Interval) Valid() bool {
	return i.Start < i.End
}

// Duration returns the interval length in minutes.
func (i Interval) Duration() int {
	return i.End - i.Start
}

// TheorySlots lists the eleven 50-minute lecture labels in day order.
var TheorySlots = []string{
	"8:00 - 8:50", "9:00 - 9:50", "10:00 - 10:50", "11:00 - 11:50",
	"12:00 - 12:50", "1:00 - 1:50", "2:00 - 2:50", "3:00 - 3:50",
	"4:00 - 4:50", "5:00 - 5:50", "6:00 - 6:50",
}

// LabCodes lists the lab session codes in day order.
var LabCodes = []string{"L1", "L2", "L3", "L4", "L5", "L6"}

var labRanges = map[string]string{
	"L1": "8:00 - 9:40",
	"L2": "10:00 - 11:40",
	"L3": "11:50 - 1:20",
	"L4": "1:20 - 3:00",
	"L5": "3:00 - 4:40",
	"L6": "5:10 - 6:50",
}

// A lab occupies two 50-minute children; the global room registry keys on these.
var labSubSlots = map[string][2]string{
	"L1": {"8:00 - 8:50", "8:50 - 9:40"},
	"L2": {"10:00 - 10:50", "10:50 - 11:40"},
	"L3": {"11:50 - 12:30", "12:30 - 1:20"},
	"L4": {"1:20 - 2:10", "2:10 - 3:00"},
	"L5": {"3:00 - 3:50", "3:50 - 4:40"},
	"L6": {"5:10 - 6:00", "6:00 - 6:50"},
}

// ToMinutes converts an "H:MM" token into minutes since midnight.
func ToMinutes(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if idx := strings.Index(label, " - "); idx >= 0 {
		label = strings.TrimSpace(label[:idx])
	}
	parts := strings.SplitN(label, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	if hours >= 1 && hours <= 7 {
		hours += 12
	}
	return hours*60 + minutes, true
}

// ParseRange resolves a direct "H:MM - H:MM" range, a composite
// "H:MM - H:MM to H:MM - H:MM" range, or a lab code such as "L2".
func ParseRange(label string) (Interval, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Interval{}, false
	}
	if r, ok := labRanges[strings.ToUpper(label)]; ok {
		label = r
	}
	if !strings.Contains(label, "-") {
		return Interval{}, false
	}

	var startLabel, endLabel string
	if strings.Contains(label, " to ") {
		parts := strings.Split(label, " to ")
		first := strings.SplitN(parts[0], "-", 2)
		last := strings.SplitN(parts[len(parts)-1], "-", 2)
		if len(first) != 2 || len(last) != 2 {
			return Interval{}, false
		}
		startLabel, endLabel = first[0], last[1]
	} else {
		parts := strings.SplitN(label, "-", 2)
		startLabel, endLabel = parts[0], parts[1]
	}

	start, ok := ToMinutes(startLabel)
	if !ok {
		return Interval{}, false
	}
	end, ok := ToMinutes(endLabel)
	if !ok {
		return Interval{}, false
	}
	interval := Interval{Start: start, End: end}
	if !interval.Valid() {
		return Interval{}, false
	}
	return interval, true
}

// Overlaps reports half-open overlap; touching endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// OverlapLabels parses both labels and tests them for overlap. Any unparseable
// label yields false so a single malformed record cannot abort a bulk scan.
func OverlapLabels(a, b string) bool {
	left, ok := ParseRange(a)
	if !ok {
		return false
	}
	right, ok := ParseRange(b)
	if !ok {
		return false
	}
	return Overlaps(left, right)
}

// IsTheorySlot reports whether label is one of the canonical lecture slots.
func IsTheorySlot(label string) bool {
	for _, slot := range TheorySlots {
		if slot == label {
			return true
		}
	}
	return false
}

// IsLabCode reports whether code is one of L1..L6.
func IsLabCode(code string) bool {
	_, ok := labRanges[code]
	return ok
}

// IsLabRange reports whether label is one of the canonical lab range strings.
func IsLabRange(label string) bool {
	_, ok := LabCodeForRange(label)
	return ok
}

// LabRange returns the time range for a lab code.
func LabRange(code string) (string, bool) {
	r, ok := labRanges[code]
	return r, ok
}

// LabCodeForRange maps a canonical lab range back to its code.
func LabCodeForRange(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for code, r := range labRanges {
		if r == label {
			return code, true
		}
	}
	return "", false
}

// LabSubSlots returns the two sub-slot labels a lab code occupies.
func LabSubSlots(code string) ([]string, bool) {
	subs, ok := labSubSlots[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, false
	}
	return []string{subs[0], subs[1]}, true
}
