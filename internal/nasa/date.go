package nasa

import (
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the wire format for date-time values: YYYY-MM-DDThh:mm:ss.
const TimestampLayout = "2006-01-02T15:04:05"

type dateKind int

const (
	dateUnset dateKind = iota
	dateNow
	dateRelative
	dateCalendar
	dateTimestamp
)

// DateSpec is one of: the literal "now", a relative day offset ("+D"),
// a calendar string passed through as-is, or a time value. The zero value is
// unset and is omitted from requests.
type DateSpec struct {
	kind  dateKind
	days  int
	value string
	t     time.Time
}

// Now is the service's "now" literal.
func Now() DateSpec { return DateSpec{kind: dateNow} }

// RelativeDays renders as "+D": D days after date-min. Only valid for date-max.
func RelativeDays(days int) DateSpec { return DateSpec{kind: dateRelative, days: days} }

// Calendar passes a date ("2024-01-01") or date-time string through unchanged.
func Calendar(s string) DateSpec { return DateSpec{kind: dateCalendar, value: s} }

// Timestamp is normalized to TimestampLayout. The wall clock of t is used
// as-is, without a time zone conversion.
func Timestamp(t time.Time) DateSpec { return DateSpec{kind: dateTimestamp, t: t} }

// ParseDateSpec classifies a string: "now", "+D" for integer D, otherwise a
// calendar string.
func ParseDateSpec(s string) DateSpec {
	if s == "now" {
		return Now()
	}
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		if d, err := strconv.Atoi(rest); err == nil {
			return RelativeDays(d)
		}
	}
	return Calendar(s)
}

// IsZero reports whether d is unset.
func (d DateSpec) IsZero() bool { return d.kind == dateUnset }

// IsNow reports whether d is the "now" literal.
func (d DateSpec) IsNow() bool { return d.kind == dateNow }

// String returns the value sent to the service.
func (d DateSpec) String() string {
	switch d.kind {
	case dateNow:
		return "now"
	case dateRelative:
		return "+" + strconv.Itoa(d.days)
	case dateCalendar:
		return d.value
	case dateTimestamp:
		return d.t.Format(TimestampLayout)
	}
	return ""
}
