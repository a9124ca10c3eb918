package datefmt

import (
	"strings"
	"time"
)

// DefaultAlias is the named layout used when a date directive has no modifier.
const DefaultAlias = "DEFAULT"

// ExpandAlias returns the literal layout for a named date format such as
// ISO8601. Names are case-sensitive; ok is false for anything else.
func ExpandAlias(name string) (layout string, ok bool) {
	switch name {
	case "ABSOLUTE":
		return "HH:mm:ss,SSS", true
	case "ABSOLUTE_MICROS":
		return "HH:mm:ss,nnnnnn", true
	case "ABSOLUTE_NANOS":
		return "HH:mm:ss,nnnnnnnnn", true
	case "ABSOLUTE_PERIOD":
		return "HH:mm:ss.SSS", true
	case "COMPACT":
		return "yyyyMMddHHmmssSSS", true
	case "DATE":
		return "dd MMM yyyy HH:mm:ss,SSS", true
	case "DATE_PERIOD":
		return "dd MMM yyyy HH:mm:ss.SSS", true
	case "DEFAULT":
		return "yyyy-MM-dd HH:mm:ss,SSS", true
	case "DEFAULT_MICROS":
		return "yyyy-MM-dd HH:mm:ss,nnnnnn", true
	case "DEFAULT_NANOS":
		return "yyyy-MM-dd HH:mm:ss,nnnnnnnnn", true
	case "DEFAULT_PERIOD":
		return "yyyy-MM-dd HH:mm:ss.SSS", true
	case "ISO8601_BASIC":
		return "yyyyMMdd'T'HHmmss,SSS", true
	case "ISO8601_BASIC_PERIOD":
		return "yyyyMMdd'T'HHmmss.SSS", true
	case "ISO8601":
		return "yyyy-MM-dd'T'HH:mm:ss,SSS", true
	case "ISO8601_OFFSET_DATE_TIME_HH":
		return "yyyy-MM-dd'T'HH:mm:ss,SSSX", true
	case "ISO8601_OFFSET_DATE_TIME_HHMM":
		return "yyyy-MM-dd'T'HH:mm:ss,SSSXX", true
	case "ISO8601_OFFSET_DATE_TIME_HHCMM":
		return "yyyy-MM-dd'T'HH:mm:ss,SSSXXX", true
	case "ISO8601_PERIOD":
		return "yyyy-MM-dd'T'HH:mm:ss.SSS", true
	}
	return "", false
}

// Timestamp is everything a date directive needs at decode time.
type Timestamp struct {
	// Layout is the literal date layout after alias expansion.
	Layout string
	// Regex matches text rendered with Layout.
	Regex string
	// Strict parses text rendered with Layout.
	Strict *Formatter
	// Lenient accepts unpadded day and time components. Nil when the
	// relaxed layout is not valid.
	Lenient *Formatter
	// HasDate reports whether the layout carries a year and a day.
	HasDate bool
	// UseCache reports whether the layout has no sub-second component.
	UseCache bool
}

// Resolve expands modifier into a literal layout and builds its formatters.
// An empty modifier selects DefaultAlias. When the layout names no offset or
// zone, zone is attached to both formatters.
func Resolve(modifier string, zone *time.Location) (*Timestamp, error) {
	if modifier == "" {
		modifier = DefaultAlias
	}
	layout := modifier
	if expanded, ok := ExpandAlias(modifier); ok {
		layout = expanded
	}

	strict, err := Compile(layout)
	if err != nil {
		return nil, err
	}
	lenient, err := Compile(LenientLayout(layout))
	if err != nil {
		lenient = nil
	}

	if zone != nil && !NamesZone(layout) {
		strict = strict.WithZone(zone)
		if lenient != nil {
			lenient = lenient.WithZone(zone)
		}
	}

	return &Timestamp{
		Layout:   layout,
		Regex:    ToRegex(layout),
		Strict:   strict,
		Lenient:  lenient,
		HasDate:  HasDate(layout),
		UseCache: UseCache(layout),
	}, nil
}

var lenientReplacer = strings.NewReplacer(
	"dd", "d",
	"HH", "H",
	"hh", "h",
	"KK", "K",
	"kk", "k",
	"mm", "m",
	"ss", "s",
)

// LenientLayout rewrites two-letter day and time runs to their one-letter
// forms so values without a leading zero still parse.
func LenientLayout(layout string) string {
	return lenientReplacer.Replace(layout)
}

// HasDate reports whether layout contains a year symbol (u or y) and a
// day symbol (d).
func HasDate(layout string) bool {
	return strings.ContainsAny(layout, "uy") && strings.Contains(layout, "d")
}

// UseCache reports whether layout has no sub-second symbol (S, n, N, A).
// Timestamps from such layouts repeat for every line within a second.
func UseCache(layout string) bool {
	return !strings.ContainsAny(layout, "SnNA")
}

// NamesZone reports whether layout contains an offset or zone-name symbol,
// case-insensitively.
func NamesZone(layout string) bool {
	return strings.ContainsAny(layout, "xXzZ")
}
