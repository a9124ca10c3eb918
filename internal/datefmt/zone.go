package datefmt

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	// Zone ids in log lines must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"
)

// zoneAbbreviations maps short and long zone names to the region they are
// resolved against. Daylight and standard names share a region so the
// instant is computed with the rules in force on that date.
var zoneAbbreviations = map[string]string{
	"PST":  "America/Los_Angeles",
	"PDT":  "America/Los_Angeles",
	"PT":   "America/Los_Angeles",
	"MST":  "America/Denver",
	"MDT":  "America/Denver",
	"MT":   "America/Denver",
	"CST":  "America/Chicago",
	"CDT":  "America/Chicago",
	"CT":   "America/Chicago",
	"EST":  "America/New_York",
	"EDT":  "America/New_York",
	"ET":   "America/New_York",
	"AKST": "America/Anchorage",
	"AKDT": "America/Anchorage",
	"HST":  "Pacific/Honolulu",
	"AST":  "America/Halifax",
	"ADT":  "America/Halifax",
	"NST":  "America/St_Johns",
	"NDT":  "America/St_Johns",
	"BRT":  "America/Sao_Paulo",
	"ART":  "America/Argentina/Buenos_Aires",
	"WET":  "Europe/Lisbon",
	"WEST": "Europe/Lisbon",
	"BST":  "Europe/London",
	"CET":  "Europe/Paris",
	"CEST": "Europe/Paris",
	"EET":  "Europe/Athens",
	"EEST": "Europe/Athens",
	"MSK":  "Europe/Moscow",
	"IST":  "Asia/Kolkata",
	"PKT":  "Asia/Karachi",
	"ICT":  "Asia/Bangkok",
	"WIB":  "Asia/Jakarta",
	"SGT":  "Asia/Singapore",
	"HKT":  "Asia/Hong_Kong",
	"JST":  "Asia/Tokyo",
	"KST":  "Asia/Seoul",
	"AWST": "Australia/Perth",
	"ACST": "Australia/Adelaide",
	"ACDT": "Australia/Adelaide",
	"AEST": "Australia/Sydney",
	"AEDT": "Australia/Sydney",
	"NZST": "Pacific/Auckland",
	"NZDT": "Pacific/Auckland",

	"Coordinated Universal Time":   "UTC",
	"Greenwich Mean Time":          "UTC",
	"Pacific Standard Time":        "America/Los_Angeles",
	"Pacific Daylight Time":        "America/Los_Angeles",
	"Mountain Standard Time":       "America/Denver",
	"Mountain Daylight Time":       "America/Denver",
	"Central Standard Time":        "America/Chicago",
	"Central Daylight Time":        "America/Chicago",
	"Eastern Standard Time":        "America/New_York",
	"Eastern Daylight Time":        "America/New_York",
	"Central European Time":        "Europe/Paris",
	"Central European Summer Time": "Europe/Paris",
	"Japan Standard Time":          "Asia/Tokyo",
	"India Standard Time":          "Asia/Kolkata",
}

// abbreviationKeys holds the zoneAbbreviations keys, longest first.
var abbreviationKeys = func() []string {
	keys := make([]string, 0, len(zoneAbbreviations))
	for k := range zoneAbbreviations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

var locations sync.Map // string -> *time.Location

// LoadLocation resolves an IANA zone id, caching the result.
func LoadLocation(name string) (*time.Location, error) {
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	locations.Store(name, loc)
	return loc, nil
}

// ParseZone resolves a zone given as a region id ("Asia/Tokyo"), an
// abbreviation ("PST"), "Z", or a signed offset ("+09:00", "UTC+9").
// It is the lookup used for zone flags and layout files.
func ParseZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty zone")
	}
	loc, n, ok := parseZoneAt(name, 0, true)
	if ok && n == len(name) {
		return loc, nil
	}
	return nil, fmt.Errorf("unknown zone %q", name)
}

// parseZoneAt reads a zone starting at pos. Abbreviations are only
// considered when names is set.
func parseZoneAt(text string, pos int, names bool) (*time.Location, int, bool) {
	if pos >= len(text) {
		return nil, pos, false
	}
	rest := text[pos:]

	switch rest[0] {
	case '+', '-':
		secs, n, ok := parseLooseOffset(text, pos)
		if !ok {
			return nil, pos, false
		}
		return offsetZone(secs), n, true
	case 'Z':
		if len(rest) == 1 || !isZoneIDChar(rest[1]) {
			return time.UTC, pos + 1, true
		}
	}

	for _, prefix := range []string{"UTC", "GMT", "UT"} {
		if !strings.HasPrefix(rest, prefix) {
			continue
		}
		p := pos + len(prefix)
		if p < len(text) && (text[p] == '+' || text[p] == '-') {
			if secs, n, ok := parseLooseOffset(text, p); ok {
				return offsetZone(secs), n, true
			}
		}
		if p == len(text) || !isZoneIDChar(text[p]) || text[p] == '+' || text[p] == '-' {
			return time.UTC, p, true
		}
	}

	if names {
		for _, abbr := range abbreviationKeys {
			if !strings.HasPrefix(rest, abbr) {
				continue
			}
			end := pos + len(abbr)
			if end < len(text) && isZoneIDChar(text[end]) && text[end] != '+' && text[end] != '-' {
				continue
			}
			loc, err := LoadLocation(zoneAbbreviations[abbr])
			if err != nil {
				return nil, pos, false
			}
			return loc, end, true
		}
	}

	end := pos
	for end < len(text) && isZoneIDChar(text[end]) {
		end++
	}
	id := text[pos:end]
	if !strings.Contains(id, "/") {
		return nil, pos, false
	}
	loc, err := LoadLocation(id)
	if err != nil {
		return nil, pos, false
	}
	return loc, end, true
}

func isZoneIDChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '/' || c == '_' || c == '-' || c == '+'
}

// parseLooseOffset reads a signed offset with a one or two digit hour and
// optional minutes and seconds, with or without colons.
func parseLooseOffset(text string, pos int) (int, int, bool) {
	if pos >= len(text) || (text[pos] != '+' && text[pos] != '-') {
		return 0, pos, false
	}
	sign := 1
	if text[pos] == '-' {
		sign = -1
	}
	p := pos + 1

	hour, n := readDigits(text, p, 2)
	if n == 0 {
		return 0, pos, false
	}
	p += n

	minute, second := 0, 0
	if n == 2 {
		if v, q, ok := offsetPart(text, p); ok {
			minute, p = v, q
			if v, q, ok := offsetPart(text, p); ok {
				second, p = v, q
			}
		}
	} else if p < len(text) && text[p] == ':' {
		if v, q, ok := offsetPart(text, p); ok {
			minute, p = v, q
		}
	}

	if hour > 18 || minute > 59 || second > 59 {
		return 0, pos, false
	}
	return sign * (hour*3600 + minute*60 + second), p, true
}

// offsetPart reads two digits, optionally preceded by a colon.
func offsetPart(text string, pos int) (int, int, bool) {
	p := pos
	if p < len(text) && text[p] == ':' {
		p++
	}
	v, n := readDigits(text, p, 2)
	if n != 2 {
		return 0, pos, false
	}
	return v, p + 2, true
}

// readDigits reads up to limit ASCII digits at pos.
func readDigits(text string, pos, limit int) (int, int) {
	v, n := 0, 0
	for n < limit && pos+n < len(text) {
		c := text[pos+n]
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + int(c-'0')
		n++
	}
	return v, n
}

func offsetZone(secs int) *time.Location {
	if secs == 0 {
		return time.UTC
	}
	return time.FixedZone(formatOffset(secs), secs)
}

func formatOffset(secs int) string {
	sign := '+'
	if secs < 0 {
		sign = '-'
		secs = -secs
	}
	if s := secs % 60; s != 0 {
		return fmt.Sprintf("%c%02d:%02d:%02d", sign, secs/3600, secs/60%60, s)
	}
	return fmt.Sprintf("%c%02d:%02d", sign, secs/3600, secs/60%60)
}
