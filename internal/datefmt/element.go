package datefmt

import (
	"strconv"
	"strings"
	"time"
)

type field int

const (
	fieldEra field = iota
	fieldYear
	fieldYearOfEra
	fieldMonth
	fieldDayOfMonth
	fieldDayOfYear
	fieldDayOfWeek
	fieldAmPm
	fieldHourOfDay
	fieldClockHourOfDay
	fieldHourOfAmPm
	fieldClockHourOfAmPm
	fieldMinute
	fieldSecond
	fieldNano
	fieldMilliOfDay
	fieldNanoOfDay
	fieldWeekOfYear
	fieldWeekOfMonth
	fieldAlignedWeekOfMonth
	numFields
)

// parsed collects field values read from one input.
type parsed struct {
	values    [numFields]int64
	set       [numFields]bool
	zone      *time.Location
	offset    int
	hasOffset bool
}

// put records v for f. It fails when f already holds a different value.
func (p *parsed) put(f field, v int64) bool {
	if p.set[f] {
		return p.values[f] == v
	}
	p.values[f], p.set[f] = v, true
	return true
}

func (p *parsed) get(f field) (int64, bool) {
	return p.values[f], p.set[f]
}

// element reads one piece of a layout at pos and returns the position
// after it.
type element interface {
	parse(p *parsed, text string, pos int) (int, bool)
}

type literalElem struct {
	text string
}

func (e *literalElem) parse(_ *parsed, text string, pos int) (int, bool) {
	if !strings.HasPrefix(text[pos:], e.text) {
		return pos, false
	}
	return pos + len(e.text), true
}

// numberElem reads a run of ASCII digits.
type numberElem struct {
	field    field
	minWidth int
	maxWidth int
	// subsequentWidth is the number of digits reserved for fixed-width
	// numbers that directly follow.
	subsequentWidth int
	// base is added to the value; it turns two-digit years into 20xx.
	base int64
	// fraction scales the digits to nanoseconds.
	fraction bool
}

func (e *numberElem) fixed() bool { return e.minWidth == e.maxWidth }

func (e *numberElem) parse(p *parsed, text string, pos int) (int, bool) {
	avail := 0
	for pos+avail < len(text) && avail < e.maxWidth+e.subsequentWidth {
		if c := text[pos+avail]; c < '0' || c > '9' {
			break
		}
		avail++
	}

	n := min(avail, e.maxWidth)
	if e.subsequentWidth > 0 {
		n = max(e.minWidth, avail-e.subsequentWidth)
	}
	if n < e.minWidth || n > avail {
		return pos, false
	}

	v, err := strconv.ParseInt(text[pos:pos+n], 10, 64)
	if err != nil {
		return pos, false
	}
	if e.fraction {
		for i := n; i < 9; i++ {
			v *= 10
		}
	}
	return pos + n, p.put(e.field, e.base+v)
}

type textElem struct {
	field  field
	values []textValue
}

func (e *textElem) parse(p *parsed, text string, pos int) (int, bool) {
	v, ok := matchText(e.values, text, pos)
	if !ok {
		return pos, false
	}
	return pos + len(v.text), p.put(e.field, v.value)
}

// padElem skips leading spaces inside a window of width bytes and
// requires inner to end exactly at the window end.
type padElem struct {
	width int
	inner element
}

func (e *padElem) parse(p *parsed, text string, pos int) (int, bool) {
	end := pos + e.width
	if pos >= len(text) || end > len(text) {
		return pos, false
	}
	q := pos
	for q < end && text[q] == ' ' {
		q++
	}
	next, ok := e.inner.parse(p, text[:end], q)
	if !ok || next != end {
		return pos, false
	}
	return end, true
}

// zoneElem reads a zone id, and zone names when names is set.
type zoneElem struct {
	names bool
}

func (e *zoneElem) parse(p *parsed, text string, pos int) (int, bool) {
	loc, next, ok := parseZoneAt(text, pos, e.names)
	if !ok {
		return pos, false
	}
	p.zone = loc
	return next, true
}

// offsetElem reads a signed offset with a two-digit hour.
type offsetElem struct {
	colon           bool
	optionalMinutes bool
	seconds         bool
	// zeroText, when set, is accepted for a zero offset.
	zeroText string
}

func (e *offsetElem) parse(p *parsed, text string, pos int) (int, bool) {
	if e.zeroText != "" && strings.HasPrefix(text[pos:], e.zeroText) {
		return pos + len(e.zeroText), p.putOffset(0)
	}
	if pos >= len(text) || (text[pos] != '+' && text[pos] != '-') {
		return pos, false
	}
	sign := 1
	if text[pos] == '-' {
		sign = -1
	}

	hour, n := readDigits(text, pos+1, 2)
	if n != 2 {
		return pos, false
	}
	q := pos + 3

	minute, q, ok := e.part(text, q)
	if !ok {
		if !e.optionalMinutes {
			return pos, false
		}
		return q, p.putOffset(sign * hour * 3600)
	}
	second := 0
	if e.seconds {
		if s, r, ok := e.part(text, q); ok {
			second, q = s, r
		}
	}
	if hour > 18 || minute > 59 || second > 59 {
		return pos, false
	}
	return q, p.putOffset(sign * (hour*3600 + minute*60 + second))
}

func (e *offsetElem) part(text string, pos int) (int, int, bool) {
	q := pos
	if e.colon {
		if q >= len(text) || text[q] != ':' {
			return 0, pos, false
		}
		q++
	}
	v, n := readDigits(text, q, 2)
	if n != 2 {
		return 0, pos, false
	}
	return v, q + 2, true
}

// localizedOffsetElem reads "GMT" optionally followed by an offset such
// as "+8" or "-07:00".
type localizedOffsetElem struct{}

func (e *localizedOffsetElem) parse(p *parsed, text string, pos int) (int, bool) {
	if !strings.HasPrefix(text[pos:], "GMT") {
		return pos, false
	}
	q := pos + 3
	if q < len(text) && (text[q] == '+' || text[q] == '-') {
		secs, next, ok := parseLooseOffset(text, q)
		if !ok {
			return pos, false
		}
		return next, p.putOffset(secs)
	}
	return q, p.putOffset(0)
}

func (p *parsed) putOffset(secs int) bool {
	if p.hasOffset {
		return p.offset == secs
	}
	p.offset, p.hasOffset = secs, true
	return true
}
