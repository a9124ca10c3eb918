package datefmt

import (
	"fmt"
	"time"
)

// Formatter parses text laid out by a date pattern in the letter syntax
// used by log4j and java.time ("yyyy-MM-dd HH:mm:ss,SSS").
//
// Parsing is strict: numeric fields must have the width the pattern asks
// for, text is matched case-sensitively in English, and the whole input
// must be consumed. A variable-width number directly followed by
// fixed-width numbers leaves room for them ("yyyyMMdd" reads 20240102).
//
// A Formatter is immutable and safe for concurrent use.
type Formatter struct {
	layout   string
	elems    []element
	zone     *time.Location
	defaults *civilDate
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

// Compile parses layout into a Formatter.
func Compile(layout string) (*Formatter, error) {
	b := &builder{layout: layout}
	if err := b.build(); err != nil {
		return nil, err
	}
	linkAdjacent(b.elems)
	return &Formatter{layout: layout, elems: b.elems}, nil
}

// MustCompile is like Compile but panics on an invalid layout.
func MustCompile(layout string) *Formatter {
	f, err := Compile(layout)
	if err != nil {
		panic(err)
	}
	return f
}

// Layout returns the pattern the formatter was compiled from.
func (f *Formatter) Layout() string { return f.layout }

// Zone returns the zone used when the text names none, or nil.
func (f *Formatter) Zone() *time.Location { return f.zone }

// WithZone returns a copy of f that resolves text without a zone or
// offset in loc.
func (f *Formatter) WithZone(loc *time.Location) *Formatter {
	c := *f
	c.zone = loc
	return &c
}

// WithDateDefaults returns a copy of f that fills a missing year, month or
// day from the given date.
func (f *Formatter) WithDateDefaults(year int, month time.Month, day int) *Formatter {
	c := *f
	c.defaults = &civilDate{year: year, month: month, day: day}
	return &c
}

// Parse reads text and returns the instant it denotes.
// A zone or offset in the text wins over the formatter zone.
func (f *Formatter) Parse(text string) (time.Time, error) {
	var p parsed
	pos := 0
	for _, e := range f.elems {
		next, ok := e.parse(&p, text, pos)
		if !ok {
			return time.Time{}, f.errorf(text, pos, "could not be parsed")
		}
		pos = next
	}
	if pos != len(text) {
		return time.Time{}, f.errorf(text, pos, "unparsed text found")
	}
	return f.resolve(&p, text)
}

func (f *Formatter) errorf(text string, offset int, format string, args ...any) *ParseError {
	return &ParseError{
		Text:    text,
		Layout:  f.layout,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
	}
}

// builder turns a layout into elements.
type builder struct {
	layout string
	elems  []element
}

func (b *builder) fail(offset int, format string, args ...any) error {
	return &LayoutError{Layout: b.layout, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func (b *builder) build() error {
	layout := b.layout
	for i := 0; i < len(layout); {
		c := layout[i]
		switch {
		case isLetter(c):
			start := i
			j := letterRun(layout, i)
			pad := 0
			if c == 'p' {
				if j >= len(layout) || !isLetter(layout[j]) {
					return b.fail(start, "pad letter 'p' must be followed by a pattern letter")
				}
				pad = j - i
				i = j
				c = layout[i]
				j = letterRun(layout, i)
			}
			e, msg := letterElement(c, j-i)
			if msg != "" {
				return b.fail(i, "%s", msg)
			}
			if pad > 0 {
				e = &padElem{width: pad, inner: e}
			}
			b.elems = append(b.elems, e)
			i = j

		case c == '\'':
			lit, end, ok := quoted(layout, i)
			if !ok {
				return b.fail(i, "incomplete quoted literal")
			}
			b.literal(lit)
			i = end

		case c == '[' || c == ']':
			return b.fail(i, "optional sections are not supported")

		case c == '{' || c == '}' || c == '#':
			return b.fail(i, "reserved character %q", c)

		default:
			b.literal(string(c))
			i++
		}
	}
	return nil
}

func (b *builder) literal(s string) {
	if n := len(b.elems); n > 0 {
		if prev, ok := b.elems[n-1].(*literalElem); ok {
			b.elems[n-1] = &literalElem{text: prev.text + s}
			return
		}
	}
	b.elems = append(b.elems, &literalElem{text: s})
}

// quoted reads a quoted literal starting at the single quote at layout[i].
// It returns the unescaped text and the index after the closing quote.
func quoted(layout string, i int) (string, int, bool) {
	j := i + 1
	var lit []byte
	for j < len(layout) {
		if layout[j] == '\'' {
			if j+1 < len(layout) && layout[j+1] == '\'' {
				lit = append(lit, '\'')
				j += 2
				continue
			}
			break
		}
		lit = append(lit, layout[j])
		j++
	}
	if j >= len(layout) {
		return "", 0, false
	}
	if j == i+1 {
		return "'", j + 1, true
	}
	return string(lit), j + 1, true
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func letterRun(layout string, i int) int {
	j := i
	for j < len(layout) && layout[j] == layout[i] {
		j++
	}
	return j
}

func number(f field, minWidth, maxWidth int) *numberElem {
	return &numberElem{field: f, minWidth: minWidth, maxWidth: maxWidth}
}

// letterElement returns the element for count repetitions of letter c,
// or a message describing why the run is invalid.
func letterElement(c byte, count int) (element, string) {
	tooMany := fmt.Sprintf("too many pattern letters: %c", c)

	switch c {
	case 'G':
		if count > 5 {
			return nil, tooMany
		}
		return &textElem{field: fieldEra, values: eraTexts(textStyleFor(count))}, ""

	case 'u', 'y':
		f := fieldYearOfEra
		if c == 'u' {
			f = fieldYear
		}
		if count == 2 {
			return &numberElem{field: f, minWidth: 2, maxWidth: 2, base: 2000}, ""
		}
		return number(f, count, 19), ""

	case 'M', 'L':
		switch {
		case count == 1:
			return number(fieldMonth, 1, 19), ""
		case count == 2:
			return number(fieldMonth, 2, 2), ""
		case count <= 5:
			return &textElem{field: fieldMonth, values: monthTexts(textStyleFor(count))}, ""
		}
		return nil, tooMany

	case 'd', 'h', 'H', 'k', 'K', 'm', 's', 'w':
		f := map[byte]field{
			'd': fieldDayOfMonth,
			'h': fieldClockHourOfAmPm,
			'H': fieldHourOfDay,
			'k': fieldClockHourOfDay,
			'K': fieldHourOfAmPm,
			'm': fieldMinute,
			's': fieldSecond,
			'w': fieldWeekOfYear,
		}[c]
		switch count {
		case 1:
			return number(f, 1, 19), ""
		case 2:
			return number(f, 2, 2), ""
		}
		return nil, tooMany

	case 'D':
		if count > 3 {
			return nil, tooMany
		}
		return number(fieldDayOfYear, count, 3), ""

	case 'W', 'F':
		if count > 1 {
			return nil, tooMany
		}
		if c == 'W' {
			return number(fieldWeekOfMonth, 1, 19), ""
		}
		return number(fieldAlignedWeekOfMonth, 1, 19), ""

	case 'E':
		if count > 5 {
			return nil, tooMany
		}
		return &textElem{field: fieldDayOfWeek, values: dayOfWeekTexts(textStyleFor(count))}, ""

	case 'a':
		if count > 1 {
			return nil, tooMany
		}
		return &textElem{field: fieldAmPm, values: ampmTexts}, ""

	case 'S':
		if count > 9 {
			return nil, tooMany
		}
		return &numberElem{field: fieldNano, minWidth: count, maxWidth: count, fraction: true}, ""

	case 'n', 'N', 'A':
		f := map[byte]field{'n': fieldNano, 'N': fieldNanoOfDay, 'A': fieldMilliOfDay}[c]
		if c == 'n' && count > 9 || count > 19 {
			return nil, tooMany
		}
		if count == 1 {
			return number(f, 1, 19), ""
		}
		return number(f, count, count), ""

	case 'V':
		if count != 2 {
			return nil, "pattern letter count must be 2: V"
		}
		return &zoneElem{}, ""

	case 'z':
		if count > 4 {
			return nil, tooMany
		}
		return &zoneElem{names: true}, ""

	case 'Z':
		switch {
		case count <= 3:
			return &offsetElem{}, ""
		case count == 4:
			return &localizedOffsetElem{}, ""
		case count == 5:
			return &offsetElem{colon: true, seconds: true, zeroText: "Z"}, ""
		}
		return nil, tooMany

	case 'X', 'x':
		if count > 5 {
			return nil, tooMany
		}
		e := offsetStyles[count-1]
		if c == 'X' {
			e.zeroText = "Z"
		}
		return &e, ""
	}
	return nil, fmt.Sprintf("unknown pattern letter: %c", c)
}

// offsetStyles are the X and x offset forms by letter count:
// +HHmm, +HHMM, +HH:MM, +HHMMss, +HH:MM:ss.
var offsetStyles = [5]offsetElem{
	{optionalMinutes: true},
	{},
	{colon: true},
	{seconds: true},
	{colon: true, seconds: true},
}

func textStyleFor(count int) textStyle {
	switch count {
	case 4:
		return styleFull
	case 5:
		return styleNarrow
	}
	return styleShort
}

// linkAdjacent lets a number directly followed by fixed-width numbers
// reserve digits for them.
func linkAdjacent(elems []element) {
	var active *numberElem
	for _, e := range elems {
		n, ok := e.(*numberElem)
		if !ok {
			active = nil
			continue
		}
		if active != nil && n.fixed() {
			active.subsequentWidth += n.maxWidth
			continue
		}
		active = n
	}
}
