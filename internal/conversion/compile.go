// Package conversion compiles log4j-style conversion patterns such as
// "%d{ISO8601} [%t] %-5p %c{1} - %m%n" into an anchored regular expression
// with one capture group per directive.
package conversion

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/convlog/convlog-go/internal/datefmt"
)

const (
	newlineDirective = "%n"

	// maxWidth is the largest width hint the regexp engine accepts as a
	// repetition count.
	maxWidth = 1000
)

var (
	directiveRe = regexp.MustCompile(`%(-?(\d+))?(\.(\d+))?([a-zA-Z]+)(\{([^}]+)\})*`)
	modifierRe  = regexp.MustCompile(`\{([^}]+)\}`)
)

// Directive is one %... occurrence in a conversion pattern.
type Directive struct {
	Type        FieldType
	Placeholder string
	// Modifier is the content of the last {...} group, or empty.
	Modifier string
	// Modifiers holds the content of every {...} group in order.
	Modifiers []string
	// MinWidth and MaxWidth are -1 when not given.
	MinWidth int
	MaxWidth int
	Begin    int
	Length   int
}

// End returns the offset just past the directive.
func (d Directive) End() int { return d.Begin + d.Length }

// Descriptor is a directive together with everything derived from it at
// compile time. Descriptors are built once and never modified.
type Descriptor struct {
	Directive
	// FollowedByLiteral is set when literal text follows the directive.
	FollowedByLiteral bool
	// Timestamp is set for date directives only.
	Timestamp *datefmt.Timestamp
}

func (d Descriptor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %%%s", d.Type, d.Placeholder)
	if d.Modifier != "" {
		fmt.Fprintf(&sb, "{%s}", d.Modifier)
	}
	fmt.Fprintf(&sb, " [%d,%d)", d.Begin, d.End())
	if d.MinWidth >= 0 || d.MaxWidth >= 0 {
		fmt.Fprintf(&sb, " width=%d..%d", d.MinWidth, d.MaxWidth)
	}
	if d.FollowedByLiteral {
		sb.WriteString(" lazy")
	}
	if d.Timestamp != nil {
		fmt.Fprintf(&sb, " layout=%q", d.Timestamp.Layout)
	}
	return sb.String()
}

// Compiled pairs the ordered descriptors of a pattern with the regular
// expression matching whole lines rendered by it.
type Compiled struct {
	source string
	re     *regexp.Regexp
	fields []Descriptor
}

// Source returns the pattern as given to Compile.
func (c *Compiled) Source() string { return c.source }

// Regexp returns the compiled line matcher. Capture group i+1 belongs to
// Fields()[i].
func (c *Compiled) Regexp() *regexp.Regexp { return c.re }

// Fields returns a copy of the descriptors in pattern order.
func (c *Compiled) Fields() []Descriptor {
	out := make([]Descriptor, len(c.fields))
	copy(out, c.fields)
	return out
}

// Field returns descriptor i without copying the slice.
func (c *Compiled) Field(i int) *Descriptor { return &c.fields[i] }

// NumFields returns the number of descriptors.
func (c *Compiled) NumFields() int { return len(c.fields) }

// Prepare strips a single trailing %n. Any other %n is an error since the
// decoder works on one line at a time.
func Prepare(pattern string) (string, error) {
	p := strings.TrimSuffix(pattern, newlineDirective)
	if i := strings.Index(p, newlineDirective); i >= 0 {
		return "", &SyntaxError{
			Pattern:     pattern,
			Offset:      i,
			Placeholder: "n",
			Message:     "newline directive must appear once, at the end of the pattern",
		}
	}
	return p, nil
}

// Extract returns the directives of pattern in order of appearance.
// Unknown placeholders are reported with type Unsupported.
func Extract(pattern string) []Directive {
	matches := directiveRe.FindAllStringSubmatchIndex(pattern, -1)
	out := make([]Directive, 0, len(matches))
	for _, m := range matches {
		d := Directive{
			Placeholder: pattern[m[10]:m[11]],
			MinWidth:    -1,
			MaxWidth:    -1,
			Begin:       m[0],
			Length:      m[1] - m[0],
		}
		d.Type = Lookup(d.Placeholder)
		if m[4] >= 0 {
			d.MinWidth = width(pattern[m[4]:m[5]])
		}
		if m[8] >= 0 {
			d.MaxWidth = width(pattern[m[8]:m[9]])
		}
		if m[12] >= 0 {
			for _, g := range modifierRe.FindAllStringSubmatch(pattern[m[11]:m[1]], -1) {
				d.Modifiers = append(d.Modifiers, g[1])
			}
			d.Modifier = pattern[m[14]:m[15]]
		}
		out = append(out, d)
	}
	return out
}

func width(digits string) int {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return maxWidth + 1
	}
	return n
}

// Compile prepares pattern, builds its descriptors and assembles the line
// matcher. Date directives without an explicit zone resolve against zone.
func Compile(pattern string, zone *time.Location) (*Compiled, error) {
	prepared, err := Prepare(pattern)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		zone = time.UTC
	}

	directives := Extract(prepared)
	fields := make([]Descriptor, 0, len(directives))
	for i, d := range directives {
		var followed bool
		if i+1 < len(directives) {
			followed = directives[i+1].Begin > d.End()
		} else {
			followed = d.End() < len(prepared)
		}
		desc, err := buildDescriptor(pattern, d, followed, zone)
		if err != nil {
			return nil, err
		}
		fields = append(fields, desc)
	}

	expr, err := assemble(pattern, prepared, fields)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &SyntaxError{Pattern: pattern, Offset: -1, Message: "generated expression is invalid", Cause: err}
	}
	if re.NumSubexp() != len(fields) {
		return nil, &SyntaxError{
			Pattern: pattern,
			Offset:  -1,
			Message: fmt.Sprintf("expression has %d groups for %d directives", re.NumSubexp(), len(fields)),
		}
	}

	return &Compiled{source: pattern, re: re, fields: fields}, nil
}

// buildDescriptor returns the complete descriptor for d.
func buildDescriptor(pattern string, d Directive, followed bool, zone *time.Location) (Descriptor, error) {
	desc := Descriptor{Directive: d, FollowedByLiteral: followed}
	if d.Type != Date {
		return desc, nil
	}

	// %d{layout}{zone}: a second group overrides the zone.
	layout := d.Modifier
	if len(d.Modifiers) > 1 {
		layout = d.Modifiers[0]
		loc, err := datefmt.ParseZone(d.Modifiers[1])
		if err != nil {
			return Descriptor{}, &SyntaxError{
				Pattern: pattern, Offset: d.Begin, Placeholder: d.Placeholder,
				Message: "invalid time zone", Cause: err,
			}
		}
		zone = loc
	}

	ts, err := datefmt.Resolve(layout, zone)
	if err != nil {
		return Descriptor{}, &SyntaxError{
			Pattern: pattern, Offset: d.Begin, Placeholder: d.Placeholder,
			Message: "invalid date layout", Cause: err,
		}
	}
	desc.Timestamp = ts
	return desc, nil
}

// assemble interleaves escaped literal text with one group per field.
func assemble(pattern, prepared string, fields []Descriptor) (string, error) {
	var sb strings.Builder
	sb.WriteString("^(?:")
	last := 0
	for _, f := range fields {
		sb.WriteString(regexp.QuoteMeta(prepared[last:f.Begin]))
		frag, err := fragment(f)
		if err != nil {
			return "", &SyntaxError{Pattern: pattern, Offset: f.Begin, Placeholder: f.Placeholder, Message: err.Error()}
		}
		sb.WriteString(frag)
		last = f.End()
	}
	sb.WriteString(regexp.QuoteMeta(prepared[last:]))
	sb.WriteString(")$")
	return sb.String(), nil
}

// fragment returns the capture group for one field.
func fragment(f Descriptor) (string, error) {
	hint, err := widthHint(f.MinWidth, f.MaxWidth)
	if err != nil {
		return "", err
	}
	lazy := ""
	if f.FollowedByLiteral {
		lazy = "?"
	}
	// A width hint replaces the open-ended repetition.
	repeat := "*"
	if hint != "" {
		repeat = hint
	}

	switch {
	case f.Type == Date:
		return "(" + f.Timestamp.Regex + ")", nil
	case f.Type == Level:
		if hint != "" {
			return "([ A-Z]" + hint + ")", nil
		}
		return "([A-Z]{4,5})", nil
	case f.Type.Multiline():
		return "((?s:." + repeat + lazy + "))", nil
	case f.Type.FreeText():
		return "(." + repeat + lazy + ")", nil
	case f.Type.Numeric():
		return "([0-9]" + repeat + ")", nil
	}
	return "", fmt.Errorf("unsupported placeholder")
}

// widthHint renders min/max widths as a repetition suffix.
func widthHint(minW, maxW int) (string, error) {
	if minW > maxWidth || maxW > maxWidth {
		return "", fmt.Errorf("width exceeds %d", maxWidth)
	}
	switch {
	case minW > 0 && minW == maxW:
		return fmt.Sprintf("{%d}", minW), nil
	case maxW > 0:
		if minW > maxW {
			return "", fmt.Errorf("minimum width %d exceeds maximum width %d", minW, maxW)
		}
		return fmt.Sprintf("{%d,%d}", max(0, minW), maxW), nil
	case minW > 0:
		return fmt.Sprintf("{%d,}", minW), nil
	}
	return "", nil
}
