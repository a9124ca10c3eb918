package datefmt

import (
	"regexp"
	"strings"
)

// spanKind tags a piece of a date layout during regex translation.
type spanKind int

const (
	// pendingSpan is raw layout text that rewrite rules may still match.
	pendingSpan spanKind = iota
	// literalSpan is quoted layout text; it is emitted escaped and never rewritten.
	literalSpan
	// regexSpan is the output of a rewrite rule and is emitted verbatim.
	regexSpan
)

type span struct {
	kind spanKind
	text string
}

// rewriteRule replaces every run matching re inside pending spans.
type rewriteRule struct {
	re          *regexp.Regexp
	replacement string
}

func rule(expr, replacement string) rewriteRule {
	return rewriteRule{re: regexp.MustCompile(expr), replacement: replacement}
}

// Order matters: longer runs of a letter are rewritten before shorter ones,
// and rewritten text is never visited again.
var rewriteRules = []rewriteRule{
	// pad modifiers
	rule(`p{3,}`, `\s+`),
	rule(`p{1,2}`, `\s?`),
	// era
	rule(`G+`, `[ADBC]{2}`),
	// year and proleptic year
	rule(`y{3,}`, `\d{4}`),
	rule(`y{2}`, `\d{2}`),
	rule(`y`, `\d{4}`),
	rule(`u{3,}`, `\d{4}`),
	rule(`u{2}`, `\d{2}`),
	rule(`u`, `\d{4}`),
	// month
	rule(`M{3,}`, `[a-zA-Z]*`),
	rule(`M{2}`, `\d{2}`),
	rule(`M`, `\d{1,2}`),
	// week in year, week in month
	rule(`w+`, `\d{1,2}`),
	rule(`W+`, `\d`),
	// day in year, day in month, day of week in month, day name
	rule(`D+`, `\d{1,3}`),
	rule(`d+`, `\d{1,2}`),
	rule(`F+`, `\d`),
	rule(`E+`, `[a-zA-Z]*`),
	// am/pm and hours
	rule(`a+`, `[AMPM]{2}`),
	rule(`H+`, `\d{1,2}`),
	rule(`k+`, `\d{1,2}`),
	rule(`K+`, `\d{1,2}`),
	rule(`h+`, `\d{1,2}`),
	// minute, second, fraction, nanosecond
	rule(`m+`, `\d{1,2}`),
	rule(`s+`, `\d{1,2}`),
	rule(`S+`, `\d{1,6}`),
	rule(`n+`, `\d{1,9}`),
	// zones
	rule(`V+`, `[a-zA-Z+\-0-9_/]+`),
	rule(`z+`, `[a-zA-Z\-+:0-9]*`),
	rule(`Z+`, `[-+]\d{4}`),
	rule(`X+`, `(?:Z|[-+]\d{2}(?::?\d{2})?)`),
	rule(`x+`, `[-+]\d{2}(?::?\d{2})?`),
}

// ToRegex converts a date layout such as "yyyy-MM-dd HH:mm:ss" into a
// regular expression fragment matching text produced by that layout.
// The fragment contains no capturing groups.
func ToRegex(layout string) string {
	spans := unquote(layout)
	for _, r := range rewriteRules {
		spans = r.apply(spans)
	}

	var sb strings.Builder
	for _, s := range spans {
		if s.kind == regexSpan {
			sb.WriteString(s.text)
		} else {
			sb.WriteString(regexp.QuoteMeta(s.text))
		}
	}
	return sb.String()
}

func (r rewriteRule) apply(spans []span) []span {
	out := make([]span, 0, len(spans))
	for _, s := range spans {
		if s.kind != pendingSpan {
			out = append(out, s)
			continue
		}
		locs := r.re.FindAllStringIndex(s.text, -1)
		if locs == nil {
			out = append(out, s)
			continue
		}
		prev := 0
		for _, loc := range locs {
			if loc[0] > prev {
				out = append(out, span{kind: pendingSpan, text: s.text[prev:loc[0]]})
			}
			out = append(out, span{kind: regexSpan, text: r.replacement})
			prev = loc[1]
		}
		if prev < len(s.text) {
			out = append(out, span{kind: pendingSpan, text: s.text[prev:]})
		}
	}
	return out
}

// unquote splits a layout into pending text and quoted literals.
// A quoted run yields its text without the quotes, and a doubled single
// quote yields one quote, both outside and inside a quoted run. An
// unterminated quote runs to the end.
func unquote(layout string) []span {
	var spans []span
	var pending strings.Builder

	flush := func() {
		if pending.Len() > 0 {
			spans = append(spans, span{kind: pendingSpan, text: pending.String()})
			pending.Reset()
		}
	}

	for i := 0; i < len(layout); {
		if layout[i] != '\'' {
			pending.WriteByte(layout[i])
			i++
			continue
		}
		flush()
		if i+1 < len(layout) && layout[i+1] == '\'' {
			spans = append(spans, span{kind: literalSpan, text: "'"})
			i += 2
			continue
		}
		var lit strings.Builder
		j := i + 1
		for j < len(layout) {
			if layout[j] == '\'' {
				if j+1 < len(layout) && layout[j+1] == '\'' {
					lit.WriteByte('\'')
					j += 2
					continue
				}
				break
			}
			lit.WriteByte(layout[j])
			j++
		}
		if lit.Len() > 0 {
			spans = append(spans, span{kind: literalSpan, text: lit.String()})
		}
		i = j + 1
	}
	flush()
	return spans
}
