package datefmt

import (
	"sort"
	"strings"
)

// textValue is one accepted spelling of a field value.
type textValue struct {
	text  string
	value int64
}

// textStyle selects which spellings of a text field are accepted.
type textStyle int

const (
	styleShort textStyle = iota
	styleFull
	styleNarrow
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Day names in ISO order, Monday is 1.
var dayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func monthTexts(style textStyle) []textValue {
	out := make([]textValue, 0, len(monthNames))
	for i, name := range monthNames {
		out = append(out, textValue{text: styled(name, style), value: int64(i + 1)})
	}
	return longestFirst(out)
}

func dayOfWeekTexts(style textStyle) []textValue {
	out := make([]textValue, 0, len(dayNames))
	for i, name := range dayNames {
		out = append(out, textValue{text: styled(name, style), value: int64(i + 1)})
	}
	return longestFirst(out)
}

func eraTexts(style textStyle) []textValue {
	switch style {
	case styleFull:
		return longestFirst([]textValue{{"Before Christ", 0}, {"Anno Domini", 1}})
	case styleNarrow:
		return []textValue{{"B", 0}, {"A", 1}}
	default:
		return []textValue{{"BC", 0}, {"AD", 1}}
	}
}

var ampmTexts = []textValue{{"AM", 0}, {"PM", 1}}

func styled(name string, style textStyle) string {
	switch style {
	case styleFull:
		return name
	case styleNarrow:
		return name[:1]
	default:
		return name[:3]
	}
}

// longestFirst orders spellings so a longer name is tried before any
// name that is its prefix.
func longestFirst(values []textValue) []textValue {
	sort.SliceStable(values, func(i, j int) bool {
		return len(values[i].text) > len(values[j].text)
	})
	return values
}

// matchText returns the first spelling that text starts with at pos.
func matchText(values []textValue, text string, pos int) (textValue, bool) {
	rest := text[pos:]
	for _, v := range values {
		if strings.HasPrefix(rest, v.text) {
			return v, true
		}
	}
	return textValue{}, false
}
