package convlog

import "strings"

// parseInlineMap decodes "k1=v1, k2=v2" found in line[start:end]. Spaces
// before a key are skipped; a value runs to the next comma or the end of
// the span. A key without '=' takes the rest of the span and gets an
// empty value. Later duplicates overwrite earlier ones.
func parseInlineMap(line string, start, end int) map[string]Entity {
	var out map[string]Entity
	pos := start
	for pos < end {
		for pos < end && line[pos] == ' ' {
			pos++
		}
		if pos >= end {
			break
		}

		keyEnd := end
		if i := strings.IndexByte(line[pos:end], '='); i >= 0 {
			keyEnd = pos + i
		}
		key := line[pos:keyEnd]

		valStart := min(keyEnd+1, end)
		valEnd := end
		if i := strings.IndexByte(line[valStart:end], ','); i >= 0 {
			valEnd = valStart + i
		}

		if out == nil {
			out = make(map[string]Entity)
		}
		out[key] = Entity{Value: line[valStart:valEnd], Start: valStart, End: valEnd}
		pos = valEnd + 1
	}
	return out
}

// enclosed reports whether line[start:end] is wrapped in left and right.
func enclosed(line string, start, end int, left, right byte) bool {
	return end-start >= 2 && line[start] == left && line[end-1] == right
}
