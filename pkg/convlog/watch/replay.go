package watch

import (
	"slices"
	"strings"

	"github.com/convlog/convlog-go/internal/safefile"
)

const replayChunkSize = 4096

// replayLimits bound the memory used by readLastNLines. Zero means no
// limit.
type replayLimits struct {
	maxBytes     int
	maxLineBytes int
}

// readLastNLines returns the last n non-empty lines of path, oldest
// first, reading the file backwards in chunks.
func readLastNLines(path string, n int, lim replayLimits) ([]string, error) {
	f, info, err := safefile.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if info.Size() == 0 || n <= 0 {
		return nil, nil
	}

	var (
		newest []string // newest first
		carry  []byte   // partial line at the start of the last chunk
		read   int
	)
	offset := info.Size()
	for len(newest) < n && offset > 0 {
		size := min(int64(replayChunkSize), offset)
		offset -= size

		if lim.maxBytes > 0 && read+int(size) > lim.maxBytes {
			return nil, ErrReplayLimitExceeded
		}
		buf := make([]byte, int(size)+len(carry))
		if _, err := f.ReadAt(buf[:size], offset); err != nil {
			return nil, err
		}
		copy(buf[size:], carry)
		read += int(size)

		lines, rest, err := extractLinesBackward(buf, n-len(newest), lim.maxLineBytes)
		if err != nil {
			return nil, err
		}
		newest = append(newest, lines...)
		carry = rest
	}

	// The first line of the file has no newline before it.
	if offset == 0 && len(newest) < n {
		if line := strings.TrimSuffix(string(carry), "\r"); line != "" {
			newest = append(newest, line)
		}
	}

	slices.Reverse(newest)
	return newest, nil
}

// extractLinesBackward collects up to maxLines complete non-empty lines of
// buf, newest first. The bytes before the first newline are returned as
// the carry: they belong to a line that starts in an earlier chunk.
// A line or carry longer than maxLineBytes fails with
// ErrReplayLimitExceeded.
func extractLinesBackward(buf []byte, maxLines, maxLineBytes int) ([]string, []byte, error) {
	var lines []string
	end := len(buf)
	for i := len(buf) - 1; i >= 0 && len(lines) < maxLines; i-- {
		if buf[i] != '\n' {
			continue
		}
		if maxLineBytes > 0 && end-(i+1) > maxLineBytes {
			return nil, nil, ErrReplayLimitExceeded
		}
		if line := strings.TrimSuffix(string(buf[i+1:end]), "\r"); line != "" {
			lines = append(lines, line)
		}
		end = i
	}

	carry := buf[:end]
	if len(lines) < maxLines && maxLineBytes > 0 && len(carry) > maxLineBytes {
		return nil, nil, ErrReplayLimitExceeded
	}
	return lines, carry, nil
}
