package layout

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/convlog/convlog-go/internal/safefile"
	"github.com/convlog/convlog-go/pkg/convlog"
)

const (
	// MaxFileSize is the maximum size of a layout file (1MB).
	MaxFileSize = 1 * 1024 * 1024

	// MaxPatternLength is the maximum length of one conversion pattern.
	MaxPatternLength = 2048

	// MaxLayoutCount is the maximum number of layouts in a file.
	MaxLayoutCount = 1000

	// SupportedVersion is the supported layout file format version.
	SupportedVersion = 1
)

// Load reads and validates a layout file. Symlinks, FIFOs, devices and
// other special files are rejected, as are empty files and files larger
// than MaxFileSize.
//
//	lf, err := layout.Load("layouts.yaml")
//	if err != nil {
//	    log.Fatalf("failed to load layout file: %v", err)
//	}
func Load(path string) (*File, error) {
	data, err := safefile.ReadFile(path, MaxFileSize)
	if err != nil {
		switch {
		case errors.Is(err, safefile.ErrEmpty):
			return nil, errors.New("layout file is empty")
		case errors.Is(err, safefile.ErrNotRegularFile):
			return nil, errors.New("layout file must be a regular file (not a symlink, FIFO, device, or special file)")
		case errors.Is(err, safefile.ErrTooLarge):
			return nil, fmt.Errorf("layout %w", err)
		}
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses and validates a layout file held in memory.
func LoadBytes(data []byte) (*File, error) {
	if len(data) == 0 {
		return nil, errors.New("layout file is empty")
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("layout file too large: %d bytes (max %d)", len(data), MaxFileSize)
	}

	var lf File
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := lf.Validate(); err != nil {
		return nil, err
	}
	return &lf, nil
}

// Validate checks the version, the mode, the layout count, required
// fields, id uniqueness, pattern length and time zones.
//
// Patterns are not compiled here; NewChain reports syntax errors.
func (lf *File) Validate() error {
	if lf.Version != SupportedVersion {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (only version %d is supported)", lf.Version, SupportedVersion),
		}
	}
	if _, err := lf.ChainMode(); err != nil {
		return &ValidationError{Field: "mode", Message: err.Error()}
	}
	if len(lf.Layouts) == 0 {
		return &ValidationError{
			Field:   "layouts",
			Message: "at least one layout is required",
		}
	}
	if len(lf.Layouts) > MaxLayoutCount {
		return &ValidationError{
			Field:   "layouts",
			Message: fmt.Sprintf("too many layouts (%d), maximum allowed is %d", len(lf.Layouts), MaxLayoutCount),
		}
	}

	seenIDs := make(map[string]int, len(lf.Layouts))
	for i, l := range lf.Layouts {
		if l.ID == "" {
			return &LayoutError{Index: i, Field: "id", Message: "id is required"}
		}
		if l.Pattern == "" {
			return &LayoutError{Index: i, ID: l.ID, Field: "pattern", Message: "pattern is required"}
		}
		if prev, ok := seenIDs[l.ID]; ok {
			return &LayoutError{
				Index:   i,
				ID:      l.ID,
				Field:   "id",
				Message: fmt.Sprintf("duplicate id (previously defined at layout[%d])", prev),
			}
		}
		seenIDs[l.ID] = i

		if len(l.Pattern) > MaxPatternLength {
			return &LayoutError{
				Index:   i,
				ID:      l.ID,
				Field:   "pattern",
				Message: fmt.Sprintf("pattern too long: %d bytes (max %d)", len(l.Pattern), MaxPatternLength),
			}
		}
		if l.Timezone != "" {
			if _, err := convlog.LoadZone(l.Timezone); err != nil {
				return &LayoutError{
					Index:   i,
					ID:      l.ID,
					Field:   "timezone",
					Message: fmt.Sprintf("unknown time zone %q", l.Timezone),
					Cause:   err,
				}
			}
		}
	}
	return nil
}
