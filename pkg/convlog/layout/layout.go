// Package layout loads named conversion patterns from YAML files and
// compiles them into a parser chain.
package layout

import "github.com/convlog/convlog-go/pkg/convlog"

// File is the structure of a YAML layout file.
//
// Example YAML file:
//
//	version: 1
//	mode: first
//	layouts:
//	  - id: app
//	    pattern: "%d{ISO8601} [%t] %-5p %c - %m%n"
//	    timezone: America/Los_Angeles
//	  - id: access
//	    pattern: "%d{dd MMM yyyy HH:mm:ss,SSS} %X{client} %m%n"
type File struct {
	// Version is the file format version. Only version 1 is supported.
	Version int `yaml:"version"`

	// Mode selects how the layouts are tried: "first" (default), "all" or
	// "continue-on-error".
	Mode string `yaml:"mode,omitempty"`

	// Layouts are tried in file order.
	Layouts []Layout `yaml:"layouts"`
}

// DefaultMode is the chain mode of a file that does not set one.
const DefaultMode = "first"

// ChainMode returns the mode the file's layouts are tried in.
func (lf *File) ChainMode() (convlog.ChainMode, error) {
	if lf.Mode == "" {
		return convlog.ParseChainMode(DefaultMode)
	}
	return convlog.ParseChainMode(lf.Mode)
}

// Layout is one named conversion pattern.
type Layout struct {
	// ID names the layout. It is copied to Event.Layout and must be unique
	// within the file.
	ID string `yaml:"id"`

	// Pattern is the conversion pattern, e.g. "%d %-5p [%c] %m%n".
	Pattern string `yaml:"pattern"`

	// Timezone applies to timestamps that carry no zone of their own.
	// It accepts a region id, an abbreviation or an offset. Empty keeps
	// the default zone of the chain.
	Timezone string `yaml:"timezone,omitempty"`
}
