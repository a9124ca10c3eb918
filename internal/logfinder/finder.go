// Package logfinder locates the log files a command should read: files
// named on the command line, the files inside a directory, and the
// newest file of a log directory.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// EnvLogDir is the environment variable naming the default log directory.
const EnvLogDir = "CONVLOG_LOGDIR"

// DefaultGlob selects log files inside a directory.
const DefaultGlob = "*.log"

// Sentinel errors.
var (
	ErrLogDirNotFound = errors.New("log directory not found")
	ErrNoLogFiles     = errors.New("no log files found")
)

// FindLogDir returns the log directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. CONVLOG_LOGDIR environment variable
//
// Returns ErrLogDirNotFound if neither names a directory. The directory
// may be empty; the returned path has symlinks resolved.
func FindLogDir(explicit string) (string, error) {
	if explicit != "" {
		return ResolveDir(explicit)
	}

	if envDir := os.Getenv(EnvLogDir); envDir != "" {
		resolved, err := ResolveDir(envDir)
		if err != nil {
			return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogDirNotFound, EnvLogDir)
		}
		return resolved, nil
	}

	return "", ErrLogDirNotFound
}

// logCandidate holds a log file path and its cached modification time.
// This avoids race conditions where files are deleted between stat and sort.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLogFiles returns the regular files in dir matching glob, newest
// first. The glob is relative to dir and may use ** to descend into
// subdirectories. Returns ErrNoLogFiles if there are none.
func FindLogFiles(dir, glob string) ([]string, error) {
	if glob == "" {
		glob = DefaultGlob
	}
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("globbing log files: %w", doublestar.ErrBadPattern)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), glob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("globbing log files: %w", err)
	}

	candidates := make([]logCandidate, 0, len(matches))
	for _, rel := range matches {
		m := filepath.Join(dir, filepath.FromSlash(rel))
		// Stat follows symlinks; rotated logs are often linked.
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, logCandidate{
			path:    m,
			modTime: info.ModTime().UnixNano(),
		})
	}
	if len(candidates) == 0 {
		return nil, ErrNoLogFiles
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.path
	}
	return paths, nil
}

// FindLatestLogFile returns the most recently modified file in dir
// matching glob.
func FindLatestLogFile(dir, glob string) (string, error) {
	paths, err := FindLogFiles(dir, glob)
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// Expand replaces every directory in args by its log files, newest first.
// Other arguments are kept as given, in order.
func Expand(args []string, glob string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			out = append(out, arg)
			continue
		}
		files, err := FindLogFiles(arg, glob)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		out = append(out, files...)
	}
	return out, nil
}

// ResolveDir returns dir with symlinks resolved. It fails with
// ErrLogDirNotFound when dir does not name a directory. The directory may
// be empty.
func ResolveDir(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrLogDirNotFound, dir)
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrLogDirNotFound, dir)
	}
	return resolved, nil
}
