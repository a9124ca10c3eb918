// Package safefile opens layout files and log files without following
// them into FIFOs, devices or other special files.
package safefile

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Sentinel errors.
var (
	// ErrNotRegularFile is returned for symlinks (by OpenRegular), FIFOs,
	// devices, sockets and directories.
	ErrNotRegularFile = errors.New("not a regular file")
	ErrEmpty          = errors.New("file is empty")
	ErrTooLarge       = errors.New("file too large")
)

// OpenRegular opens path after checking, without following symlinks, that
// it names a regular file. The open descriptor is checked again so a file
// swapped between the two steps is still rejected.
//
// The caller must close the returned file.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}
	return open(path)
}

// Open opens path, following symlinks, and checks that the descriptor is
// a regular file. Log files are commonly symlinked by rotation tools, so
// inputs use Open and configuration uses OpenRegular.
func Open(path string) (*os.File, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}
	return open(path)
}

func open(path string) (*os.File, os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}
	return f, info, nil
}

// ReadFile reads a regular, non-symlink file of at most limit bytes.
// Path errors are returned without the path.
func ReadFile(path string, limit int64) ([]byte, error) {
	f, info, err := OpenRegular(path)
	if err != nil {
		return nil, SanitizePathError(err)
	}
	defer f.Close()

	if info.Size() == 0 {
		return nil, ErrEmpty
	}
	if info.Size() > limit {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), limit)
	}

	// Read one byte past the limit to notice a file that grew after Stat.
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, SanitizePathError(err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), limit)
	}
	return data, nil
}

// SanitizePathError strips the path from an *os.PathError so error
// messages do not echo file system paths.
func SanitizePathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	return err
}
