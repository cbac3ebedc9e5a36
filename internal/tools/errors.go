package tools

import "fmt"

// PathError wraps a domain error with the absolute path it concerns, so the
// dispatch layer can build the distinguished file-outdated / file-unreadable
// history items spec §3 requires without string-parsing the error text.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *PathError) Unwrap() error { return e.Err }

// outdated wraps err (expected to be filetracker.ErrFileOutdated) with path.
func outdated(path string, err error) error { return &PathError{Path: path, Err: err} }

// unreadable wraps a post-success read failure with path.
func unreadable(path string, err error) error { return &PathError{Path: path, Err: err} }
