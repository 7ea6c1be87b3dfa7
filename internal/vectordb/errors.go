package vectordb

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that no database exists at the given path. It is
// distinct from corruption: a directory with none of the database artifacts
// simply has no database.
var ErrNotFound = errors.New("vector database not found")

// EmptyIndexError reports a build in which no chunk embedded successfully.
type EmptyIndexError struct {
	Total  int
	Failed int
}

func (e *EmptyIndexError) Error() string {
	return fmt.Sprintf("no vectors indexed: all %d of %d chunks failed to embed", e.Failed, e.Total)
}

// CorruptDatabaseError reports a database directory whose artifacts are
// partial, unreadable, or mutually inconsistent.
type CorruptDatabaseError struct {
	Path   string
	Reason string
	Cause  error
}

func (e *CorruptDatabaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("corrupt vector database at %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("corrupt vector database at %s: %s", e.Path, e.Reason)
}

func (e *CorruptDatabaseError) Unwrap() error {
	return e.Cause
}

// DimensionMismatchError reports a vector whose dimension does not match the
// index.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension %d does not match index dimension %d", e.Actual, e.Expected)
}
