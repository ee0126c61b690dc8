package dataset

import (
	"fmt"

	"exoseeker/internal/label"
)

// DataLoadError reports a mission dataset that is missing or unreadable.
// It is fatal at startup: the registry cannot serve without every mission.
type DataLoadError struct {
	Mission string
	Path    string
	Err     error
}

func (e *DataLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load dataset %s: %v", e.Mission, e.Err)
	}
	return fmt.Sprintf("load dataset %s from %s: %v", e.Mission, e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// InsufficientDataError reports a class with no rows, which makes undersampling meaningless.
type InsufficientDataError struct {
	Mission string
	Label   label.Label
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("dataset %s has no rows labelled %s; cannot balance", e.Mission, e.Label)
}
