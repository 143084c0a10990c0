package data

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrUnsupportedYear   = errors.New("unsupported year")
	ErrOffline           = errors.New("file not available offline")
	ErrInvalidIdentifier = errors.New("invalid table name")
)

// DataLoadError reports that a year's data could not be fetched or parsed.
// It is the only hard failure of the dashboard and is shown to the user
// as-is; the request is not retried.
type DataLoadError struct {
	Year   string
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to load EJI data for %s: %v", e.Year, e.Err)
	}
	return fmt.Sprintf("failed to load EJI data for %s from %s: %v", e.Year, e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}
