package apperrors

import "errors"

var (
	// ErrConnection indicates the datasource could not be reached or the
	// session died. Always fatal for the run.
	ErrConnection = errors.New("datasource connection failed")

	// ErrConfiguration indicates invalid configuration detected before any
	// datasource I/O. Always fatal.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrMetadata indicates a table's metadata could not be read. The table
	// is skipped and the run continues.
	ErrMetadata = errors.New("table metadata unavailable")

	// ErrQuery indicates a statistics query for a single candidate pair
	// failed. The pair is dropped and the run continues.
	ErrQuery = errors.New("statistics query failed")
)
