package index

import "errors"

var (
	// ErrDimensionMismatch indicates vectors of differing widths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
