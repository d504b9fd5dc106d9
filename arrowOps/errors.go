package arrowops

import "errors"

var (
	ErrUnsupportedDataType = errors.New("unsupported data type")
	ErrSchemasNotEqual     = errors.New("schemas not equal")
	ErrNoDataLeft          = errors.New("no data left")
	ErrMaskLengthMismatch  = errors.New("mask length does not match record rows")
)
