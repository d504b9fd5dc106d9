package elements

import "errors"

var (
	ErrDatasetSchemaInvalid = errors.New("dataset schema invalid")
)
