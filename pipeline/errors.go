package pipeline

import "errors"

var (
	ErrInputFileNotFound = errors.New("input file not found")
	ErrConfigInvalid     = errors.New("config invalid")
)
