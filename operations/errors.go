package operations

import "errors"

var (
	ErrColumnNotFound                       = errors.New("column not found")
	ErrMalformedCell                        = errors.New("malformed cell")
	ErrRaggedRow                            = errors.New("row has wrong number of fields")
	ErrEmptyFile                            = errors.New("file has no header row")
	ErrUnknownCastPolicy                    = errors.New("unknown cast policy")
	ErrUnsupportedArrowToAvroTypeConversion = errors.New("unsupported arrow to avro type conversion")
)
