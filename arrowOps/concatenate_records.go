package arrowops

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func ConcatenateRecords(mem *memory.GoAllocator, records ...arrow.Record) (arrow.Record, error) {
	for _, record := range records {
		record.Retain()
	}
	defer func() {
		for _, record := range records {
			record.Release()
		}
	}()

	if len(records) == 0 {
		return nil, ErrNoDataLeft
	}
	schema := records[0].Schema()
	for _, record := range records {
		if !schema.Equal(record.Schema()) {
			return nil, ErrSchemasNotEqual
		}
	}

	// group the columns of the same index together so they can
	// be concatenated in one pass per field
	fields := make([][]arrow.Array, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		fields[i] = make([]arrow.Array, len(records))
	}
	for recordIdx, record := range records {
		for i := 0; i < schema.NumFields(); i++ {
			fields[i][recordIdx] = record.Column(i)
		}
	}

	concatenatedFields := make([]arrow.Array, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		concatenatedField, err := array.Concatenate(fields[i], mem)
		if err != nil {
			return nil, err
		}
		concatenatedFields[i] = concatenatedField
	}

	var numRows int64
	for _, record := range records {
		numRows += record.NumRows()
	}
	return array.NewRecord(schema, concatenatedFields, numRows), nil
}
