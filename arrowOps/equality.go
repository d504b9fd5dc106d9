package arrowops

import (
	"slices"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
)

// RecordsEqual compares the named fields of two records, or every field
// of rec1 when no names are given.
func RecordsEqual(rec1, rec2 arrow.Record, fields ...string) bool {
	if rec1.NumRows() != rec2.NumRows() {
		return false
	}
	for i := 0; i < int(rec1.NumCols()); i++ {
		columnName := rec1.ColumnName(i)
		if len(fields) > 0 && !slices.Contains(fields, columnName) {
			continue
		}
		colIndices := rec2.Schema().FieldIndices(columnName)
		if len(colIndices) != 1 {
			return false
		}
		if !array.Equal(rec1.Column(i), rec2.Column(colIndices[0])) {
			return false
		}
	}
	return true
}
