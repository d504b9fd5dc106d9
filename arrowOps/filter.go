package arrowops

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// FilterRecord keeps the rows where the mask is true. A null mask entry
// drops the row, the same as false.
func FilterRecord(mem *memory.GoAllocator, record arrow.Record, mask *array.Boolean) (arrow.Record, error) {
	if mask.Len() != int(record.NumRows()) {
		return nil, ErrMaskLengthMismatch
	}

	indicesBldr := array.NewUint32Builder(mem)
	defer indicesBldr.Release()
	for i := 0; i < mask.Len(); i++ {
		if mask.IsNull(i) || !mask.Value(i) {
			continue
		}
		indicesBldr.Append(uint32(i))
	}

	indices := indicesBldr.NewUint32Array()
	defer indices.Release()

	return TakeRecord(mem, record, indices)
}
