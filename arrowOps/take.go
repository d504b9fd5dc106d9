package arrowops

import (
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func TakeRecord(mem *memory.GoAllocator, record arrow.Record, indices *array.Uint32) (arrow.Record, error) {
	record.Retain()
	defer record.Release()

	takenFields := make([]arrow.Array, record.NumCols())
	for i := 0; i < int(record.NumCols()); i++ {
		takenRows, err := TakeArray(mem, record.Column(i), indices)
		if err != nil {
			for _, field := range takenFields[:i] {
				field.Release()
			}
			return nil, err
		}
		takenFields[i] = takenRows
	}
	taken := array.NewRecord(record.Schema(), takenFields, int64(indices.Len()))
	for _, field := range takenFields {
		field.Release()
	}
	return taken, nil
}

// TakeArray builds a new array holding the rows at the given indices.
// Null entries stay null in the result.
func TakeArray(mem *memory.GoAllocator, arr arrow.Array, indices *array.Uint32) (arrow.Array, error) {
	switch arr.DataType().ID() {
	case arrow.BOOL:
		return takeBoolArray(mem, arr.(*array.Boolean), indices), nil
	case arrow.INT32:
		return takeInt32Array(mem, arr.(*array.Int32), indices), nil
	case arrow.INT64:
		return takeInt64Array(mem, arr.(*array.Int64), indices), nil
	case arrow.FLOAT64:
		return takeFloat64Array(mem, arr.(*array.Float64), indices), nil
	case arrow.STRING:
		return takeStringArray(mem, arr.(*array.String), indices), nil
	case arrow.TIMESTAMP:
		return takeTimestampArray(mem, arr.(*array.Timestamp), indices), nil
	default:
		return nil, ErrUnsupportedDataType
	}
}

func takeBoolArray(mem *memory.GoAllocator, arr *array.Boolean, indices *array.Uint32) *array.Boolean {
	b := array.NewBooleanBuilder(mem)
	defer b.Release()
	b.Reserve(indices.Len())
	for i := 0; i < indices.Len(); i++ {
		idx := int(indices.Value(i))
		if arr.IsNull(idx) {
			b.AppendNull()
			continue
		}
		b.Append(arr.Value(idx))
	}
	return b.NewBooleanArray()
}

func takeInt32Array(mem *memory.GoAllocator, arr *array.Int32, indices *array.Uint32) *array.Int32 {
	b := array.NewInt32Builder(mem)
	defer b.Release()
	b.Reserve(indices.Len())
	for i := 0; i < indices.Len(); i++ {
		idx := int(indices.Value(i))
		if arr.IsNull(idx) {
			b.AppendNull()
			continue
		}
		b.Append(arr.Value(idx))
	}
	return b.NewInt32Array()
}

func takeInt64Array(mem *memory.GoAllocator, arr *array.Int64, indices *array.Uint32) *array.Int64 {
	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.Reserve(indices.Len())
	for i := 0; i < indices.Len(); i++ {
		idx := int(indices.Value(i))
		if arr.IsNull(idx) {
			b.AppendNull()
			continue
		}
		b.Append(arr.Value(idx))
	}
	return b.NewInt64Array()
}

func takeFloat64Array(mem *memory.GoAllocator, arr *array.Float64, indices *array.Uint32) *array.Float64 {
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.Reserve(indices.Len())
	for i := 0; i < indices.Len(); i++ {
		idx := int(indices.Value(i))
		if arr.IsNull(idx) {
			b.AppendNull()
			continue
		}
		b.Append(arr.Value(idx))
	}
	return b.NewFloat64Array()
}

func takeStringArray(mem *memory.GoAllocator, arr *array.String, indices *array.Uint32) *array.String {
	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.Reserve(indices.Len())
	for i := 0; i < indices.Len(); i++ {
		idx := int(indices.Value(i))
		if arr.IsNull(idx) {
			b.AppendNull()
			continue
		}
		b.Append(arr.Value(idx))
	}
	return b.NewStringArray()
}

func takeTimestampArray(mem *memory.GoAllocator, arr *array.Timestamp, indices *array.Uint32) *array.Timestamp {
	b := array.NewTimestampBuilder(mem, arr.DataType().(*arrow.TimestampType))
	defer b.Release()
	b.Reserve(indices.Len())
	for i := 0; i < indices.Len(); i++ {
		idx := int(indices.Value(i))
		if arr.IsNull(idx) {
			b.AppendNull()
			continue
		}
		b.Append(arr.Value(idx))
	}
	return b.NewTimestampArray()
}
