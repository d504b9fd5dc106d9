package operations

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// CastPolicy decides what happens when a cell fails to parse after
// cleanup. Strict aborts the run, lenient nulls the cell and reports
// the row so it can be quarantined.
type CastPolicy string

const (
	CastPolicyStrict  CastPolicy = "strict"
	CastPolicyLenient CastPolicy = "lenient"
)

func (obj CastPolicy) IsValid() error {
	switch obj {
	case CastPolicyStrict, CastPolicyLenient:
		return nil
	default:
		return errs.NewStackError(fmt.Errorf("%w| %q", ErrUnknownCastPolicy, string(obj)))
	}
}

// normalizeDecimal rewrites the French decimal comma; only the first
// comma is replaced, the same as the source extract convention.
func normalizeDecimal(value string) string {
	return strings.Replace(value, ",", ".", 1)
}

func castFloatColumn(
	mem *memory.GoAllocator, arr *array.String, columnName string, policy CastPolicy,
) (*array.Float64, []int, error) {
	bldr := array.NewFloat64Builder(mem)
	defer bldr.Release()
	bldr.Reserve(arr.Len())

	var rejected []int
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			bldr.AppendNull()
			continue
		}
		raw := strings.TrimSpace(arr.Value(i))
		value, err := strconv.ParseFloat(normalizeDecimal(raw), 64)
		if err != nil {
			if policy == CastPolicyStrict {
				return nil, nil, errs.NewStackError(fmt.Errorf(
					"%w| column %s row %d: %q is not a float", ErrMalformedCell, columnName, i, raw,
				))
			}
			bldr.AppendNull()
			rejected = append(rejected, i)
			continue
		}
		bldr.Append(value)
	}
	return bldr.NewFloat64Array(), rejected, nil
}

func castIntColumn(
	mem *memory.GoAllocator, arr *array.String, columnName string, policy CastPolicy,
) (*array.Int64, []int, error) {
	bldr := array.NewInt64Builder(mem)
	defer bldr.Release()
	bldr.Reserve(arr.Len())

	var rejected []int
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			bldr.AppendNull()
			continue
		}
		raw := strings.TrimSpace(arr.Value(i))
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			if policy == CastPolicyStrict {
				return nil, nil, errs.NewStackError(fmt.Errorf(
					"%w| column %s row %d: %q is not an integer", ErrMalformedCell, columnName, i, raw,
				))
			}
			bldr.AppendNull()
			rejected = append(rejected, i)
			continue
		}
		bldr.Append(value)
	}
	return bldr.NewInt64Array(), rejected, nil
}

func parseTimestampColumn(
	mem *memory.GoAllocator, arr *array.String, columnName, layout string, policy CastPolicy,
) (*array.Timestamp, []int, error) {
	bldr := array.NewTimestampBuilder(mem, &arrow.TimestampType{Unit: arrow.Second})
	defer bldr.Release()
	bldr.Reserve(arr.Len())

	var rejected []int
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			bldr.AppendNull()
			continue
		}
		raw := strings.TrimSpace(arr.Value(i))
		// naive timestamps, no timezone conversion
		value, err := time.Parse(layout, raw)
		if err != nil {
			if policy == CastPolicyStrict {
				return nil, nil, errs.NewStackError(fmt.Errorf(
					"%w| column %s row %d: %q does not match layout %s", ErrMalformedCell, columnName, i, raw, layout,
				))
			}
			bldr.AppendNull()
			rejected = append(rejected, i)
			continue
		}
		bldr.Append(arrow.Timestamp(value.Unix()))
	}
	return bldr.NewTimestampArray(), rejected, nil
}
