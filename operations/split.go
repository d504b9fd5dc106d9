package operations

import (
	"fmt"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	arrowops "github.com/rdelcourt/ChequeDataPrep/arrowOps"
)

// SplitByTimestamp partitions the record at the cutoff: strictly before
// goes to train, on or after goes to test. No shuffling, the split is
// purely temporal. A row with a null timestamp (lenient cast mode)
// satisfies neither comparison and lands in neither partition.
func SplitByTimestamp(
	mem *memory.GoAllocator, record arrow.Record, columnName string, cutoff time.Time,
) (arrow.Record, arrow.Record, error) {
	colIdx, err := columnIndex(record, columnName)
	if err != nil {
		return nil, nil, err
	}
	tsArr, ok := record.Column(colIdx).(*array.Timestamp)
	if !ok {
		return nil, nil, errs.NewStackError(fmt.Errorf(
			"%w| split column %s is not a timestamp column", ErrMalformedCell, columnName,
		))
	}

	cutoffTs := arrow.Timestamp(cutoff.Unix())

	trainMaskBldr := array.NewBooleanBuilder(mem)
	defer trainMaskBldr.Release()
	testMaskBldr := array.NewBooleanBuilder(mem)
	defer testMaskBldr.Release()
	trainMaskBldr.Reserve(tsArr.Len())
	testMaskBldr.Reserve(tsArr.Len())

	for i := 0; i < tsArr.Len(); i++ {
		if tsArr.IsNull(i) {
			trainMaskBldr.Append(false)
			testMaskBldr.Append(false)
			continue
		}
		value := tsArr.Value(i)
		trainMaskBldr.Append(value < cutoffTs)
		testMaskBldr.Append(value >= cutoffTs)
	}

	trainMask := trainMaskBldr.NewBooleanArray()
	defer trainMask.Release()
	testMask := testMaskBldr.NewBooleanArray()
	defer testMask.Release()

	train, err := arrowops.FilterRecord(mem, record, trainMask)
	if err != nil {
		return nil, nil, errs.Wrap(err, fmt.Errorf("unable to build train partition"))
	}
	test, err := arrowops.FilterRecord(mem, record, testMask)
	if err != nil {
		train.Release()
		return nil, nil, errs.Wrap(err, fmt.Errorf("unable to build test partition"))
	}

	return train, test, nil
}
