package operations

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	arrowops "github.com/rdelcourt/ChequeDataPrep/arrowOps"
)

type ScanOptions struct {
	Delimiter rune
	BatchSize int
}

// ScanCSV reads a delimited file into a single record where every column
// is a string. The raw extracts mix number formats and re-embed header
// rows, so typing is deferred until after row level filtering; a typed
// reader would abort on the first dirty cell.
func ScanCSV(mem *memory.GoAllocator, filePath string, options ScanOptions) (arrow.Record, error) {
	if options.BatchSize <= 0 {
		options.BatchSize = 8192
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("unable to open %s", filePath))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = options.Delimiter
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errs.NewStackError(fmt.Errorf("%w| %s", ErrEmptyFile, filePath))
	} else if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("unable to read header of %s", filePath))
	}

	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	recBldr := array.NewRecordBuilder(mem, schema)
	defer recBldr.Release()

	records := make([]arrow.Record, 0)
	defer func() {
		for _, record := range records {
			record.Release()
		}
	}()

	rowsInBatch := 0
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errs.Wrap(err, fmt.Errorf("%w| row %d of %s", ErrRaggedRow, rowNum, filePath))
		}
		if len(row) != len(header) {
			return nil, errs.NewStackError(fmt.Errorf(
				"%w| row %d has %d fields, header has %d", ErrRaggedRow, rowNum, len(row), len(header),
			))
		}

		for i, value := range row {
			recBldr.Field(i).(*array.StringBuilder).Append(value)
		}
		rowsInBatch++
		rowNum++

		if rowsInBatch == options.BatchSize {
			records = append(records, recBldr.NewRecord())
			rowsInBatch = 0
		}
	}
	if rowsInBatch > 0 || len(records) == 0 {
		records = append(records, recBldr.NewRecord())
	}

	record, err := arrowops.ConcatenateRecords(mem, records...)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("unable to combine scanned batches of %s", filePath))
	}

	return record, nil
}
