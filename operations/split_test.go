package operations

import (
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func buildTimestampRecord(mem *memory.GoAllocator, times []string, valid []bool) arrow.Record {
	recBldr := array.NewRecordBuilder(mem, arrow.NewSchema(
		[]arrow.Field{
			{Name: "DateTransaction", Type: &arrow.TimestampType{Unit: arrow.Second}, Nullable: true},
			{Name: "Montant", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		},
		nil,
	))
	defer recBldr.Release()

	tsBldr := recBldr.Field(0).(*array.TimestampBuilder)
	montantBldr := recBldr.Field(1).(*array.Float64Builder)
	for i, value := range times {
		if valid != nil && !valid[i] {
			tsBldr.AppendNull()
		} else {
			parsed, err := time.Parse("2006-01-02 15:04:05", value)
			if err != nil {
				panic(err)
			}
			tsBldr.Append(arrow.Timestamp(parsed.Unix()))
		}
		montantBldr.Append(float64(i))
	}
	return recBldr.NewRecord()
}

func TestSplitByTimestamp(t *testing.T) {
	mem := memory.NewGoAllocator()
	cutoff := time.Date(2017, time.September, 1, 0, 0, 0, 0, time.UTC)

	record := buildTimestampRecord(mem, []string{
		"2017-08-31 23:59:59",
		"2017-09-01 00:00:00", // exactly at the cutoff goes to test
		"2017-07-15 12:00:00",
		"2017-10-01 08:30:00",
	}, nil)
	defer record.Release()

	train, test, err := SplitByTimestamp(mem, record, "DateTransaction", cutoff)
	if err != nil {
		t.Fatalf("SplitByTimestamp failed: %v", err)
	}
	defer train.Release()
	defer test.Release()

	if train.NumRows() != 2 {
		t.Fatalf("expected 2 train rows, got %d", train.NumRows())
	}
	if test.NumRows() != 2 {
		t.Fatalf("expected 2 test rows, got %d", test.NumRows())
	}
	if train.NumRows()+test.NumRows() != record.NumRows() {
		t.Fatalf("split dropped or duplicated rows")
	}

	cutoffTs := arrow.Timestamp(cutoff.Unix())
	trainTs := train.Column(0).(*array.Timestamp)
	for i := 0; i < trainTs.Len(); i++ {
		if trainTs.Value(i) >= cutoffTs {
			t.Errorf("train row %d is on or after the cutoff", i)
		}
	}
	testTs := test.Column(0).(*array.Timestamp)
	for i := 0; i < testTs.Len(); i++ {
		if testTs.Value(i) < cutoffTs {
			t.Errorf("test row %d is before the cutoff", i)
		}
	}
}

func TestSplitByTimestampNullLandsInNeither(t *testing.T) {
	mem := memory.NewGoAllocator()
	cutoff := time.Date(2017, time.September, 1, 0, 0, 0, 0, time.UTC)

	record := buildTimestampRecord(mem, []string{
		"2017-08-31 23:59:59",
		"",
		"2017-09-05 10:00:00",
	}, []bool{true, false, true})
	defer record.Release()

	train, test, err := SplitByTimestamp(mem, record, "DateTransaction", cutoff)
	if err != nil {
		t.Fatalf("SplitByTimestamp failed: %v", err)
	}
	defer train.Release()
	defer test.Release()

	if train.NumRows() != 1 || test.NumRows() != 1 {
		t.Fatalf("expected 1 train and 1 test row, got %d and %d", train.NumRows(), test.NumRows())
	}
}

func TestSplitByTimestampMissingColumn(t *testing.T) {
	mem := memory.NewGoAllocator()

	record := buildTimestampRecord(mem, []string{"2017-08-31 23:59:59"}, nil)
	defer record.Release()

	_, _, err := SplitByTimestamp(mem, record, "NoSuchColumn", time.Now())
	if err == nil {
		t.Fatalf("expected an error for a missing split column")
	}
}
