package arrowops

import (
	"errors"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func mockTransactionRecord(mem *memory.GoAllocator) arrow.Record {
	recBldr := array.NewRecordBuilder(mem, arrow.NewSchema(
		[]arrow.Field{
			{Name: "Montant", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			{Name: "FlagImpaye", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
			{Name: "CodePostal", Type: arrow.BinaryTypes.String, Nullable: true},
		},
		nil,
	))
	defer recBldr.Release()

	recBldr.Field(0).(*array.Float64Builder).AppendValues([]float64{10.5, 20.0, 0, 40.25}, []bool{true, true, false, true})
	recBldr.Field(1).(*array.Int64Builder).AppendValues([]int64{0, 1, 0, 1}, nil)
	recBldr.Field(2).(*array.StringBuilder).AppendValues([]string{"75001", "69002", "13003", "31000"}, nil)
	return recBldr.NewRecord()
}

func TestFilterRecord(t *testing.T) {
	mem := memory.NewGoAllocator()

	record := mockTransactionRecord(mem)
	defer record.Release()

	maskBldr := array.NewBooleanBuilder(mem)
	defer maskBldr.Release()
	maskBldr.AppendValues([]bool{true, false, true, false}, []bool{true, true, true, false})
	mask := maskBldr.NewBooleanArray()
	defer mask.Release()

	filtered, err := FilterRecord(mem, record, mask)
	if err != nil {
		t.Fatalf("FilterRecord failed: %v", err)
	}
	defer filtered.Release()

	if filtered.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", filtered.NumRows())
	}

	montant := filtered.Column(0).(*array.Float64)
	if montant.Value(0) != 10.5 {
		t.Errorf("expected 10.5, got %f", montant.Value(0))
	}
	// the row kept through a null float cell stays null
	if !montant.IsNull(1) {
		t.Errorf("expected null Montant in second row")
	}

	codePostal := filtered.Column(2).(*array.String)
	if codePostal.Value(1) != "13003" {
		t.Errorf("expected 13003, got %s", codePostal.Value(1))
	}
}

func TestFilterRecordMaskLengthMismatch(t *testing.T) {
	mem := memory.NewGoAllocator()

	record := mockTransactionRecord(mem)
	defer record.Release()

	maskBldr := array.NewBooleanBuilder(mem)
	defer maskBldr.Release()
	maskBldr.AppendValues([]bool{true}, nil)
	mask := maskBldr.NewBooleanArray()
	defer mask.Release()

	_, err := FilterRecord(mem, record, mask)
	if !errors.Is(err, ErrMaskLengthMismatch) {
		t.Fatalf("expected ErrMaskLengthMismatch, got %v", err)
	}
}

func TestConcatenateRecords(t *testing.T) {
	mem := memory.NewGoAllocator()

	rec1 := mockTransactionRecord(mem)
	rec2 := mockTransactionRecord(mem)

	combined, err := ConcatenateRecords(mem, rec1, rec2)
	if err != nil {
		t.Fatalf("ConcatenateRecords failed: %v", err)
	}
	defer combined.Release()

	if combined.NumRows() != 8 {
		t.Fatalf("expected 8 rows, got %d", combined.NumRows())
	}
}
