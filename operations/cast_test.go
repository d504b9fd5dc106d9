package operations

import (
	"errors"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func buildStringArray(mem *memory.GoAllocator, values []string) *array.String {
	bldr := array.NewStringBuilder(mem)
	defer bldr.Release()
	bldr.AppendValues(values, nil)
	return bldr.NewStringArray()
}

func TestCastFloatColumnCommaDecimal(t *testing.T) {
	mem := memory.NewGoAllocator()

	arr := buildStringArray(mem, []string{"1234,56", "100.50", "-3,25", "0"})
	defer arr.Release()

	castArr, rejected, err := castFloatColumn(mem, arr, "Montant", CastPolicyStrict)
	if err != nil {
		t.Fatalf("castFloatColumn failed: %v", err)
	}
	defer castArr.Release()

	if len(rejected) != 0 {
		t.Fatalf("expected no rejected rows, got %v", rejected)
	}
	expected := []float64{1234.56, 100.50, -3.25, 0}
	for i, exp := range expected {
		if castArr.Value(i) != exp {
			t.Errorf("row %d: expected %f, got %f", i, exp, castArr.Value(i))
		}
	}
}

func TestCastFloatColumnStrictFailsOnMalformedCell(t *testing.T) {
	mem := memory.NewGoAllocator()

	testCases := []struct {
		caseName string
		values   []string
	}{
		{caseName: "header-text", values: []string{"10,5", "Montant"}},
		{caseName: "empty-cell", values: []string{"10,5", ""}},
		{caseName: "double-comma", values: []string{"1,2,3"}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.caseName, func(t *testing.T) {
			arr := buildStringArray(mem, testCase.values)
			defer arr.Release()

			_, _, err := castFloatColumn(mem, arr, "Montant", CastPolicyStrict)
			if !errors.Is(err, ErrMalformedCell) {
				t.Fatalf("expected ErrMalformedCell, got %v", err)
			}
		})
	}
}

func TestCastFloatColumnLenientNullsMalformedCell(t *testing.T) {
	mem := memory.NewGoAllocator()

	arr := buildStringArray(mem, []string{"10,5", "Montant", "", "20,25"})
	defer arr.Release()

	castArr, rejected, err := castFloatColumn(mem, arr, "Montant", CastPolicyLenient)
	if err != nil {
		t.Fatalf("castFloatColumn failed: %v", err)
	}
	defer castArr.Release()

	if len(rejected) != 2 || rejected[0] != 1 || rejected[1] != 2 {
		t.Fatalf("expected rejected rows [1 2], got %v", rejected)
	}
	if !castArr.IsNull(1) || !castArr.IsNull(2) {
		t.Fatalf("expected rows 1 and 2 to be null")
	}
	if castArr.Value(0) != 10.5 || castArr.Value(3) != 20.25 {
		t.Fatalf("valid cells changed: %f %f", castArr.Value(0), castArr.Value(3))
	}
}

func TestCastIntColumn(t *testing.T) {
	mem := memory.NewGoAllocator()

	arr := buildStringArray(mem, []string{"0", "1", "-2", " 3 "})
	defer arr.Release()

	castArr, rejected, err := castIntColumn(mem, arr, "FlagImpaye", CastPolicyStrict)
	if err != nil {
		t.Fatalf("castIntColumn failed: %v", err)
	}
	defer castArr.Release()

	if len(rejected) != 0 {
		t.Fatalf("expected no rejected rows, got %v", rejected)
	}
	expected := []int64{0, 1, -2, 3}
	for i, exp := range expected {
		if castArr.Value(i) != exp {
			t.Errorf("row %d: expected %d, got %d", i, exp, castArr.Value(i))
		}
	}
}

func TestCastIntColumnStrictFailsOnFloatText(t *testing.T) {
	mem := memory.NewGoAllocator()

	arr := buildStringArray(mem, []string{"1", "2,5"})
	defer arr.Release()

	_, _, err := castIntColumn(mem, arr, "CodeDecision", CastPolicyStrict)
	if !errors.Is(err, ErrMalformedCell) {
		t.Fatalf("expected ErrMalformedCell, got %v", err)
	}
}

func TestParseTimestampColumn(t *testing.T) {
	mem := memory.NewGoAllocator()

	arr := buildStringArray(mem, []string{"2017-08-31 10:00:00", "2017-09-01 00:00:00"})
	defer arr.Release()

	tsArr, rejected, err := parseTimestampColumn(
		mem, arr, "DateTransaction", "2006-01-02 15:04:05", CastPolicyStrict,
	)
	if err != nil {
		t.Fatalf("parseTimestampColumn failed: %v", err)
	}
	defer tsArr.Release()

	if len(rejected) != 0 {
		t.Fatalf("expected no rejected rows, got %v", rejected)
	}
	if int64(tsArr.Value(1))-int64(tsArr.Value(0)) != 14*3600 {
		t.Fatalf("expected 14 hours between rows, got %d seconds", int64(tsArr.Value(1))-int64(tsArr.Value(0)))
	}
}

func TestParseTimestampColumnRejectsOtherLayout(t *testing.T) {
	mem := memory.NewGoAllocator()

	arr := buildStringArray(mem, []string{"31/08/2017 10:00"})
	defer arr.Release()

	_, _, err := parseTimestampColumn(
		mem, arr, "DateTransaction", "2006-01-02 15:04:05", CastPolicyStrict,
	)
	if !errors.Is(err, ErrMalformedCell) {
		t.Fatalf("expected ErrMalformedCell, got %v", err)
	}

	tsArr, rejected, err := parseTimestampColumn(
		mem, arr, "DateTransaction", "2006-01-02 15:04:05", CastPolicyLenient,
	)
	if err != nil {
		t.Fatalf("parseTimestampColumn lenient failed: %v", err)
	}
	defer tsArr.Release()
	if len(rejected) != 1 || !tsArr.IsNull(0) {
		t.Fatalf("expected one rejected null row, got %v", rejected)
	}
}

func TestCastPolicyValidation(t *testing.T) {
	if err := CastPolicyStrict.IsValid(); err != nil {
		t.Fatalf("strict should be valid: %v", err)
	}
	if err := CastPolicyLenient.IsValid(); err != nil {
		t.Fatalf("lenient should be valid: %v", err)
	}
	if err := CastPolicy("drop").IsValid(); !errors.Is(err, ErrUnknownCastPolicy) {
		t.Fatalf("expected ErrUnknownCastPolicy, got %v", err)
	}
}
