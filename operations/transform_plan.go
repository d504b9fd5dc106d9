package operations

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	arrowops "github.com/rdelcourt/ChequeDataPrep/arrowOps"
	"github.com/rdelcourt/ChequeDataPrep/elements"
)

type TransformPlanOptions struct {
	CastPolicy CastPolicy
}

// TransformPlan is the declarative column transform stage of the
// pipeline. The step order is fixed: the sentinel filter always runs
// before any cast so that re-embedded header rows never reach the
// numeric parsers.
type TransformPlan struct {
	logger *slog.Logger
	mem    *memory.GoAllocator
	schema *elements.DatasetSchema

	options TransformPlanOptions
}

func NewTransformPlan(
	logger *slog.Logger,
	mem *memory.GoAllocator,
	schema *elements.DatasetSchema,
	options TransformPlanOptions,
) (*TransformPlan, error) {
	if err := schema.IsValid(); err != nil {
		return nil, errs.Wrap(err)
	}
	if err := options.CastPolicy.IsValid(); err != nil {
		return nil, errs.Wrap(err)
	}
	return &TransformPlan{
		logger:  logger,
		mem:     mem,
		schema:  schema,
		options: options,
	}, nil
}

type CollectResult struct {
	// Record is the clean, typed record with the derived hour column
	// and without the pruned columns.
	Record arrow.Record
	// FilteredRaw is the all-string record after the sentinel filter,
	// kept so rejected rows can be quarantined in their original form.
	FilteredRaw arrow.Record

	ScannedRows  int64
	SentinelRows int64
	// RejectedRows are row indices into FilteredRaw that had at least
	// one malformed cell. Always empty under the strict policy.
	RejectedRows []int
}

func (obj *CollectResult) Release() {
	if obj.Record != nil {
		obj.Record.Release()
	}
	if obj.FilteredRaw != nil {
		obj.FilteredRaw.Release()
	}
}

// Collect executes the staged transforms against a scanned all-string
// record and materializes the clean record.
func (obj *TransformPlan) Collect(ctx context.Context, raw arrow.Record) (*CollectResult, error) {
	result := &CollectResult{ScannedRows: raw.NumRows()}

	type planStep struct {
		name  string
		apply func(arrow.Record) (arrow.Record, error)
	}
	steps := []planStep{
		{
			name: "filter-sentinel-rows",
			apply: func(record arrow.Record) (arrow.Record, error) {
				filtered, err := obj.FilterSentinelRows(record)
				if err != nil {
					return nil, err
				}
				result.SentinelRows = record.NumRows() - filtered.NumRows()
				filtered.Retain()
				result.FilteredRaw = filtered
				return filtered, nil
			},
		},
		{
			name: "cast-columns",
			apply: func(record arrow.Record) (arrow.Record, error) {
				cast, rejected, err := obj.CastColumns(record)
				if err != nil {
					return nil, err
				}
				result.RejectedRows = rejected
				return cast, nil
			},
		},
		{
			name:  "derive-hour-of-day",
			apply: obj.DeriveHourOfDay,
		},
		{
			name:  "prune-columns",
			apply: obj.PruneColumns,
		},
	}

	record := raw
	record.Retain()
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			record.Release()
			result.Release()
			return nil, errs.Wrap(err)
		}

		next, err := step.apply(record)
		record.Release()
		if err != nil {
			result.Release()
			return nil, errs.Wrap(err, fmt.Errorf("transform step %s failed", step.name))
		}
		obj.logger.Info(
			"transform step applied",
			slog.String("step", step.name),
			slog.Int64("numRows", next.NumRows()),
		)
		record = next
	}

	result.Record = record
	return result, nil
}

// FilterSentinelRows drops every row whose sentinel cell equals the
// sentinel column's own name. Those rows are header lines re-embedded
// in the body of the extract.
func (obj *TransformPlan) FilterSentinelRows(record arrow.Record) (arrow.Record, error) {
	sentinel := obj.schema.SentinelColumn()
	colIdx, err := columnIndex(record, sentinel)
	if err != nil {
		return nil, err
	}
	sentinelArr, ok := record.Column(colIdx).(*array.String)
	if !ok {
		return nil, errs.NewStackError(fmt.Errorf(
			"%w| sentinel column %s is not a string column", ErrMalformedCell, sentinel,
		))
	}

	maskBldr := array.NewBooleanBuilder(obj.mem)
	defer maskBldr.Release()
	maskBldr.Reserve(sentinelArr.Len())
	for i := 0; i < sentinelArr.Len(); i++ {
		maskBldr.Append(sentinelArr.IsNull(i) || sentinelArr.Value(i) != sentinel)
	}
	mask := maskBldr.NewBooleanArray()
	defer mask.Release()

	return arrowops.FilterRecord(obj.mem, record, mask)
}

// CastColumns replaces the float, int and timestamp columns of the
// all-string record with typed columns. The returned indices are the
// rows nulled under the lenient policy.
func (obj *TransformPlan) CastColumns(record arrow.Record) (arrow.Record, []int, error) {
	columns := make([]arrow.Array, record.NumCols())
	fields := make([]arrow.Field, record.NumCols())
	for i := 0; i < int(record.NumCols()); i++ {
		columns[i] = record.Column(i)
		fields[i] = record.Schema().Field(i)
	}

	created := make([]arrow.Array, 0)
	releaseCreated := func() {
		for _, arr := range created {
			arr.Release()
		}
	}

	rejectedSet := make(map[int]struct{})

	castColumn := func(
		columnName string,
		cast func(*array.String) (arrow.Array, []int, error),
		dtype arrow.DataType,
	) error {
		colIdx, err := columnIndex(record, columnName)
		if err != nil {
			return err
		}
		strArr, ok := columns[colIdx].(*array.String)
		if !ok {
			return errs.NewStackError(fmt.Errorf(
				"%w| column %s was already cast", ErrMalformedCell, columnName,
			))
		}
		typedArr, rejected, err := cast(strArr)
		if err != nil {
			return err
		}
		created = append(created, typedArr)
		columns[colIdx] = typedArr
		fields[colIdx] = arrow.Field{Name: columnName, Type: dtype, Nullable: true}
		for _, rowIdx := range rejected {
			rejectedSet[rowIdx] = struct{}{}
		}
		return nil
	}

	for _, columnName := range obj.schema.FloatColumns() {
		name := columnName
		err := castColumn(name, func(arr *array.String) (arrow.Array, []int, error) {
			return castFloatColumn(obj.mem, arr, name, obj.options.CastPolicy)
		}, arrow.PrimitiveTypes.Float64)
		if err != nil {
			releaseCreated()
			return nil, nil, err
		}
	}
	for _, columnName := range obj.schema.IntColumns() {
		name := columnName
		err := castColumn(name, func(arr *array.String) (arrow.Array, []int, error) {
			return castIntColumn(obj.mem, arr, name, obj.options.CastPolicy)
		}, arrow.PrimitiveTypes.Int64)
		if err != nil {
			releaseCreated()
			return nil, nil, err
		}
	}

	tsName := obj.schema.TimestampColumn()
	tsLayout := obj.schema.TimestampLayout()
	err := castColumn(tsName, func(arr *array.String) (arrow.Array, []int, error) {
		return parseTimestampColumn(obj.mem, arr, tsName, tsLayout, obj.options.CastPolicy)
	}, &arrow.TimestampType{Unit: arrow.Second})
	if err != nil {
		releaseCreated()
		return nil, nil, err
	}

	rejected := make([]int, 0, len(rejectedSet))
	for rowIdx := range rejectedSet {
		rejected = append(rejected, rowIdx)
	}
	slices.Sort(rejected)

	schema := arrow.NewSchema(fields, nil)
	cast := array.NewRecord(schema, columns, record.NumRows())
	releaseCreated()
	return cast, rejected, nil
}

// DeriveHourOfDay appends an int32 hour-of-day column extracted from
// the parsed timestamp column.
func (obj *TransformPlan) DeriveHourOfDay(record arrow.Record) (arrow.Record, error) {
	colIdx, err := columnIndex(record, obj.schema.TimestampColumn())
	if err != nil {
		return nil, err
	}
	tsArr, ok := record.Column(colIdx).(*array.Timestamp)
	if !ok {
		return nil, errs.NewStackError(fmt.Errorf(
			"%w| column %s is not a timestamp column", ErrMalformedCell, obj.schema.TimestampColumn(),
		))
	}

	hourBldr := array.NewInt32Builder(obj.mem)
	defer hourBldr.Release()
	hourBldr.Reserve(tsArr.Len())
	for i := 0; i < tsArr.Len(); i++ {
		if tsArr.IsNull(i) {
			hourBldr.AppendNull()
			continue
		}
		ts := time.Unix(int64(tsArr.Value(i)), 0).UTC()
		hourBldr.Append(int32(ts.Hour()))
	}
	hourArr := hourBldr.NewInt32Array()
	defer hourArr.Release()

	fields := make([]arrow.Field, 0, record.NumCols()+1)
	columns := make([]arrow.Array, 0, record.NumCols()+1)
	for i := 0; i < int(record.NumCols()); i++ {
		fields = append(fields, record.Schema().Field(i))
		columns = append(columns, record.Column(i))
	}
	fields = append(fields, arrow.Field{
		Name: obj.schema.DerivedHourColumn(), Type: arrow.PrimitiveTypes.Int32, Nullable: true,
	})
	columns = append(columns, hourArr)

	return array.NewRecord(arrow.NewSchema(fields, nil), columns, record.NumRows()), nil
}

// PruneColumns drops the schema's drop list with drop-if-present
// semantics: an absent column is skipped, never an error.
func (obj *TransformPlan) PruneColumns(record arrow.Record) (arrow.Record, error) {
	dropSet := make(map[string]struct{}, len(obj.schema.DropColumns()))
	for _, name := range obj.schema.DropColumns() {
		dropSet[name] = struct{}{}
	}

	fields := make([]arrow.Field, 0, record.NumCols())
	columns := make([]arrow.Array, 0, record.NumCols())
	for i := 0; i < int(record.NumCols()); i++ {
		field := record.Schema().Field(i)
		if _, ok := dropSet[field.Name]; ok {
			continue
		}
		fields = append(fields, field)
		columns = append(columns, record.Column(i))
	}

	return array.NewRecord(arrow.NewSchema(fields, nil), columns, record.NumRows()), nil
}

func columnIndex(record arrow.Record, name string) (int, error) {
	indices := record.Schema().FieldIndices(name)
	if len(indices) != 1 {
		return 0, errs.NewStackError(fmt.Errorf("%w| %s", ErrColumnNotFound, name))
	}
	return indices[0], nil
}
