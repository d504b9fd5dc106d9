package elements

import (
	"fmt"
	"time"
)

// DatasetSchema describes the roles the raw columns play during
// preparation. Columns not named here pass through as strings.
type DatasetSchema struct {
	name string

	// sentinel column used to detect re-embedded header rows
	sentinelColumn string

	floatColumns []string
	intColumns   []string

	timestampColumn string
	timestampLayout string

	derivedHourColumn string
	dropColumns       []string
}

func NewDatasetSchema(name string) *DatasetSchema {
	return &DatasetSchema{
		name:         name,
		floatColumns: []string{},
		intColumns:   []string{},
		dropColumns:  []string{},
	}
}

func (obj *DatasetSchema) Name() string {
	return obj.name
}

func (obj *DatasetSchema) SetSentinelColumn(name string) *DatasetSchema {
	obj.sentinelColumn = name
	return obj
}

func (obj *DatasetSchema) SentinelColumn() string {
	return obj.sentinelColumn
}

func (obj *DatasetSchema) AddFloatColumns(names ...string) *DatasetSchema {
	obj.floatColumns = append(obj.floatColumns, names...)
	return obj
}

func (obj *DatasetSchema) FloatColumns() []string {
	return obj.floatColumns
}

func (obj *DatasetSchema) AddIntColumns(names ...string) *DatasetSchema {
	obj.intColumns = append(obj.intColumns, names...)
	return obj
}

func (obj *DatasetSchema) IntColumns() []string {
	return obj.intColumns
}

func (obj *DatasetSchema) SetTimestampColumn(name, layout string) *DatasetSchema {
	obj.timestampColumn = name
	obj.timestampLayout = layout
	return obj
}

func (obj *DatasetSchema) TimestampColumn() string {
	return obj.timestampColumn
}

func (obj *DatasetSchema) TimestampLayout() string {
	return obj.timestampLayout
}

func (obj *DatasetSchema) SetDerivedHourColumn(name string) *DatasetSchema {
	obj.derivedHourColumn = name
	return obj
}

func (obj *DatasetSchema) DerivedHourColumn() string {
	return obj.derivedHourColumn
}

func (obj *DatasetSchema) AddDropColumns(names ...string) *DatasetSchema {
	obj.dropColumns = append(obj.dropColumns, names...)
	return obj
}

func (obj *DatasetSchema) DropColumns() []string {
	return obj.dropColumns
}

func (obj *DatasetSchema) IsValid() error {
	if obj.name == "" {
		return fmt.Errorf("%w| name invalid", ErrDatasetSchemaInvalid)
	}
	if obj.sentinelColumn == "" {
		return fmt.Errorf("%w| sentinel column is required", ErrDatasetSchemaInvalid)
	}
	if obj.timestampColumn == "" || obj.timestampLayout == "" {
		return fmt.Errorf("%w| timestamp column and layout are required", ErrDatasetSchemaInvalid)
	}
	if obj.derivedHourColumn == "" {
		return fmt.Errorf("%w| derived hour column is required", ErrDatasetSchemaInvalid)
	}

	// a column can only have one cast target
	seen := make(map[string]struct{})
	for _, lst := range [][]string{obj.floatColumns, obj.intColumns, {obj.timestampColumn}} {
		for _, name := range lst {
			if name == "" {
				return fmt.Errorf("%w| empty column name", ErrDatasetSchemaInvalid)
			}
			if _, ok := seen[name]; ok {
				return fmt.Errorf("%w| column %s has multiple cast targets", ErrDatasetSchemaInvalid, name)
			}
			seen[name] = struct{}{}
		}
	}

	// the sentinel must stay textual so the header filter can compare it
	if _, ok := seen[obj.sentinelColumn]; ok {
		return fmt.Errorf("%w| sentinel column %s cannot be cast", ErrDatasetSchemaInvalid, obj.sentinelColumn)
	}
	if _, ok := seen[obj.derivedHourColumn]; ok {
		return fmt.Errorf("%w| derived column %s collides with a cast column", ErrDatasetSchemaInvalid, obj.derivedHourColumn)
	}
	return nil
}

// ChequeTransactionSchema is the schema of the raw cheque transaction
// extract. The float columns use the French decimal comma in the raw file.
func ChequeTransactionSchema() *DatasetSchema {
	return NewDatasetSchema("cheque-transactions").
		SetSentinelColumn("ZIBZIN").
		AddFloatColumns(
			"Montant", "TauxImpNb_RB", "TauxImpNB_CPM",
			"ScoringFP1", "ScoringFP2", "ScoringFP3",
			"DiffDateTr1", "DiffDateTr2", "DiffDateTr3",
			"CA3TRetMtt", "CA3TR", "EcartNumCheq",
			"NbrMagasin3J", "D2CB",
		).
		AddIntColumns(
			"FlagImpaye", "CodeDecision",
			"VerifianceCPT1", "VerifianceCPT2", "VerifianceCPT3",
		).
		SetTimestampColumn("DateTransaction", "2006-01-02 15:04:05").
		SetDerivedHourColumn("HourOfDay").
		AddDropColumns("ZIBZIN", "IDAvisAutorisationCheque", "Heure", "CodeDecision")
}

// SplitDate is the temporal cutoff between the train and test partitions.
var SplitDate = time.Date(2017, time.September, 1, 0, 0, 0, 0, time.UTC)
