package operations

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/linkedin/goavro/v2"
)

// WriteQuarantineFile writes the raw rows at the rejected indices to an
// Avro object container file so a lenient run keeps the original text of
// every cell it nulled.
func WriteQuarantineFile(filePath string, raw arrow.Record, rejectedRows []int) error {
	codec, err := RecordAvroCodec(raw.Schema())
	if err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return errs.Wrap(err, fmt.Errorf("unable to create quarantine file %s", filePath))
	}
	defer file.Close()

	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:     file,
		Codec: codec,
	})
	if err != nil {
		return errs.Wrap(err)
	}

	rows := make([]interface{}, 0, len(rejectedRows))
	for _, rowIdx := range rejectedRows {
		if rowIdx < 0 || rowIdx >= int(raw.NumRows()) {
			return errs.NewStackError(fmt.Errorf(
				"quarantine row %d out of range, record has %d rows", rowIdx, raw.NumRows(),
			))
		}
		rowData := make(map[string]interface{}, raw.NumCols())
		for colIdx := 0; colIdx < int(raw.NumCols()); colIdx++ {
			value, err := ArrowArrayValueToAvroValue(raw.Column(colIdx), rowIdx)
			if err != nil {
				return err
			}
			rowData[raw.ColumnName(colIdx)] = value
		}
		rows = append(rows, rowData)
	}

	if err := ocfWriter.Append(rows); err != nil {
		return errs.Wrap(err, fmt.Errorf("unable to append quarantine rows to %s", filePath))
	}
	return nil
}

// ReadQuarantineFile reads every row of an Avro quarantine file back as
// native maps.
func ReadQuarantineFile(filePath string) ([]map[string]interface{}, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Errorf("unable to open quarantine file %s", filePath))
	}
	defer file.Close()

	ocfReader, err := goavro.NewOCFReader(file)
	if err != nil {
		return nil, errs.Wrap(err)
	}

	rows := make([]map[string]interface{}, 0)
	for ocfReader.Scan() {
		datum, err := ocfReader.Read()
		if err != nil {
			return nil, errs.Wrap(err)
		}
		rowData, ok := datum.(map[string]interface{})
		if !ok {
			return nil, errs.NewStackError(fmt.Errorf("quarantine row is not a record"))
		}
		rows = append(rows, rowData)
	}
	if err := ocfReader.Err(); err != nil {
		return nil, errs.Wrap(err)
	}
	return rows, nil
}

func ArrowArrayValueToAvroValue(arr arrow.Array, idx int) (interface{}, error) {
	switch arr.DataType().ID() {
	case arrow.BOOL:
		return arr.(*array.Boolean).Value(idx), nil
	case arrow.INT32:
		return arr.(*array.Int32).Value(idx), nil
	case arrow.INT64:
		return arr.(*array.Int64).Value(idx), nil
	case arrow.FLOAT64:
		return arr.(*array.Float64).Value(idx), nil
	case arrow.STRING:
		return arr.(*array.String).Value(idx), nil
	case arrow.TIMESTAMP:
		return int64(arr.(*array.Timestamp).Value(idx)), nil
	default:
		return nil, errs.NewStackError(fmt.Errorf(
			"%w| %s", ErrUnsupportedArrowToAvroTypeConversion, arr.DataType().Name(),
		))
	}
}

func RecordAvroCodec(arrowSchema *arrow.Schema) (*goavro.Codec, error) {
	type avroField struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	type avroSchemaTemplate struct {
		Type   string      `json:"type"`
		Name   string      `json:"name"`
		Fields []avroField `json:"fields"`
	}

	avroSchema := avroSchemaTemplate{
		Type:   "record",
		Name:   "quarantinedRow",
		Fields: make([]avroField, 0, arrowSchema.NumFields()),
	}

	for _, field := range arrowSchema.Fields() {
		avroType, err := ArrowToAvroType(field.Type)
		if err != nil {
			return nil, err
		}
		avroSchema.Fields = append(avroSchema.Fields, avroField{Name: field.Name, Type: avroType})
	}

	schemaData, err := json.Marshal(avroSchema)
	if err != nil {
		return nil, errs.Wrap(err)
	}

	codec, err := goavro.NewCodec(string(schemaData))
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return codec, nil
}

func ArrowToAvroType(dtype arrow.DataType) (string, error) {
	switch dtype.ID() {
	case arrow.BOOL:
		return "boolean", nil
	case arrow.INT32:
		return "int", nil
	case arrow.INT64, arrow.TIMESTAMP:
		return "long", nil
	case arrow.FLOAT64:
		return "double", nil
	case arrow.STRING:
		return "string", nil
	default:
		return "", errs.NewStackError(fmt.Errorf(
			"%w| %s", ErrUnsupportedArrowToAvroTypeConversion, dtype.Name(),
		))
	}
}
