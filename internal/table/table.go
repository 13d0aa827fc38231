package table

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MaxCellLength is the cap on the rendered size of a single cell.
// TODO: confirm the threshold; 50k roughly matches the Sheets cell limit
// but was never benchmarked against real payloads.
const MaxCellLength = 50000

// ErrBadShape is returned when raw provider data has no tabular interpretation.
var ErrBadShape = errors.New("data shape is not tabular")

// Table is a column-uniform set of rows ready for the CSV and spreadsheet
// sinks. Every row has exactly one cell per column.
type Table struct {
	Columns []string
	Rows    [][]interface{}
}

func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Normalize converts a decoded provider value into a Table. A single record
// becomes a one row table, a sequence of records a multi row table with the
// header set to the ordered union of keys. Any other shape is ErrBadShape.
func Normalize(raw interface{}) (*Table, error) {
	switch v := raw.(type) {
	case *Record:
		return fromRecords([]*Record{v})
	case []interface{}:
		records := make([]*Record, 0, len(v))
		for _, item := range v {
			rec, ok := item.(*Record)
			if !ok {
				return nil, fmt.Errorf("%w: sequence element is %T, want object", ErrBadShape, item)
			}
			records = append(records, rec)
		}
		return fromRecords(records)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrBadShape, raw)
	}
}

func fromRecords(records []*Record) (*Table, error) {
	t := &Table{}

	seen := map[string]bool{}
	for _, rec := range records {
		for _, key := range rec.Keys() {
			if !seen[key] {
				seen[key] = true
				t.Columns = append(t.Columns, key)
			}
		}
	}

	for _, rec := range records {
		row := make([]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			value, ok := rec.Get(col)
			if !ok {
				row[i] = ""
				continue
			}
			row[i] = normalizeCell(value)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// normalizeCell flattens nested values to their JSON text and caps oversized
// strings at MaxCellLength.
func normalizeCell(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return truncate(v)
	case *Record, []interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return truncate(fmt.Sprint(v))
		}
		return truncate(string(b))
	default:
		return v
	}
}

// truncate caps s at MaxCellLength characters, cutting on a rune boundary so
// multibyte text stays valid UTF-8.
func truncate(s string) string {
	if len(s) <= MaxCellLength {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxCellLength {
			return s[:i]
		}
		n++
	}
	return s
}
