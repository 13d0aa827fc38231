package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
)

// WriteCSV writes the table as a header row followed by the data rows,
// overwriting any existing file at path.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create '%s': %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("write header to '%s': %w", path, err)
	}
	for _, row := range t.Rows {
		fields := make([]string, len(row))
		for i, cell := range row {
			fields[i] = cellString(cell)
		}
		if err := w.Write(fields); err != nil {
			return fmt.Errorf("write row to '%s': %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush '%s': %w", path, err)
	}

	return nil
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
