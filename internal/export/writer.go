package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Format is an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXLSX  Format = "xlsx"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", eris.Errorf("export: unknown format %q (want table, csv, json or xlsx)", s)
	}
}

// Write renders sheets in format f. JSON encodes payload instead of the
// sheets so callers keep typed fields; the other formats ignore it.
func Write(w io.Writer, f Format, payload any, sheets ...Sheet) error {
	switch f {
	case FormatTable:
		for i, s := range sheets {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return eris.Wrap(err, "export: write table")
				}
			}
			if err := WriteTable(w, s); err != nil {
				return err
			}
		}
		return nil
	case FormatCSV:
		for _, s := range sheets {
			if err := WriteCSV(w, s); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		return WriteJSON(w, payload)
	case FormatXLSX:
		return WriteXLSX(w, sheets...)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}

// WriteTable writes an aligned plain-text table.
func WriteTable(w io.Writer, s Sheet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if s.Name != "" {
		_, _ = fmt.Fprintf(tw, "%s\n", s.Name)
	}
	_, _ = fmt.Fprintln(tw, strings.Join(s.Headers, "\t"))
	for _, row := range s.Strings() {
		for i, c := range row {
			if c == "" {
				row[i] = "-"
			}
		}
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return eris.Wrap(tw.Flush(), "export: flush table")
}

// WriteCSV writes the header row followed by every data row.
func WriteCSV(w io.Writer, s Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Headers); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	if err := cw.WriteAll(s.Strings()); err != nil {
		return eris.Wrap(err, "export: write csv rows")
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "export: encode json")
}

// WriteXLSX writes one worksheet per sheet. Numeric cells stay numeric.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	f, err := BuildWorkbook(sheets...)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "export: write xlsx")
}

// BuildWorkbook assembles the workbook for sheets.
func BuildWorkbook(sheets ...Sheet) (*xlsx.File, error) {
	f := xlsx.NewFile()
	for i, s := range sheets {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		sheet, err := f.AddSheet(name)
		if err != nil {
			return nil, eris.Wrapf(err, "export: add sheet %s", name)
		}

		header := sheet.AddRow()
		for _, h := range s.Headers {
			header.AddCell().SetString(h)
		}
		for _, row := range s.Rows {
			r := sheet.AddRow()
			for _, v := range row {
				setCell(r.AddCell(), v)
			}
		}
	}
	return f, nil
}

func setCell(c *xlsx.Cell, v any) {
	switch x := v.(type) {
	case int:
		c.SetInt(x)
	case float64:
		c.SetFloatWithFormat(x, "0.00")
	case *float64:
		if x != nil {
			c.SetFloatWithFormat(*x, "0.00")
		}
	default:
		c.SetString(FormatCell(v))
	}
}
