package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jakoblorz/sqlcipher"
	"github.com/jakoblorz/sqlcipher/x/util"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// renderCursor writes the buffered result of cur, or a summary line for
// statements without a result.
func renderCursor(w io.Writer, cur *sqlcipher.Cursor, format string) error {
	desc := cur.Description()
	if desc == nil {
		_, _ = fmt.Fprintf(w, "OK (%d rows affected)\n", cur.RowCount())
		return nil
	}
	rows, err := cur.FetchAll()
	if err != nil {
		return err
	}
	cols := make([]string, len(desc))
	for i, c := range desc {
		cols[i] = c.Name
	}

	switch format {
	case "json":
		return renderJSON(w, cols, rows, cur.AsDict())
	case "csv":
		return renderCSV(w, cols, rows)
	default:
		return renderTable(w, cols, rows)
	}
}

func renderTable(w io.Writer, cols []string, rows []sqlcipher.Row) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	// numbers are right aligned, judged by the first row
	configs := make([]table.ColumnConfig, len(cols))
	for i := range cols {
		configs[i] = table.ColumnConfig{Number: i + 1}
		if cat, ok := sqlcipher.CategoryOf(rows[0].Values[i]); ok && cat == sqlcipher.NUMBER {
			configs[i].Align = text.AlignRight
		}
	}
	t.SetColumnConfigs(configs)

	for _, r := range rows {
		row := make(table.Row, len(r.Values))
		for i, v := range util.ToPlainValues(r.Values) {
			row[i] = v
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, cols []string, rows []sqlcipher.Row, asDict bool) error {
	out := make([]sqlcipher.Row, len(rows))
	for i, r := range rows {
		values := make([]interface{}, len(r.Values))
		for j, v := range r.Values {
			values[j] = util.ToJSONValue(v)
		}
		out[i] = sqlcipher.Row{Keys: r.Keys, Values: values}
		if !asDict {
			// tuple rows are keyed by column name as well
			out[i].Keys = cols
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderCSV(w io.Writer, cols []string, rows []sqlcipher.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(util.ToPlainValues(r.Values)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
