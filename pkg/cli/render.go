package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/TechXTT/dbsession"
)

func validFormat(format string) bool {
	switch format {
	case "table", "json", "csv":
		return true
	}
	return false
}

func renderRows(w io.Writer, rows []dbsession.Row, format string) error {
	switch format {
	case "json":
		return renderJSON(w, rows)
	case "csv":
		return renderCSV(w, rows)
	default:
		return renderTable(w, rows)
	}
}

func renderTable(w io.Writer, rows []dbsession.Row) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	cols := rows[0].Columns()
	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range rows {
		line := make(table.Row, r.Len())
		for i := range line {
			line[i] = r.At(i).String()
		}
		t.AppendRow(line)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return nil
}

func renderJSON(w io.Writer, rows []dbsession.Row) error {
	if rows == nil {
		rows = []dbsession.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func renderCSV(w io.Writer, rows []dbsession.Row) error {
	if len(rows) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(rows[0].Columns()); err != nil {
		return err
	}
	for _, r := range rows {
		rec := make([]string, r.Len())
		for i := range rec {
			rec[i] = r.At(i).String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
