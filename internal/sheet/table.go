// Package sheet reads and writes the CSV tables that get enriched.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

var ErrNoHeader = errors.New("sheet: missing header row")

// Table is a header-indexed CSV table. Columns are looked up by exact header name.
type Table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// Row is a view over one record of a Table.
type Row struct {
	t *Table
	n int
}

func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNoHeader
	}
	t := &Table{header: recs[0], index: make(map[string]int, len(recs[0]))}
	for i, h := range t.header {
		t.index[strings.TrimSpace(h)] = i
	}
	for i, rec := range recs[1:] {
		// every row is exactly as wide as the header, so appended columns
		// never land on a stray trailing cell
		switch {
		case len(rec) < len(t.header):
			rec = append(rec, make([]string, len(t.header)-len(rec))...)
		case len(rec) > len(t.header):
			if extra := strings.TrimSpace(strings.Join(rec[len(t.header):], "")); extra != "" {
				log.Warn().Int("row", i).Str("dropped", extra).Msg("sheet: cells beyond the header dropped")
			}
			rec = rec[:len(t.header):len(t.header)]
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func (t *Table) Len() int         { return len(t.rows) }
func (t *Table) Header() []string { return append([]string(nil), t.header...) }
func (t *Table) Row(n int) Row    { return Row{t: t, n: n} }

func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// EnsureColumns appends any missing columns (empty in every row).
// Call it before rows are written concurrently; Row.Set never grows the table.
func (t *Table) EnsureColumns(cols ...string) {
	for _, c := range cols {
		if _, ok := t.index[c]; ok {
			continue
		}
		t.index[c] = len(t.header)
		t.header = append(t.header, c)
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], "")
		}
	}
}

func (t *Table) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (t *Table) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Get returns the trimmed cell value; unknown columns read as "".
func (r Row) Get(col string) string {
	i, ok := r.t.index[col]
	if !ok || i >= len(r.t.rows[r.n]) {
		return ""
	}
	return strings.TrimSpace(r.t.rows[r.n][i])
}

// Set writes a cell. The column must exist (see EnsureColumns).
func (r Row) Set(col, v string) {
	i, ok := r.t.index[col]
	if !ok {
		panic("sheet: unknown column " + col)
	}
	r.t.rows[r.n][i] = v
}

func (r Row) Clear(col string) { r.Set(col, "") }

func (r Row) Index() int { return r.n }

// OutputPath derives "<dir>/<base>_modified.csv" for an input file.
func OutputPath(in string) (string, error) {
	ext := filepath.Ext(in)
	out := strings.TrimSuffix(in, ext) + "_modified.csv"
	if filepath.Clean(out) == filepath.Clean(in) {
		return "", fmt.Errorf("output path %s would overwrite input", out)
	}
	return out, nil
}
