// Package annot maps measurement probes to gene symbols using a platform
// annotation flat file, filters probes with no resolvable symbol, and
// collapses multiple probes per gene into one row.
package annot

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"tcellatlas/internal/expr"
)

// Placeholder is the annotation table's "no gene" marker. Probes carrying
// it must be filtered before any gene-level step.
const Placeholder = "---"

// symbolDelim separates multiple gene symbols in one annotation cell.
const symbolDelim = " /// "

// Table maps probe IDs to their raw (possibly multi-symbol) annotation.
type Table struct {
	symbols map[string]string
}

// Load reads a tab-delimited annotation flat file (plain or gzip). The
// header row names an ID column and a gene symbol column; SOFT-style
// preamble lines starting with #, ^ or ! are skipped.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening annotation %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip reader for %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	t, err := parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing annotation %s: %w", path, err)
	}
	return t, nil
}

func parse(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	idCol, symCol := -1, -1
	symbols := make(map[string]string)

	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "^") || strings.HasPrefix(line, "!") {
			continue
		}
		fields := strings.Split(line, "\t")

		if idCol < 0 {
			for i, h := range fields {
				switch strings.ToLower(strings.TrimSpace(h)) {
				case "id":
					idCol = i
				case "gene symbol", "gene_symbol":
					symCol = i
				}
			}
			if idCol < 0 || symCol < 0 {
				return nil, fmt.Errorf("header lacks ID / Gene Symbol columns: %q", line)
			}
			continue
		}

		if len(fields) <= idCol || len(fields) <= symCol {
			continue
		}
		probe := strings.TrimSpace(fields[idCol])
		if probe == "" {
			continue
		}
		symbols[probe] = strings.TrimSpace(fields[symCol])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no probe annotations found")
	}
	return &Table{symbols: symbols}, nil
}

// Len reports how many probes the table annotates.
func (t *Table) Len() int {
	return len(t.symbols)
}

// Symbol resolves a probe to its single representative gene symbol: the
// first symbol when several are listed. ok is false for probes that are
// absent, empty, or carry the placeholder.
func (t *Table) Symbol(probe string) (string, bool) {
	raw, present := t.symbols[probe]
	if !present {
		return "", false
	}
	sym := Resolve(raw)
	if sym == "" {
		return "", false
	}
	return sym, true
}

// Resolve extracts the representative symbol from a raw annotation cell.
// Returns "" for the placeholder and for empty cells.
func Resolve(raw string) string {
	first := raw
	if i := strings.Index(raw, symbolDelim); i >= 0 {
		first = raw[:i]
	}
	first = strings.TrimSpace(first)
	if first == Placeholder {
		return ""
	}
	return first
}

// FilterUnmapped drops matrix rows whose probe has no resolvable gene
// symbol. Output row count never exceeds the input's.
func FilterUnmapped(m *expr.Matrix, t *Table) *expr.Matrix {
	var rows []string
	var values [][]float64
	for i, probe := range m.Rows {
		if _, ok := t.Symbol(probe); !ok {
			continue
		}
		rows = append(rows, probe)
		values = append(values, append([]float64(nil), m.Values[i]...))
	}
	return &expr.Matrix{
		Rows:    rows,
		Samples: append([]string(nil), m.Samples...),
		Values:  values,
	}
}

// CollapseMaxByGene rekeys matrix rows to gene symbols and collapses
// duplicate genes by taking the per-sample maximum across their probes.
// Row keys without an annotation entry are assumed to already be gene
// symbols, so collapsing a collapsed table is a no-op. Output rows are
// sorted by gene.
func CollapseMaxByGene(m *expr.Matrix, t *Table) *expr.Matrix {
	byGene := make(map[string][]float64)
	for i, key := range m.Rows {
		gene := key
		if sym, ok := t.Symbol(key); ok {
			gene = sym
		}
		row := byGene[gene]
		if row == nil {
			byGene[gene] = append([]float64(nil), m.Values[i]...)
			continue
		}
		for j, v := range m.Values[i] {
			if v > row[j] {
				row[j] = v
			}
		}
	}

	genes := make([]string, 0, len(byGene))
	for g := range byGene {
		genes = append(genes, g)
	}
	sort.Strings(genes)

	values := make([][]float64, len(genes))
	for i, g := range genes {
		values[i] = byGene[g]
	}
	return &expr.Matrix{
		Rows:    genes,
		Samples: append([]string(nil), m.Samples...),
		Values:  values,
	}
}
