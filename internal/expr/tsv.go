package expr

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteTSV writes the matrix as a tab-separated table with an ID column
// and one column per sample.
func (m *Matrix) WriteTSV(w io.Writer) error {
	if err := m.validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "ID\t%s\n", strings.Join(m.Samples, "\t"))
	for i, id := range m.Rows {
		bw.WriteString(id)
		for _, v := range m.Values[i] {
			bw.WriteByte('\t')
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteTSVFile writes the matrix to path, creating parent directories.
func (m *Matrix) WriteTSVFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := m.WriteTSV(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// ReadTSV parses a matrix written by WriteTSV.
func ReadTSV(r io.Reader) (*Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty matrix table")
	}
	header := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
	if len(header) < 2 || header[0] != "ID" {
		return nil, fmt.Errorf("bad matrix header: %q", sc.Text())
	}
	samples := header[1:]

	var rows []string
	var values [][]float64
	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(samples)+1 {
			return nil, fmt.Errorf("line %d: %d fields, want %d", lineNo, len(fields), len(samples)+1)
		}
		row := make([]float64, len(samples))
		for j, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad value %q: %w", lineNo, s, err)
			}
			row[j] = v
		}
		rows = append(rows, fields[0])
		values = append(values, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return &Matrix{Rows: rows, Samples: samples, Values: values}, nil
}

// ReadTSVFile parses a matrix table from a file.
func ReadTSVFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	m, err := ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}
