// Package pheno tidies series metadata: it extracts the descriptive
// sample fields from a series matrix file and parses each free-text
// title into structured condition, treatment, time, and replicate
// fields.
package pheno

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sample is one tidied metadata row.
type Sample struct {
	Accession     string
	Platform      string
	Supplementary string
	Title         string
	TitleFields
}

// Series is the tidied metadata for one dataset.
type Series struct {
	Accession string
	Samples   []Sample
}

// The metadata block keys we keep; everything else in the series matrix
// header is dropped.
const (
	keyTitle         = "!Sample_title"
	keyAccession     = "!Sample_geo_accession"
	keyPlatform      = "!Sample_platform_id"
	keySupplementary = "!Sample_supplementary_file"
)

// Tidy reads a series matrix file (plain or gzip) and produces the
// reduced, parsed metadata table.
func Tidy(path, accession string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening series matrix %s: %w", path, err)
	}
	defer f.Close()

	r, closeGz, err := maybeGzip(f, path)
	if err != nil {
		return nil, err
	}
	defer closeGz()

	rows, err := metadataRows(r)
	if err != nil {
		return nil, fmt.Errorf("reading series matrix %s: %w", path, err)
	}

	return tidyRows(rows, accession)
}

// metadataRows collects the !Sample_ header rows, tab-split with quotes
// stripped. The expression table below !series_matrix_table_begin is not
// read here; raw signals come from the supplementary files instead.
func metadataRows(r io.Reader) (map[string][]string, error) {
	rows := make(map[string][]string)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for sc.Scan() {
		line := sc.Text()
		if line == "!series_matrix_table_begin" {
			break
		}
		if !strings.HasPrefix(line, "!Sample_") {
			continue
		}
		fields := strings.Split(line, "\t")
		key := fields[0]
		switch key {
		case keyTitle, keyAccession, keyPlatform, keySupplementary:
			values := make([]string, len(fields)-1)
			for i, v := range fields[1:] {
				values[i] = strings.Trim(v, `"`)
			}
			rows[key] = values
		}
	}
	return rows, sc.Err()
}

func tidyRows(rows map[string][]string, accession string) (*Series, error) {
	titles, ok := rows[keyTitle]
	if !ok {
		return nil, fmt.Errorf("series %s: no %s row in metadata", accession, keyTitle)
	}
	n := len(titles)
	for _, key := range []string{keyAccession, keyPlatform, keySupplementary} {
		vals, ok := rows[key]
		if !ok {
			return nil, fmt.Errorf("series %s: no %s row in metadata", accession, key)
		}
		if len(vals) != n {
			return nil, fmt.Errorf("series %s: %s has %d values, want %d", accession, key, len(vals), n)
		}
	}

	series := &Series{Accession: accession, Samples: make([]Sample, 0, n)}
	seen := make(map[string]bool, n)

	for i := 0; i < n; i++ {
		acc := rows[keyAccession][i]
		if seen[acc] {
			return nil, fmt.Errorf("series %s: duplicate sample accession %s", accession, acc)
		}
		seen[acc] = true

		parsed, err := ParseTitle(titles[i])
		if err != nil {
			return nil, fmt.Errorf("series %s, sample %s: %w", accession, acc, err)
		}

		series.Samples = append(series.Samples, Sample{
			Accession:     acc,
			Platform:      rows[keyPlatform][i],
			Supplementary: rows[keySupplementary][i],
			Title:         titles[i],
			TitleFields:   parsed,
		})
	}

	return series, nil
}

// maybeGzip wraps the reader in a gzip reader when the path says so.
func maybeGzip(f *os.File, path string) (io.Reader, func() error, error) {
	if !strings.HasSuffix(path, ".gz") {
		return f, func() error { return nil }, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("gzip reader for %s: %w", path, err)
	}
	return gz, gz.Close, nil
}
