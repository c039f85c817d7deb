package expr

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// SignalFile names one raw per-sample signal file on disk.
type SignalFile struct {
	Sample string
	Path   string
}

// LoadSignals reads a batch of raw signal files into one probes × samples
// matrix. Every file must carry the identical probe set in the same
// order; intensities must be non-negative scanner values.
func LoadSignals(files []SignalFile) (*Matrix, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no signal files to load")
	}

	var probes []string
	columns := make([][]float64, len(files))
	samples := make([]string, len(files))

	for k, f := range files {
		samples[k] = f.Sample
		p, col, err := readSignalFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", f.Sample, err)
		}
		if probes == nil {
			probes = p
		} else if err := sameProbes(probes, p); err != nil {
			return nil, fmt.Errorf("sample %s: %w", f.Sample, err)
		}
		columns[k] = col
	}

	m := New(probes, samples)
	for i := range probes {
		for k := range files {
			m.Values[i][k] = columns[k][i]
		}
	}
	return m, nil
}

// readSignalFile parses one two-column probe/intensity file, plain or
// gzip. A single header line is tolerated when its second field is not
// numeric.
func readSignalFile(path string) ([]string, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening signal file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip reader for %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var probes []string
	var values []float64

	sc := bufio.NewScanner(bufio.NewReader(r))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("%s:%d: want probe and intensity, got %d fields", path, lineNo, len(fields))
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			if lineNo == 1 {
				continue // header line
			}
			return nil, nil, fmt.Errorf("%s:%d: bad intensity %q: %w", path, lineNo, fields[1], err)
		}
		if v < 0 {
			return nil, nil, fmt.Errorf("%s:%d: negative intensity %g for probe %s", path, lineNo, v, fields[0])
		}
		probes = append(probes, fields[0])
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(probes) == 0 {
		return nil, nil, fmt.Errorf("%s: no signal rows", path)
	}
	return probes, values, nil
}

func sameProbes(want, got []string) error {
	if len(want) != len(got) {
		return fmt.Errorf("probe set mismatch: %d probes, want %d", len(got), len(want))
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("probe set mismatch at row %d: %s, want %s", i+1, got[i], want[i])
		}
	}
	return nil
}
