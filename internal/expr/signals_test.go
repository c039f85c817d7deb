package expr

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSignal(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if strings.HasSuffix(name, ".gz") {
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		zw := gzip.NewWriter(f)
		if _, err := zw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
		return path
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSignals_Basic(t *testing.T) {
	dir := t.TempDir()
	a := writeSignal(t, dir, "a.txt", "PROBE\tVALUE\n1000_at\t120.5\n1001_at\t80\n")
	b := writeSignal(t, dir, "b.txt.gz", "PROBE\tVALUE\n1000_at\t95.25\n1001_at\t110\n")

	m, err := LoadSignals([]SignalFile{
		{Sample: "GSM1", Path: a},
		{Sample: "GSM2", Path: b},
	})
	if err != nil {
		t.Fatalf("LoadSignals: %v", err)
	}

	rows, cols := m.Dims()
	if rows != 2 || cols != 2 {
		t.Fatalf("dims = (%d, %d), want (2, 2)", rows, cols)
	}
	if m.Rows[0] != "1000_at" || m.Rows[1] != "1001_at" {
		t.Errorf("probes = %v", m.Rows)
	}
	if m.Values[0][0] != 120.5 || m.Values[0][1] != 95.25 {
		t.Errorf("first probe row = %v", m.Values[0])
	}
	if m.Values[1][0] != 80 || m.Values[1][1] != 110 {
		t.Errorf("second probe row = %v", m.Values[1])
	}
}

func TestLoadSignals_NoHeader(t *testing.T) {
	dir := t.TempDir()
	a := writeSignal(t, dir, "a.txt", "1000_at\t12\n1001_at\t9\n")
	m, err := LoadSignals([]SignalFile{{Sample: "GSM1", Path: a}})
	if err != nil {
		t.Fatalf("LoadSignals: %v", err)
	}
	if rows, _ := m.Dims(); rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
}

func TestLoadSignals_ProbeMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writeSignal(t, dir, "a.txt", "1000_at\t12\n1001_at\t9\n")
	b := writeSignal(t, dir, "b.txt", "1000_at\t12\n1002_at\t9\n")
	_, err := LoadSignals([]SignalFile{
		{Sample: "GSM1", Path: a},
		{Sample: "GSM2", Path: b},
	})
	if err == nil || !strings.Contains(err.Error(), "probe set mismatch") {
		t.Fatalf("expected probe set mismatch error, got %v", err)
	}
}

func TestLoadSignals_NegativeIntensity(t *testing.T) {
	dir := t.TempDir()
	a := writeSignal(t, dir, "a.txt", "1000_at\t-5\n")
	_, err := LoadSignals([]SignalFile{{Sample: "GSM1", Path: a}})
	if err == nil || !strings.Contains(err.Error(), "negative intensity") {
		t.Fatalf("expected negative intensity error, got %v", err)
	}
}

func TestLoadSignals_Empty(t *testing.T) {
	if _, err := LoadSignals(nil); err == nil {
		t.Fatal("expected error for no files")
	}
	dir := t.TempDir()
	a := writeSignal(t, dir, "a.txt", "PROBE\tVALUE\n")
	if _, err := LoadSignals([]SignalFile{{Sample: "GSM1", Path: a}}); err == nil {
		t.Fatal("expected error for header-only file")
	}
}

func TestLoadSignals_BadValue(t *testing.T) {
	dir := t.TempDir()
	a := writeSignal(t, dir, "a.txt", "1000_at\t12\n1001_at\tnotanumber\n")
	if _, err := LoadSignals([]SignalFile{{Sample: "GSM1", Path: a}}); err == nil {
		t.Fatal("expected bad intensity error")
	}
}
