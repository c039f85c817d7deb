package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func testClient(t *testing.T, baseURL, annotURL string) *Client {
	t.Helper()
	return NewClient(baseURL, annotURL, t.TempDir(), 10*time.Second, zaptest.NewLogger(t))
}

func TestAccessionBucket(t *testing.T) {
	tests := []struct {
		accession string
		want      string
		bad       bool
	}{
		{accession: "GSE12345", want: "GSE12nnn"},
		{accession: "GSE1234", want: "GSE1nnn"},
		{accession: "GSE999", want: "GSEnnn"},
		{accession: "GSE1", want: "GSEnnn"},
		{accession: "GDS123", bad: true},
		{accession: "GSE", bad: true},
		{accession: "GSE12x4", bad: true},
	}
	for _, tt := range tests {
		got, err := accessionBucket(tt.accession)
		if tt.bad {
			if err == nil {
				t.Errorf("accessionBucket(%q): expected error", tt.accession)
			}
			continue
		}
		if err != nil {
			t.Errorf("accessionBucket(%q): %v", tt.accession, err)
			continue
		}
		if got != tt.want {
			t.Errorf("accessionBucket(%q) = %q, want %q", tt.accession, got, tt.want)
		}
	}
}

func TestSeriesMatrixURL(t *testing.T) {
	c := testClient(t, "http://archive.example/geo", "")
	url, err := c.SeriesMatrixURL("GSE12345")
	if err != nil {
		t.Fatal(err)
	}
	want := "http://archive.example/geo/series/GSE12nnn/GSE12345/matrix/GSE12345_series_matrix.txt.gz"
	if url != want {
		t.Errorf("url = %s, want %s", url, want)
	}
}

func TestFetchSeriesMatrix_CacheSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("matrix payload"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "")

	path, cached, err := c.FetchSeriesMatrix(context.Background(), "GSE12345")
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("first fetch should not be a cache hit")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "matrix payload" {
		t.Errorf("payload = %q", data)
	}

	// Warm cache: no request may leave the process.
	_, cached, err = c.FetchSeriesMatrix(context.Background(), "GSE12345")
	if err != nil {
		t.Fatal(err)
	}
	if !cached {
		t.Error("second fetch should be a cache hit")
	}
	if hits.Load() != 1 {
		t.Errorf("server saw %d requests, want 1", hits.Load())
	}
}

func TestFetchSupplementary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("signal data"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "")
	path, cached, err := c.FetchSupplementary(context.Background(), "GSE1", srv.URL+"/raw/GSM100.txt.gz")
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("first fetch should not be cached")
	}
	if !strings.HasSuffix(path, "GSE1/raw/GSM100.txt.gz") {
		t.Errorf("unexpected cache path %s", path)
	}
}

func TestFetchAnnotation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ID\tGene Symbol\n"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL+"/platforms/GPL96.annot.gz")
	path, _, err := c.FetchAnnotation(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "annot/GPL96.annot.gz") {
		t.Errorf("unexpected annotation path %s", path)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "")
	_, _, err := c.FetchSeriesMatrix(context.Background(), "GSE12345")
	if err == nil {
		t.Fatal("expected error for 404")
	}

	// A failed download must not poison the cache.
	if _, err := os.Stat(c.MatrixPath("GSE12345")); !os.IsNotExist(err) {
		t.Error("partial file left behind after failed fetch")
	}
}
