// Package geo retrieves series metadata, raw signal files, and platform
// annotation tables from the public archive, caching everything under a
// local directory keyed by series accession.
package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Client fetches archive artifacts into the local cache. A file already
// present on disk is never re-downloaded.
type Client struct {
	http     *http.Client
	baseURL  string
	annotURL string
	cacheDir string
	log      *zap.Logger
}

// NewClient builds a Client rooted at cacheDir.
func NewClient(baseURL, annotURL, cacheDir string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		annotURL: annotURL,
		cacheDir: cacheDir,
		log:      log,
	}
}

// SeriesDir is the cache directory for one series.
func (c *Client) SeriesDir(accession string) string {
	return filepath.Join(c.cacheDir, accession)
}

// MatrixPath is where the series matrix file lives in the cache.
func (c *Client) MatrixPath(accession string) string {
	return filepath.Join(c.SeriesDir(accession), "matrix", accession+"_series_matrix.txt.gz")
}

// RawDir holds the per-sample raw signal files for a series.
func (c *Client) RawDir(accession string) string {
	return filepath.Join(c.SeriesDir(accession), "raw")
}

// AnnotDir holds platform annotation tables, shared across series.
func (c *Client) AnnotDir() string {
	return filepath.Join(c.cacheDir, "annot")
}

// SeriesMatrixURL builds the archive URL for a series matrix file. The
// archive buckets series by accession with the last three digits masked
// (GSE12345 lives under GSE12nnn).
func (c *Client) SeriesMatrixURL(accession string) (string, error) {
	bucket, err := accessionBucket(accession)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/series/%s/%s/matrix/%s_series_matrix.txt.gz",
		c.baseURL, bucket, accession, accession), nil
}

func accessionBucket(accession string) (string, error) {
	if !strings.HasPrefix(accession, "GSE") || len(accession) < 4 {
		return "", fmt.Errorf("malformed series accession: %q", accession)
	}
	digits := accession[3:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("malformed series accession: %q", accession)
		}
	}
	if len(digits) <= 3 {
		return "GSEnnn", nil
	}
	return "GSE" + digits[:len(digits)-3] + "nnn", nil
}

// FetchSeriesMatrix downloads the series matrix file unless it is already
// cached. Returns the local path and whether the cache was warm.
func (c *Client) FetchSeriesMatrix(ctx context.Context, accession string) (string, bool, error) {
	url, err := c.SeriesMatrixURL(accession)
	if err != nil {
		return "", false, err
	}
	dest := c.MatrixPath(accession)
	cached, err := c.fetchFile(ctx, url, dest)
	return dest, cached, err
}

// FetchSupplementary downloads one supplementary raw signal file into the
// series raw directory, keyed by its remote base name.
func (c *Client) FetchSupplementary(ctx context.Context, accession, url string) (string, bool, error) {
	name := path.Base(url)
	if name == "" || name == "." || name == "/" {
		return "", false, fmt.Errorf("cannot derive file name from supplementary URL %q", url)
	}
	dest := filepath.Join(c.RawDir(accession), name)
	cached, err := c.fetchFile(ctx, url, dest)
	return dest, cached, err
}

// FetchAnnotation downloads the platform annotation flat file from the
// configured fixed URL.
func (c *Client) FetchAnnotation(ctx context.Context) (string, bool, error) {
	name := path.Base(c.annotURL)
	if name == "" || name == "." || name == "/" {
		return "", false, fmt.Errorf("cannot derive file name from annotation URL %q", c.annotURL)
	}
	dest := filepath.Join(c.AnnotDir(), name)
	cached, err := c.fetchFile(ctx, c.annotURL, dest)
	return dest, cached, err
}

// fetchFile downloads url into dest unless dest already exists. Downloads
// go to a temp file first so a failed transfer never leaves a partial
// file that would satisfy the cache check on the next run.
func (c *Client) fetchFile(ctx context.Context, url, dest string) (bool, error) {
	if _, err := os.Stat(dest); err == nil {
		c.log.Debug("cache hit", zap.String("path", dest))
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, fmt.Errorf("creating cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return false, fmt.Errorf("creating temp file: %w", err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return false, fmt.Errorf("finalizing %s: %w", dest, err)
	}

	c.log.Info("downloaded",
		zap.String("url", url),
		zap.String("size", humanize.Bytes(uint64(n))))
	return false, nil
}
