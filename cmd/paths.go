package cmd

import "path/filepath"

// Stage artifacts live next to the downloaded series matrix so a series
// directory is self-contained.

func normalizedPath(a *app, accession string) string {
	return filepath.Join(a.geo.SeriesDir(accession), "matrix", accession+"_normalized.tsv")
}

func geneMatrixPath(a *app, accession string) string {
	return filepath.Join(a.geo.SeriesDir(accession), "matrix", accession+"_gene_matrix.tsv")
}
