package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcellatlas/internal/diffexpr"
	"tcellatlas/internal/pheno"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testSeries() *pheno.Series {
	return &pheno.Series{
		Accession: "GSE1",
		Samples: []pheno.Sample{
			{
				Accession: "GSM1", Platform: "GPL96",
				Supplementary: "ftp://archive/GSM1.txt.gz",
				Title:         "CD4_rest_24h_rep1_U133A",
				TitleFields: pheno.TitleFields{
					Condition: "CD4", Treatment: "rest", Time: "24h", Replicate: 1, Chip: "U133A",
				},
			},
			{
				Accession: "GSM2", Platform: "GPL96",
				Supplementary: "ftp://archive/GSM2.txt.gz",
				Title:         "CD4_act_24h_rep1_U133A",
				TitleFields: pheno.TitleFields{
					Condition: "CD4", Treatment: "act", Time: "24h", Replicate: 1, Chip: "U133A",
				},
			},
		},
	}
}

func TestSaveGetSeries(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveSeries(testSeries()))

	got, err := db.GetSeries("GSE1")
	require.NoError(t, err)
	require.Len(t, got.Samples, 2)
	assert.Equal(t, "GSM1", got.Samples[0].Accession)
	assert.Equal(t, "rest", got.Samples[0].Treatment)
	assert.Equal(t, "24h", got.Samples[0].Time)
	assert.Equal(t, 1, got.Samples[0].Replicate)
	assert.Equal(t, "U133A", got.Samples[0].Chip)
	assert.Equal(t, "act", got.Samples[1].Treatment)
}

func TestGetSeries_NotTidied(t *testing.T) {
	db := openTestDB(t)
	_, err := db.GetSeries("GSE404")
	assert.ErrorContains(t, err, "not tidied")
}

func TestSaveSeries_Replaces(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveSeries(testSeries()))

	smaller := testSeries()
	smaller.Samples = smaller.Samples[:1]
	require.NoError(t, db.SaveSeries(smaller))

	got, err := db.GetSeries("GSE1")
	require.NoError(t, err)
	assert.Len(t, got.Samples, 1, "re-tidy replaces the stored table")
}

func TestSaveGetResults(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveSeries(testSeries()))

	results := []diffexpr.Result{
		{Gene: "IL2", LogFC: 4.0, AveExpr: 4.1, T: 28.3, P: 1e-5, AdjP: 3e-5},
		{Gene: "FOXP3", LogFC: -0.7, AveExpr: 4.7, T: -9.9, P: 1e-3, AdjP: 1.5e-3},
		{Gene: "ACTB", LogFC: -0.02, AveExpr: 8.0, T: -0.8, P: 0.49, AdjP: 0.49},
	}
	require.NoError(t, db.SaveResults("GSE1", results))

	got, err := db.GetResults("GSE1", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "IL2", got[0].Gene, "significance order preserved")
	assert.Equal(t, "ACTB", got[2].Gene)
	assert.InDelta(t, 4.0, got[0].LogFC, 1e-12)

	top, err := db.GetResults("GSE1", 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestGetResults_Empty(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveSeries(testSeries()))
	_, err := db.GetResults("GSE1", 0)
	assert.ErrorContains(t, err, "no results")
}
