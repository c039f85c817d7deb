package store

import (
	"fmt"
	"time"

	"tcellatlas/internal/pheno"
)

// SaveSeries replaces the stored metadata for a series with the given
// tidied table.
func (d *DB) SaveSeries(s *pheno.Series) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM series WHERE accession = ?`, s.Accession); err != nil {
		return fmt.Errorf("clearing series %s: %w", s.Accession, err)
	}
	if _, err := tx.Exec(`INSERT INTO series (accession, tidied_at) VALUES (?, ?)`,
		s.Accession, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("inserting series %s: %w", s.Accession, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO samples (accession, series, platform, supplementary, title,
		                     condition, treatment, elapsed, replicate, chip)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing sample insert: %w", err)
	}
	defer stmt.Close()

	for _, sm := range s.Samples {
		if _, err := stmt.Exec(sm.Accession, s.Accession, sm.Platform, sm.Supplementary,
			sm.Title, sm.Condition, sm.Treatment, sm.Time, sm.Replicate, sm.Chip); err != nil {
			return fmt.Errorf("inserting sample %s: %w", sm.Accession, err)
		}
	}

	return tx.Commit()
}

// GetSeries loads the tidied metadata for a series. Returns an error
// when the series has not been tidied yet.
func (d *DB) GetSeries(accession string) (*pheno.Series, error) {
	var count int
	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM series WHERE accession = ?`, accession).
		Scan(&count); err != nil {
		return nil, fmt.Errorf("checking series %s: %w", accession, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("series %s not tidied yet (run: tcellatlas tidy %s)", accession, accession)
	}

	rows, err := d.conn.Query(`
		SELECT accession, platform, supplementary, title, condition, treatment, elapsed, replicate, chip
		FROM samples WHERE series = ? ORDER BY accession`, accession)
	if err != nil {
		return nil, fmt.Errorf("querying samples for %s: %w", accession, err)
	}
	defer rows.Close()

	s := &pheno.Series{Accession: accession}
	for rows.Next() {
		var sm pheno.Sample
		if err := rows.Scan(&sm.Accession, &sm.Platform, &sm.Supplementary, &sm.Title,
			&sm.Condition, &sm.Treatment, &sm.Time, &sm.Replicate, &sm.Chip); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		s.Samples = append(s.Samples, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading samples for %s: %w", accession, err)
	}
	return s, nil
}
