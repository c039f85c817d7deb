package store

import (
	"fmt"

	"tcellatlas/internal/diffexpr"
)

// SaveResults replaces the stored differential-expression table for a
// series. Rank preserves the significance ordering of the input slice.
func (d *DB) SaveResults(series string, results []diffexpr.Result) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM de_results WHERE series = ?`, series); err != nil {
		return fmt.Errorf("clearing results for %s: %w", series, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO de_results (series, rank, gene, log_fc, ave_expr, t, p_value, adj_p_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing result insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.Exec(series, i+1, r.Gene, r.LogFC, r.AveExpr, r.T, r.P, r.AdjP); err != nil {
			return fmt.Errorf("inserting result for gene %s: %w", r.Gene, err)
		}
	}

	return tx.Commit()
}

// GetResults loads the ranked differential-expression table for a
// series, limited to the top n rows (n <= 0 means all).
func (d *DB) GetResults(series string, n int) ([]diffexpr.Result, error) {
	query := `
		SELECT gene, log_fc, ave_expr, t, p_value, adj_p_value
		FROM de_results WHERE series = ? ORDER BY rank`
	args := []any{series}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying results for %s: %w", series, err)
	}
	defer rows.Close()

	var results []diffexpr.Result
	for rows.Next() {
		var r diffexpr.Result
		if err := rows.Scan(&r.Gene, &r.LogFC, &r.AveExpr, &r.T, &r.P, &r.AdjP); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading results for %s: %w", series, err)
	}
	if results == nil {
		return nil, fmt.Errorf("no results stored for %s (run: tcellatlas de %s)", series, series)
	}
	return results, nil
}
