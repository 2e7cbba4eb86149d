package store

import (
	"context"
	"fmt"

	"jobmatch-features/internal/features"
)

const featuresSchema = `
CREATE TABLE IF NOT EXISTS features (
	job_id                    TEXT NOT NULL,
	applicant_id              TEXT NOT NULL,
	label                     INTEGER NOT NULL,
	state_match               INTEGER NOT NULL,
	city_match                INTEGER NOT NULL,
	location_match            INTEGER NOT NULL,
	position_interest_match   INTEGER NOT NULL,
	position_interest_overlap REAL NOT NULL,
	title_similarity_tfidf    REAL NOT NULL,
	desc_keyword_overlap      REAL NOT NULL,
	embedding_similarity      REAL NOT NULL,
	has_both_embeds           INTEGER NOT NULL,
	exp_years_total_capped    REAL NOT NULL,
	exp_recency_days_capped   REAL NOT NULL,
	PRIMARY KEY (job_id, applicant_id)
);`

// SaveFeatures replaces the stored feature matrix with the given rows inside
// one transaction, keeping reruns idempotent.
func (d *DB) SaveFeatures(ctx context.Context, rows []features.Row) error {
	if _, err := d.Pool.ExecContext(ctx, featuresSchema); err != nil {
		return fmt.Errorf("creating features table: %w", err)
	}

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM features`); err != nil {
		return fmt.Errorf("clearing features table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO features (
			job_id, applicant_id, label,
			state_match, city_match, location_match, position_interest_match,
			position_interest_overlap, title_similarity_tfidf, desc_keyword_overlap,
			embedding_similarity, has_both_embeds,
			exp_years_total_capped, exp_recency_days_capped
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.JobID, row.ApplicantID, row.Label,
			row.StateMatch, row.CityMatch, row.LocationMatch, row.PositionInterestMatch,
			row.PositionInterestOverlap, row.TitleSimilarityTFIDF, row.DescKeywordOverlap,
			row.EmbeddingSimilarity, row.HasBothEmbeds,
			row.ExpYearsTotalCapped, row.ExpRecencyDaysCapped,
		)
		if err != nil {
			return fmt.Errorf("inserting feature row (%s, %s): %w", row.JobID, row.ApplicantID, err)
		}
	}

	return tx.Commit()
}

// CountFeatures returns the number of stored feature rows.
func (d *DB) CountFeatures(ctx context.Context) (int, error) {
	var n int
	err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM features`).Scan(&n)
	return n, err
}
