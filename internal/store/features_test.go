package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-features/internal/features"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "features.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRows() []features.Row {
	return []features.Row{
		{
			JobID: "J1", ApplicantID: "A1", Label: 1,
			StateMatch: 1, CityMatch: 1, LocationMatch: 1,
			PositionInterestMatch:   1,
			PositionInterestOverlap: 1,
			TitleSimilarityTFIDF:    0.8,
			DescKeywordOverlap:      0.25,
			EmbeddingSimilarity:     0.91,
			HasBothEmbeds:           1,
			ExpYearsTotalCapped:     6.5,
			ExpRecencyDaysCapped:    30,
		},
		{
			JobID: "J2", ApplicantID: "A2",
			ExpRecencyDaysCapped: 3650,
		},
	}
}

func TestSaveAndCountFeatures(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveFeatures(ctx, sampleRows()))

	n, err := db.CountFeatures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSaveFeaturesRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	rows := sampleRows()

	require.NoError(t, db.SaveFeatures(ctx, rows))

	var (
		label              int
		titleSim, recency  float64
		jobID, applicantID string
	)
	err := db.Pool.QueryRowContext(ctx, `
		SELECT job_id, applicant_id, label, title_similarity_tfidf, exp_recency_days_capped
		FROM features WHERE job_id = ? AND applicant_id = ?`, "J1", "A1").
		Scan(&jobID, &applicantID, &label, &titleSim, &recency)
	require.NoError(t, err)

	assert.Equal(t, "J1", jobID)
	assert.Equal(t, "A1", applicantID)
	assert.Equal(t, 1, label)
	assert.InDelta(t, 0.8, titleSim, 1e-9)
	assert.InDelta(t, 30, recency, 1e-9)
}

func TestSaveFeaturesReplacesOnRerun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveFeatures(ctx, sampleRows()))

	// A rerun with fewer rows must not leave stale rows behind.
	require.NoError(t, db.SaveFeatures(ctx, sampleRows()[:1]))

	n, err := db.CountFeatures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSaveFeaturesEmptySet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.SaveFeatures(ctx, nil))

	n, err := db.CountFeatures(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
