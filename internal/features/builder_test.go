package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-features/internal/dataset"
	"jobmatch-features/internal/embeddings"
	"jobmatch-features/internal/experience"
	"jobmatch-features/internal/groundtruth"
)

func testInputs() Inputs {
	jobs := []dataset.Job{
		{
			ID:          "J1",
			Title:       "Senior Engineer",
			Position:    "Engineer",
			City:        "Boston",
			StateCode:   "MA",
			Description: "Backend services in Boston office",
		},
		{
			ID:        "J2",
			Title:     "Store Manager",
			Position:  "Manager",
			City:      "Austin",
			StateCode: "TX",
		},
	}

	aggregates := map[string]experience.Aggregate{
		"A1": {
			ApplicantID:  "A1",
			YearsTotal:   6.5,
			LastCity:     "Boston",
			LastState:    "MA",
			LastPosition: "Engineer",
			RecencyDays:  30,
			TitlesConcat: "Developer Engineer",
		},
	}

	return Inputs{
		Pairs: []groundtruth.LabeledPair{
			{JobID: "J1", ApplicantID: "A1", Label: 1},
			{JobID: "J2", ApplicantID: "A2", Label: 0},
		},
		Jobs:             jobs,
		Experience:       aggregates,
		Interests:        map[string]string{"A1": "Engineer"},
		JobVectors:       embeddings.NewTable("job", map[string][]float64{"J1": {1, 0}}),
		ApplicantVectors: embeddings.NewTable("applicant", map[string][]float64{"A1": {1, 0}}),
	}
}

func TestBuildMatchedPair(t *testing.T) {
	out, err := Build(context.Background(), testInputs(), Config{})
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)

	row := out.Rows[0]
	assert.Equal(t, "J1", row.JobID)
	assert.Equal(t, 1, row.Label)
	assert.Equal(t, 1, row.StateMatch)
	assert.Equal(t, 1, row.CityMatch)
	assert.Equal(t, 1, row.LocationMatch, "city appears in the job text")
	assert.Equal(t, 1, row.PositionInterestMatch)
	assert.InDelta(t, 1.0, row.PositionInterestOverlap, 1e-9)
	assert.Greater(t, row.TitleSimilarityTFIDF, 0.0)
	assert.Greater(t, row.DescKeywordOverlap, 0.0)
	assert.InDelta(t, 1.0, row.EmbeddingSimilarity, 1e-9)
	assert.Equal(t, 1, row.HasBothEmbeds)
	assert.InDelta(t, 6.5, row.ExpYearsTotalCapped, 1e-9)
	assert.InDelta(t, 30, row.ExpRecencyDaysCapped, 1e-9)
}

func TestBuildJoinMissFillsDefaults(t *testing.T) {
	out, err := Build(context.Background(), testInputs(), Config{})
	require.NoError(t, err)

	// A2 has no experience, no interests, and no embedding.
	row := out.Rows[1]
	assert.Equal(t, "A2", row.ApplicantID)
	assert.Equal(t, 0, row.CityMatch)
	assert.Equal(t, 0, row.LocationMatch)
	assert.Zero(t, row.PositionInterestOverlap)
	assert.Zero(t, row.TitleSimilarityTFIDF)
	assert.Zero(t, row.EmbeddingSimilarity)
	assert.Equal(t, 0, row.HasBothEmbeds)
	assert.Zero(t, row.ExpYearsTotalCapped)
	assert.InDelta(t, RecencyCapDays, row.ExpRecencyDaysCapped, 1e-9, "sentinel recency clips to the cap")
}

func TestBuildEmptyLocationsCountAsMatch(t *testing.T) {
	in := testInputs()
	in.Jobs = []dataset.Job{{ID: "J2"}}
	in.Pairs = []groundtruth.LabeledPair{{JobID: "J2", ApplicantID: "A2", Label: 0}}

	out, err := Build(context.Background(), in, Config{})
	require.NoError(t, err)

	// Empty state and city on both sides compare equal.
	row := out.Rows[0]
	assert.Equal(t, 1, row.StateMatch)
	assert.Equal(t, 1, row.CityMatch)
	assert.Equal(t, 0, row.LocationMatch, "unknown city never substring-matches")
}

func TestBuildUnknownJobFillsDefaults(t *testing.T) {
	in := testInputs()
	in.Pairs = append(in.Pairs, groundtruth.LabeledPair{JobID: "J404", ApplicantID: "A1", Label: 0})

	out, err := Build(context.Background(), in, Config{})
	require.NoError(t, err)
	require.Len(t, out.Rows, 3)

	row := out.Rows[2]
	assert.Equal(t, "J404", row.JobID)
	assert.Equal(t, 0, row.StateMatch, "empty job state against a known applicant state")
	assert.Zero(t, row.DescKeywordOverlap)
}

func TestBuildCapsOutliers(t *testing.T) {
	in := testInputs()
	in.Experience["A1"] = experience.Aggregate{
		ApplicantID: "A1",
		YearsTotal:  55,
		RecencyDays: 9999,
	}

	out, err := Build(context.Background(), in, Config{})
	require.NoError(t, err)

	row := out.Rows[0]
	assert.InDelta(t, YearsCap, row.ExpYearsTotalCapped, 1e-9)
	assert.InDelta(t, RecencyCapDays, row.ExpRecencyDaysCapped, 1e-9)
}

func TestBuildDropMissingMode(t *testing.T) {
	out, err := Build(context.Background(), testInputs(), Config{DropMissingEmbeddings: true})
	require.NoError(t, err)

	require.Len(t, out.Rows, 1)
	assert.Equal(t, "J1", out.Rows[0].JobID)
	assert.Equal(t, 1, out.DroppedMissing)

	// Coverage still accounts for the dropped row.
	assert.Equal(t, 2, out.Coverage.Pairs)
	assert.Equal(t, 1, out.Coverage.MissingJob)
}

func TestBuildOrderIndependentOfWorkers(t *testing.T) {
	in := testInputs()
	// Widen the pair list so chunking actually splits.
	for i := 0; i < 20; i++ {
		in.Pairs = append(in.Pairs, groundtruth.LabeledPair{JobID: "J1", ApplicantID: "A2", Label: 0})
		in.Pairs = append(in.Pairs, groundtruth.LabeledPair{JobID: "J2", ApplicantID: "A1", Label: 0})
	}

	sequential, err := Build(context.Background(), in, Config{Workers: 1})
	require.NoError(t, err)
	parallel, err := Build(context.Background(), in, Config{Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, sequential.Rows, parallel.Rows)
}

func TestBuildDoesNotMutateInputs(t *testing.T) {
	in := testInputs()
	before := in.Experience["A1"]

	_, err := Build(context.Background(), in, Config{})
	require.NoError(t, err)

	assert.Equal(t, before, in.Experience["A1"])
	assert.Equal(t, "Senior Engineer", in.Jobs[0].Title)
}

func TestBuildReproducible(t *testing.T) {
	in := testInputs()

	first, err := Build(context.Background(), in, Config{})
	require.NoError(t, err)

	// Re-fitting on identical inputs must be bit-for-bit identical.
	time.Sleep(time.Millisecond)
	second, err := Build(context.Background(), in, Config{})
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.VocabularySize, second.VocabularySize)
}
