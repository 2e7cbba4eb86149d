package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobmatch-features/internal/dataset"
	"jobmatch-features/internal/features"
	"jobmatch-features/internal/groundtruth"
)

// fixture writes a tiny but complete raw data directory: 3 jobs, 2
// applicants, 1 view-derived positive.
func fixture(t *testing.T) (dataset.Paths, string, string) {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	paths := dataset.Paths{
		Jobs: write("jobs.csv",
			"Job.ID,Title,Position,Company,City,State.Name,State.Code,Job.Description\n"+
				"J1,Senior Engineer,Engineer,Acme,Boston,Massachusetts,MA,Backend work\n"+
				"J2,Store Manager,Manager,Globex,Austin,Texas,TX,Runs the store\n"+
				"J3,Line Cook,Cook,Initech,Denver,Colorado,CO,Cooks food\n"),
		Experience: write("experience.csv",
			"Applicant.ID,Position.Name,Employer.Name,City,State.Name,State.Code,Start.Date,End.Date\n"+
				"A1,Engineer,Acme,Boston,Massachusetts,MA,2019-01-01,\n"+
				"A2,Cashier,Globex,Austin,Texas,TX,2018-01-01,2020-01-01\n"),
		Views: write("views.csv",
			"Applicant.ID,Job.ID,Title,Company,View.Start,View.End\n"+
				"A1,J1,Senior Engineer,Acme,2023-01-01,2023-01-01\n"),
		Interests: write("interests.csv",
			"Applicant.ID,Position.Of.Interest,Created.At\n"+
				"A1,Senior Engineer,2023-01-01\n"+
				"A2,Astronaut,2023-01-01\n"),
	}

	jobEmb := write("job_embeddings.csv",
		"Job.ID,0,1\nJ1,1,0\nJ2,0,1\nJ3,0.5,0.5\n")
	appEmb := write("applicant_embeddings.csv",
		"Applicant.ID,0,1\nA1,1,0\nA2,0,1\n")

	return paths, jobEmb, appEmb
}

func stages(paths dataset.Paths, jobEmb, appEmb string, seed int64) []Stage {
	return []Stage{
		NewLoad(paths),
		NewAggregate(),
		NewGroundTruth(groundtruth.Options{}),
		NewNegatives(2, 10, seed),
		NewEmbeddings(jobEmb, appEmb),
		NewFeatures(features.Config{Workers: 2}),
	}
}

func TestEndToEnd(t *testing.T) {
	paths, jobEmb, appEmb := fixture(t)

	state := &State{Now: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, Run(context.Background(), zap.NewNop(), stages(paths, jobEmb, appEmb, 42), state))

	// The interest resolves to the already-viewed J1, so positives dedup
	// to one pair.
	assert.Equal(t, 1, state.GroundTruthReport.Total)
	assert.Equal(t, 1, state.GroundTruthReport.FromViews)
	assert.Equal(t, 1, state.GroundTruthReport.Overlap)
	assert.Equal(t, 1, state.GroundTruthReport.InterestsUnresolved)

	require.NotNil(t, state.Features)
	rows := state.Features.Rows

	require.GreaterOrEqual(t, len(rows), 1)
	require.LessOrEqual(t, len(rows), 5, "1 positive + up to 4 negatives")

	assert.Equal(t, "J1", rows[0].JobID)
	assert.Equal(t, "A1", rows[0].ApplicantID)
	assert.Equal(t, 1, rows[0].Label)
	for _, row := range rows[1:] {
		assert.Zero(t, row.Label)
	}

	// Every row fully populated: both applicants have experience and all
	// IDs have embeddings.
	for _, row := range rows {
		assert.Equal(t, 1, row.HasBothEmbeds)
		assert.Less(t, row.ExpRecencyDaysCapped, float64(features.RecencyCapDays))
	}
}

func TestEndToEndReproducible(t *testing.T) {
	paths, jobEmb, appEmb := fixture(t)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	outDir := t.TempDir()

	runOnce := func(path string) []byte {
		state := &State{Now: now}
		require.NoError(t, Run(context.Background(), zap.NewNop(), stages(paths, jobEmb, appEmb, 7), state))
		require.NoError(t, features.WriteCSV(path, state.Features.Rows))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return data
	}

	first := runOnce(filepath.Join(outDir, "first.csv"))
	second := runOnce(filepath.Join(outDir, "second.csv"))

	assert.Equal(t, first, second, "same inputs and seed must yield byte-identical output")
}

func TestStageOrderIsEnforced(t *testing.T) {
	state := &State{Now: time.Now()}

	err := Run(context.Background(), zap.NewNop(), []Stage{NewAggregate()}, state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aggregate_experience")
}

func TestLoadFailureNamesTheTable(t *testing.T) {
	paths, jobEmb, appEmb := fixture(t)
	paths.Views = filepath.Join(t.TempDir(), "missing.csv")

	state := &State{Now: time.Now()}
	err := Run(context.Background(), zap.NewNop(), stages(paths, jobEmb, appEmb, 1), state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "views table")
}
