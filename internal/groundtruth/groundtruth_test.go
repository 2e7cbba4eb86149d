package groundtruth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-features/internal/dataset"
)

func TestViewAndInterestDeduplicate(t *testing.T) {
	views := []dataset.View{{ApplicantID: "A1", JobID: "J1"}}
	interests := []dataset.Interest{{ApplicantID: "A1", Position: "Senior Engineer"}}
	jobs := []dataset.Job{{ID: "J1", Title: "Senior Engineer"}}

	pairs, set, report := Build(views, interests, jobs, Options{})

	require.Len(t, pairs, 1)
	assert.Equal(t, LabeledPair{JobID: "J1", ApplicantID: "A1", Label: 1}, pairs[0])
	assert.True(t, set.Contains(Pair{JobID: "J1", ApplicantID: "A1"}))

	assert.Equal(t, 1, report.FromViews)
	assert.Equal(t, 1, report.FromInterests)
	assert.Equal(t, 1, report.Overlap)
	assert.Equal(t, 1, report.Total)
}

func TestInterestResolutionIsExactTrimmedCaseInsensitive(t *testing.T) {
	jobs := []dataset.Job{{ID: "J1", Title: "Registered Nurse"}}
	interests := []dataset.Interest{
		{ApplicantID: "A1", Position: "  registered NURSE  "},
		{ApplicantID: "A2", Position: "Nurse"},
	}

	pairs, _, report := Build(nil, interests, jobs, Options{})

	require.Len(t, pairs, 1)
	assert.Equal(t, "A1", pairs[0].ApplicantID)
	assert.Equal(t, 1, report.InterestsUnresolved)
}

func TestFuzzyInterestMatchIsOptIn(t *testing.T) {
	jobs := []dataset.Job{{ID: "J1", Title: "Senior Registered Nurse"}}
	interests := []dataset.Interest{{ApplicantID: "A1", Position: "Registered Nurse"}}

	pairs, _, _ := Build(nil, interests, jobs, Options{})
	assert.Empty(t, pairs)

	pairs, _, _ = Build(nil, interests, jobs, Options{FuzzyInterestMatch: true})
	require.Len(t, pairs, 1)
	assert.Equal(t, "J1", pairs[0].JobID)
}

func TestDuplicateViewsCollapse(t *testing.T) {
	views := []dataset.View{
		{ApplicantID: "A1", JobID: "J1"},
		{ApplicantID: "A1", JobID: "J1"},
		{ApplicantID: "A2", JobID: "J1"},
	}

	pairs, _, report := Build(views, nil, nil, Options{})
	assert.Len(t, pairs, 2)
	assert.Equal(t, 2, report.FromViews)
}

func TestBlankSignalsAreIgnored(t *testing.T) {
	views := []dataset.View{{ApplicantID: "", JobID: "J1"}, {ApplicantID: "A1", JobID: ""}}
	interests := []dataset.Interest{{ApplicantID: "A1", Position: "   "}}

	pairs, _, report := Build(views, interests, []dataset.Job{{ID: "J1", Title: "X"}}, Options{})
	assert.Empty(t, pairs)
	assert.Zero(t, report.InterestsUnresolved)
}

func TestDuplicateTitlesResolveToFirstJob(t *testing.T) {
	jobs := []dataset.Job{
		{ID: "J1", Title: "Cashier"},
		{ID: "J2", Title: "Cashier"},
	}
	interests := []dataset.Interest{{ApplicantID: "A1", Position: "Cashier"}}

	pairs, _, _ := Build(nil, interests, jobs, Options{})
	require.Len(t, pairs, 1)
	assert.Equal(t, "J1", pairs[0].JobID)
}
