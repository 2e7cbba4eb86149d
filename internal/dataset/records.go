package dataset

import "strings"

// Column names of the raw CSV exports. The dotted names come straight from
// the upstream exports and are validated before any transformation runs.
const (
	ColJobID       = "Job.ID"
	ColApplicantID = "Applicant.ID"

	ColTitle        = "Title"
	ColPosition     = "Position"
	ColCompany      = "Company"
	ColIndustry     = "Industry"
	ColCity         = "City"
	ColStateName    = "State.Name"
	ColStateCode    = "State.Code"
	ColDescription  = "Job.Description"
	ColRequirements = "Requirements"

	ColPositionName = "Position.Name"
	ColEmployerName = "Employer.Name"
	ColStartDate    = "Start.Date"
	ColEndDate      = "End.Date"

	ColViewStart = "View.Start"
	ColViewEnd   = "View.End"

	ColInterest  = "Position.Of.Interest"
	ColCreatedAt = "Created.At"
)

var (
	jobsRequired = []string{
		ColJobID, ColTitle, ColPosition, ColCompany, ColCity,
		ColStateName, ColStateCode, ColDescription,
	}
	experienceRequired = []string{
		ColApplicantID, ColPositionName, ColEmployerName, ColCity,
		ColStateName, ColStateCode, ColStartDate, ColEndDate,
	}
	viewsRequired = []string{
		ColApplicantID, ColJobID, ColTitle, ColCompany, ColViewStart, ColViewEnd,
	}
	interestsRequired = []string{
		ColApplicantID, ColInterest, ColCreatedAt,
	}
)

// Job is a single job posting. Industry and Requirements are optional in the
// export and normalize to empty strings.
type Job struct {
	ID           string
	Title        string
	Position     string
	Company      string
	Industry     string
	City         string
	StateCode    string
	Description  string
	Requirements string
}

// Text returns the canonical free-text representation of the job, used for
// keyword matching and as the embedding source text.
func (j Job) Text() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{j.Title, j.Position, j.Industry, j.Description, j.Requirements} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Experience is one employment record of an applicant. Dates are kept as the
// raw export strings; parsing policy lives in the experience package.
type Experience struct {
	ApplicantID  string
	PositionName string
	EmployerName string
	City         string
	StateCode    string
	StartDate    string
	EndDate      string
}

// View is a job view event reduced to its identity pair.
type View struct {
	ApplicantID string
	JobID       string
}

// Interest is one stated position of interest of an applicant.
type Interest struct {
	ApplicantID string
	Position    string
}

// Raw bundles every loaded table. Tables are immutable once loaded.
type Raw struct {
	Jobs       []Job
	Experience []Experience
	Views      []View
	Interests  []Interest

	// Tables keeps the underlying CSV tables for inspection reports.
	Tables []*Table
}

// Paths locates the raw CSV exports.
type Paths struct {
	Jobs       string
	Experience string
	Views      string
	Interests  string
}

// LoadAll loads and validates all four raw tables.
func LoadAll(paths Paths) (*Raw, error) {
	jobs, jobsTable, err := LoadJobs(paths.Jobs)
	if err != nil {
		return nil, err
	}

	experience, expTable, err := LoadExperience(paths.Experience)
	if err != nil {
		return nil, err
	}

	views, viewsTable, err := LoadViews(paths.Views)
	if err != nil {
		return nil, err
	}

	interests, interestsTable, err := LoadInterests(paths.Interests)
	if err != nil {
		return nil, err
	}

	return &Raw{
		Jobs:       jobs,
		Experience: experience,
		Views:      views,
		Interests:  interests,
		Tables:     []*Table{jobsTable, expTable, viewsTable, interestsTable},
	}, nil
}

// LoadJobs loads the jobs export.
func LoadJobs(path string) ([]Job, *Table, error) {
	t, err := LoadTable(path, "jobs", jobsRequired)
	if err != nil {
		return nil, nil, err
	}

	jobs := make([]Job, 0, len(t.Rows))
	for _, row := range t.Rows {
		jobs = append(jobs, Job{
			ID:           t.Get(row, ColJobID),
			Title:        t.Get(row, ColTitle),
			Position:     t.Get(row, ColPosition),
			Company:      t.Get(row, ColCompany),
			Industry:     t.Get(row, ColIndustry),
			City:         t.Get(row, ColCity),
			StateCode:    t.Get(row, ColStateCode),
			Description:  t.Get(row, ColDescription),
			Requirements: t.Get(row, ColRequirements),
		})
	}
	return jobs, t, nil
}

// LoadExperience loads the applicant experience export.
func LoadExperience(path string) ([]Experience, *Table, error) {
	t, err := LoadTable(path, "experience", experienceRequired)
	if err != nil {
		return nil, nil, err
	}

	records := make([]Experience, 0, len(t.Rows))
	for _, row := range t.Rows {
		records = append(records, Experience{
			ApplicantID:  t.Get(row, ColApplicantID),
			PositionName: t.Get(row, ColPositionName),
			EmployerName: t.Get(row, ColEmployerName),
			City:         t.Get(row, ColCity),
			StateCode:    t.Get(row, ColStateCode),
			StartDate:    t.Get(row, ColStartDate),
			EndDate:      t.Get(row, ColEndDate),
		})
	}
	return records, t, nil
}

// LoadViews loads the job view log.
func LoadViews(path string) ([]View, *Table, error) {
	t, err := LoadTable(path, "views", viewsRequired)
	if err != nil {
		return nil, nil, err
	}

	views := make([]View, 0, len(t.Rows))
	for _, row := range t.Rows {
		views = append(views, View{
			ApplicantID: t.Get(row, ColApplicantID),
			JobID:       t.Get(row, ColJobID),
		})
	}
	return views, t, nil
}

// LoadInterests loads the stated positions of interest.
func LoadInterests(path string) ([]Interest, *Table, error) {
	t, err := LoadTable(path, "interests", interestsRequired)
	if err != nil {
		return nil, nil, err
	}

	interests := make([]Interest, 0, len(t.Rows))
	for _, row := range t.Rows {
		interests = append(interests, Interest{
			ApplicantID: t.Get(row, ColApplicantID),
			Position:    t.Get(row, ColInterest),
		})
	}
	return interests, t, nil
}

// InterestTexts collapses stated interests into one space-joined string of
// unique interests per applicant, in first-seen order.
func InterestTexts(interests []Interest) map[string]string {
	seen := make(map[string]map[string]struct{})
	texts := make(map[string][]string)

	for _, in := range interests {
		if in.Position == "" {
			continue
		}
		if seen[in.ApplicantID] == nil {
			seen[in.ApplicantID] = make(map[string]struct{})
		}
		if _, ok := seen[in.ApplicantID][in.Position]; ok {
			continue
		}
		seen[in.ApplicantID][in.Position] = struct{}{}
		texts[in.ApplicantID] = append(texts[in.ApplicantID], in.Position)
	}

	out := make(map[string]string, len(texts))
	for id, parts := range texts {
		out[id] = strings.Join(parts, " ")
	}
	return out
}
