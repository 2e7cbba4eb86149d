package features

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Header is the column order of the feature CSV.
var Header = []string{
	"Job.ID",
	"Applicant.ID",
	"label",
	"state_match",
	"city_match",
	"location_match",
	"position_interest_match",
	"position_interest_overlap",
	"title_similarity_tfidf",
	"desc_keyword_overlap",
	"embedding_similarity",
	"has_both_embeds",
	"exp_years_total_capped",
	"exp_recency_days_capped",
}

// WriteCSV writes the feature matrix as a flat delimited file. Numeric
// formatting is fixed so identical inputs produce byte-identical output.
func WriteCSV(path string, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating feature file %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("writing feature header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.JobID,
			row.ApplicantID,
			strconv.Itoa(row.Label),
			strconv.Itoa(row.StateMatch),
			strconv.Itoa(row.CityMatch),
			strconv.Itoa(row.LocationMatch),
			strconv.Itoa(row.PositionInterestMatch),
			formatFloat(row.PositionInterestOverlap),
			formatFloat(row.TitleSimilarityTFIDF),
			formatFloat(row.DescKeywordOverlap),
			formatFloat(row.EmbeddingSimilarity),
			strconv.Itoa(row.HasBothEmbeds),
			formatFloat(row.ExpYearsTotalCapped),
			formatFloat(row.ExpRecencyDaysCapped),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing feature row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing feature file %s: %w", path, err)
	}
	return nil
}

// WriteIDList writes one ID per line, for the missing-embedding side outputs.
func WriteIDList(path string, ids []string) error {
	data := strings.Join(ids, "\n")
	if len(ids) > 0 {
		data += "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing id list %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
