package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/noah-isme/notabilis-api/internal/models"
	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

// overallHomeworkColumns is how many homework columns enter the overall average.
// Further homework columns are displayed but ignored by the formula.
const overallHomeworkColumns = 2

// ScoreParsing controls how cells are read as scores.
type ScoreParsing struct {
	// DecimalComma reads "12,5" as 12.5 instead of treating it as non-numeric.
	DecimalComma bool
}

// CoerceScore parses a cell as a score. Empty, non-numeric, non-finite and
// negative values all become 0.
func CoerceScore(raw string) float64 {
	return ScoreParsing{}.Coerce(raw)
}

// Coerce parses a cell as a score under p.
func (p ScoreParsing) Coerce(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if p.DecimalComma && strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	rounded, err := stats.Round(v, 2)
	if err != nil {
		return 0
	}
	return rounded
}

// BuildRecords coerces the mapped cells of every row into grade records.
func BuildRecords(table *models.Table, mapping *models.ColumnMapping, parsing ScoreParsing) []models.GradeRecord {
	records := make([]models.GradeRecord, len(table.Rows))
	for row := range table.Rows {
		rec := models.GradeRecord{
			Identifier:  table.Cell(row, mapping.Name),
			Quizzes:     make([]models.Score, len(mapping.Quizzes)),
			Homeworks:   make([]models.Score, len(mapping.Homeworks)),
			Coefficient: parsing.Coerce(table.Cell(row, mapping.Coefficient)),
		}
		for i, col := range mapping.Quizzes {
			rec.Quizzes[i] = models.Score{Label: table.Headers[col], Value: parsing.Coerce(table.Cell(row, col))}
		}
		for i, col := range mapping.Homeworks {
			rec.Homeworks[i] = models.Score{Label: table.Headers[col], Value: parsing.Coerce(table.Cell(row, col))}
		}
		records[row] = rec
	}
	return records
}

// Calculate derives per-student averages, ranks and the class summary.
func Calculate(table *models.Table, mapping *models.ColumnMapping, parsing ScoreParsing) ([]models.StudentResult, models.ClassSummary, error) {
	if table == nil || mapping == nil {
		return nil, models.ClassSummary{}, appErrors.Clone(appErrors.ErrValidation, "nothing to calculate")
	}
	if len(mapping.Homeworks) < overallHomeworkColumns {
		return nil, models.ClassSummary{}, appErrors.Clone(appErrors.ErrValidation, "at least two homework columns required")
	}
	if len(table.Rows) == 0 {
		return nil, models.ClassSummary{}, appErrors.Clone(appErrors.ErrValidation, "no student rows")
	}

	records := BuildRecords(table, mapping, parsing)
	results := make([]models.StudentResult, len(records))
	overall := make([]float64, len(records))
	for i, rec := range records {
		quizAvg := mean(rec.Quizzes)
		avg := (quizAvg + rec.Homeworks[0].Value + rec.Homeworks[1].Value) / 3
		results[i] = models.StudentResult{
			GradeRecord:     rec,
			QuizAverage:     quizAvg,
			OverallAverage:  avg,
			WeightedAverage: avg * rec.Coefficient,
		}
		if !finite(quizAvg, avg, avg*rec.Coefficient) {
			return nil, models.ClassSummary{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("scores for %q are too large to average", rec.Identifier))
		}
		overall[i] = avg
	}

	for i, rank := range RankDescending(overall) {
		results[i].Rank = rank
	}

	summary, err := Summarize(overall)
	if err != nil {
		return nil, models.ClassSummary{}, err
	}
	return results, summary, nil
}

// RankDescending gives each value 1 + the number of strictly greater values, so ties share the lowest rank.
func RankDescending(values []float64) []int {
	ranks := make([]int, len(values))
	for i, v := range values {
		greater := 0
		for _, other := range values {
			if other > v {
				greater++
			}
		}
		ranks[i] = greater + 1
	}
	return ranks
}

// Summarize returns mean, max and min of the overall averages rounded to two decimals.
func Summarize(overall []float64) (models.ClassSummary, error) {
	data := stats.Float64Data(overall)
	mean, err := data.Mean()
	if err != nil {
		return models.ClassSummary{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "no student rows")
	}
	max, err := data.Max()
	if err != nil {
		return models.ClassSummary{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "no student rows")
	}
	min, err := data.Min()
	if err != nil {
		return models.ClassSummary{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "no student rows")
	}
	return models.ClassSummary{Mean: Round2(mean), Max: Round2(max), Min: Round2(min)}, nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func mean(scores []models.Score) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Value
	}
	return sum / float64(len(scores))
}
