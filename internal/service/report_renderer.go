package service

import (
	"fmt"
	"strconv"

	"github.com/noah-isme/notabilis-api/internal/models"
)

// ReportOptions controls the titles and colours of the rendered report.
type ReportOptions struct {
	ChartTitle string
	ChartColor string
}

const (
	defaultChartTitle = "Averages chart"
	defaultChartColor = "#87CEEB"
	labelRotation     = 90
)

// BuildReport assembles the summary line, results table and chart description.
// It performs no drawing.
func BuildReport(results []models.StudentResult, summary models.ClassSummary, mapping models.ColumnMapping, opts ReportOptions) models.ReportView {
	if opts.ChartTitle == "" {
		opts.ChartTitle = defaultChartTitle
	}
	if opts.ChartColor == "" {
		opts.ChartColor = defaultChartColor
	}

	headers := make([]string, 0, 6+len(mapping.QuizLabels)+len(mapping.HomeworkLabels))
	headers = append(headers, mapping.NameLabel)
	headers = append(headers, mapping.QuizLabels...)
	headers = append(headers, mapping.HomeworkLabels...)
	headers = append(headers, mapping.CoefficientLabel, "quiz_average", "overall_average", "weighted_average", "rank")

	rows := make([][]string, 0, len(results))
	bars := make([]models.ChartBar, 0, len(results))
	for _, res := range results {
		row := make([]string, 0, len(headers))
		row = append(row, res.Identifier)
		for _, q := range res.Quizzes {
			row = append(row, formatNumber(q.Value))
		}
		for _, h := range res.Homeworks {
			row = append(row, formatNumber(h.Value))
		}
		row = append(row,
			formatNumber(res.Coefficient),
			formatNumber(res.QuizAverage),
			formatNumber(res.OverallAverage),
			formatNumber(res.WeightedAverage),
			strconv.Itoa(res.Rank),
		)
		rows = append(rows, row)
		bars = append(bars, models.ChartBar{Label: res.Identifier, Value: res.OverallAverage})
	}

	return models.ReportView{
		SummaryLine: SummaryLine(summary),
		Summary:     summary,
		Table:       models.ReportTable{Headers: headers, Rows: rows},
		Chart: models.ChartSpec{
			Title:         opts.ChartTitle,
			Color:         opts.ChartColor,
			LabelRotation: labelRotation,
			Bars:          bars,
		},
	}
}

// SummaryLine is the status message shown above the results.
func SummaryLine(summary models.ClassSummary) string {
	return fmt.Sprintf("Class average: %.2f | Highest: %.2f | Lowest: %.2f", summary.Mean, summary.Max, summary.Min)
}

// formatNumber prints at most two decimals and drops trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', -1, 64)
}
