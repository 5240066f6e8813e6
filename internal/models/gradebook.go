package models

import "time"

// SourceFormat identifies the family an uploaded grade file belongs to.
type SourceFormat string

const (
	// SourceFormatDelimited covers comma/semicolon/tab separated text.
	SourceFormatDelimited SourceFormat = "DELIMITED_TEXT"
	// SourceFormatDocument covers word-processor documents with tab separated lines.
	SourceFormatDocument SourceFormat = "DOCUMENT"
	// SourceFormatSpreadsheet covers spreadsheet workbooks.
	SourceFormatSpreadsheet SourceFormat = "SPREADSHEET"
)

// ColumnRole is the semantic meaning of a grade sheet column.
type ColumnRole string

const (
	ColumnRoleName        ColumnRole = "name"
	ColumnRoleQuiz        ColumnRole = "quiz"
	ColumnRoleHomework    ColumnRole = "homework"
	ColumnRoleCoefficient ColumnRole = "coefficient"
)

// ColumnRoles lists roles in the order they are reported.
var ColumnRoles = []ColumnRole{ColumnRoleName, ColumnRoleQuiz, ColumnRoleHomework, ColumnRoleCoefficient}

// Table is a parsed grade sheet made of string cells. Every row has len(Headers) cells.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Cell returns the cell at row/col or an empty string when out of range.
func (t *Table) Cell(row, col int) string {
	if t == nil || row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// ColumnMapping binds each role to header indexes.
type ColumnMapping struct {
	Name        int   `json:"name"`
	Quizzes     []int `json:"quizzes"`
	Homeworks   []int `json:"homeworks"`
	Coefficient int   `json:"coefficient"`

	NameLabel        string   `json:"name_label"`
	QuizLabels       []string `json:"quiz_labels"`
	HomeworkLabels   []string `json:"homework_labels"`
	CoefficientLabel string   `json:"coefficient_label"`
}

// Score is one labelled numeric cell.
type Score struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// GradeRecord is one student row after numeric coercion.
type GradeRecord struct {
	Identifier  string  `json:"identifier"`
	Quizzes     []Score `json:"quizzes"`
	Homeworks   []Score `json:"homeworks"`
	Coefficient float64 `json:"coefficient"`
}

// StudentResult carries the derived figures for one student.
type StudentResult struct {
	GradeRecord
	QuizAverage     float64 `json:"quiz_average"`
	OverallAverage  float64 `json:"overall_average"`
	WeightedAverage float64 `json:"weighted_average"`
	Rank            int     `json:"rank"`
}

// ClassSummary aggregates overall averages across the class, rounded to two decimals.
type ClassSummary struct {
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
	Min  float64 `json:"min"`
}

// Analysis is the outcome of one pipeline run over an uploaded file.
type Analysis struct {
	ID        string          `json:"id"`
	Filename  string          `json:"filename"`
	Format    SourceFormat    `json:"format"`
	Mapping   ColumnMapping   `json:"mapping"`
	Results   []StudentResult `json:"results"`
	Summary   ClassSummary    `json:"summary"`
	CreatedAt time.Time       `json:"created_at"`
}

// ChartBar is a single bar of the averages chart.
type ChartBar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSpec describes a bar chart independently of any drawing backend.
type ChartSpec struct {
	Title         string     `json:"title"`
	Color         string     `json:"color"`
	LabelRotation float64    `json:"label_rotation"`
	Bars          []ChartBar `json:"bars"`
}

// ReportTable is the tabular view of results.
type ReportTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ReportView bundles everything the UI shows for an analysis.
type ReportView struct {
	SummaryLine string       `json:"summary_line"`
	Summary     ClassSummary `json:"summary"`
	Table       ReportTable  `json:"table"`
	Chart       ChartSpec    `json:"chart"`
}
