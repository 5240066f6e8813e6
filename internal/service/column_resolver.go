package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/notabilis-api/internal/models"
	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

// ColumnKeywords lists the header substrings recognised per role.
type ColumnKeywords struct {
	Name        []string
	Quiz        []string
	Homework    []string
	Coefficient []string
}

// DefaultColumnKeywords accepts English and French grade sheets.
func DefaultColumnKeywords() ColumnKeywords {
	return ColumnKeywords{
		Name:        []string{"name", "nom"},
		Quiz:        []string{"quiz", "interro"},
		Homework:    []string{"homework", "devoir"},
		Coefficient: []string{"coefficient", "coef"},
	}
}

// ColumnResolver maps free-form headers onto the four grade sheet roles.
type ColumnResolver struct {
	keywords map[models.ColumnRole][]string
}

// NewColumnResolver normalises keywords once; empty lists fall back to the defaults.
func NewColumnResolver(keywords ColumnKeywords) *ColumnResolver {
	defaults := DefaultColumnKeywords()
	pick := func(custom, fallback []string) []string {
		if len(custom) == 0 {
			custom = fallback
		}
		out := make([]string, 0, len(custom))
		for _, kw := range custom {
			if n := NormalizeHeader(kw); n != "" {
				out = append(out, n)
			}
		}
		return out
	}
	return &ColumnResolver{keywords: map[models.ColumnRole][]string{
		models.ColumnRoleName:        pick(keywords.Name, defaults.Name),
		models.ColumnRoleQuiz:        pick(keywords.Quiz, defaults.Quiz),
		models.ColumnRoleHomework:    pick(keywords.Homework, defaults.Homework),
		models.ColumnRoleCoefficient: pick(keywords.Coefficient, defaults.Coefficient),
	}}
}

// Resolve returns the column mapping or a MissingColumns error naming every absent role.
// Singular roles take the first matching header, plural roles collect all matches.
func (r *ColumnResolver) Resolve(headers []string) (*models.ColumnMapping, error) {
	matches := make(map[models.ColumnRole][]int, len(models.ColumnRoles))
	for idx, header := range headers {
		normalized := NormalizeHeader(header)
		if normalized == "" {
			continue
		}
		for _, role := range models.ColumnRoles {
			if containsAny(normalized, r.keywords[role]) {
				matches[role] = append(matches[role], idx)
			}
		}
	}

	var missing []string
	for _, role := range models.ColumnRoles {
		if len(matches[role]) == 0 {
			missing = append(missing, string(role))
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.MissingColumns(missing)
	}

	mapping := &models.ColumnMapping{
		Name:        matches[models.ColumnRoleName][0],
		Quizzes:     matches[models.ColumnRoleQuiz],
		Homeworks:   matches[models.ColumnRoleHomework],
		Coefficient: matches[models.ColumnRoleCoefficient][0],
	}
	mapping.NameLabel = headers[mapping.Name]
	mapping.CoefficientLabel = headers[mapping.Coefficient]
	mapping.QuizLabels = labels(headers, mapping.Quizzes)
	mapping.HomeworkLabels = labels(headers, mapping.Homeworks)
	return mapping, nil
}

// NormalizeHeader trims, lowercases and strips diacritics so "Coéf " matches "coef".
func NormalizeHeader(header string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, header)
	if err != nil {
		folded = header
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func labels(headers []string, idxs []int) []string {
	out := make([]string, len(idxs))
	for i, idx := range idxs {
		out[i] = headers[idx]
	}
	return out
}
