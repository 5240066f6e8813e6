package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

func TestResolveFrenchHeaders(t *testing.T) {
	resolver := NewColumnResolver(DefaultColumnKeywords())

	mapping, err := resolver.Resolve([]string{" NOM ", "Interro1", "Devoir1", "Dévoir2", "Coéf"})
	require.NoError(t, err)

	assert.Equal(t, 0, mapping.Name)
	assert.Equal(t, []int{1}, mapping.Quizzes)
	assert.Equal(t, []int{2, 3}, mapping.Homeworks)
	assert.Equal(t, 4, mapping.Coefficient)
	assert.Equal(t, " NOM ", mapping.NameLabel)
	assert.Equal(t, []string{"Devoir1", "Dévoir2"}, mapping.HomeworkLabels)
	assert.Equal(t, "Coéf", mapping.CoefficientLabel)
}

func TestResolveSingularRolesTakeFirstMatch(t *testing.T) {
	resolver := NewColumnResolver(DefaultColumnKeywords())

	mapping, err := resolver.Resolve([]string{"Name", "Quiz A", "Quiz B", "Homework 1", "Homework 2", "Coefficient", "Nickname"})
	require.NoError(t, err)

	assert.Equal(t, 0, mapping.Name)
	assert.Equal(t, []int{1, 2}, mapping.Quizzes)
	assert.Equal(t, 5, mapping.Coefficient)
}

func TestResolveMissingColumns(t *testing.T) {
	resolver := NewColumnResolver(DefaultColumnKeywords())

	_, err := resolver.Resolve([]string{"Student", "Quiz", "Notes"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrMissingColumns)
	assert.Equal(t, "missing required columns: name, homework, coefficient", err.Error())
}

func TestResolveCustomKeywords(t *testing.T) {
	resolver := NewColumnResolver(ColumnKeywords{
		Name:     []string{"student"},
		Quiz:     []string{"test"},
		Homework: []string{"assignment"},
	})

	mapping, err := resolver.Resolve([]string{"Student", "Test 1", "Assignment 1", "Assignment 2", "Coef"})
	require.NoError(t, err)
	assert.Equal(t, 0, mapping.Name)
	assert.Equal(t, []int{1}, mapping.Quizzes)
	assert.Equal(t, []int{2, 3}, mapping.Homeworks)
	assert.Equal(t, 4, mapping.Coefficient)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "interrogation", NormalizeHeader("  Intérrogation "))
	assert.Equal(t, "coef", NormalizeHeader("CoËF"))
	assert.Equal(t, "", NormalizeHeader("   "))
}
