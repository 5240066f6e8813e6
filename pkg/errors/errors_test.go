package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	err := fmt.Errorf("parse: %w", UnsupportedFormat(".pdf"))

	appErr := FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrUnsupportedFormat.Code, appErr.Code)
	assert.Equal(t, http.StatusUnsupportedMediaType, appErr.Status)
	assert.Contains(t, appErr.Message, ".pdf")
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, "internal server error: boom", appErr.Error())
}

func TestClonedErrorsMatchByCode(t *testing.T) {
	err := MissingColumns([]string{"quiz", "coefficient"})
	assert.True(t, errors.Is(err, ErrMissingColumns))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "missing required columns: quiz, coefficient", err.Message)
}
