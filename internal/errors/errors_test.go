package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/cognivia/internal/errors"
)

func TestCodeOf(t *testing.T) {
	cause := stderrors.New("disk full")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"foreign", cause, errors.ErrCodeInternal},
		{"not found", errors.NewNotFoundError("session", "abc"), errors.ErrCodeNotFound},
		{"wrapped validation", fmt.Errorf("create: %w", errors.NewValidationError("title", "required")), errors.ErrCodeValidation},
		{"persistence", errors.NewPersistenceError("save session", cause), errors.ErrCodePersistence},
		{"unauthenticated", errors.NewUnauthenticatedError("missing token"), errors.ErrCodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.CodeOf(tt.err))
		})
	}
}

func TestPersistenceErrorPreservesCause(t *testing.T) {
	cause := stderrors.New("database is locked")
	err := errors.NewPersistenceError("update session", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Contains(t, err.Error(), "failed to update session")
	assert.Contains(t, err.Error(), "database is locked")
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", errors.NewNotFoundError("session", 1))

	assert.True(t, stderrors.Is(err, &errors.AppError{Code: errors.ErrCodeNotFound}))
	assert.False(t, stderrors.Is(err, &errors.AppError{Code: errors.ErrCodeValidation}))
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, errors.IsValidation(err))
}

func TestAsWrapsForeignErrors(t *testing.T) {
	appErr := errors.As(stderrors.New("boom"))
	assert.Equal(t, errors.ErrCodeInternal, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	orig := errors.NewBadRequestError("bad id")
	assert.Same(t, orig, errors.As(orig))
}
