package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillapp/quill/internal/domain"
	"github.com/quillapp/quill/internal/errors"
	"github.com/quillapp/quill/internal/validation"
)

type testRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Name     string `json:"name" validate:"required"`
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()

	var derr *errors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, errors.CodeValidation, derr.Code)

	fields, ok := derr.Details.(map[string]string)
	require.True(t, ok, "details carry per-field messages")
	return fields
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{
		Email:    "test@example.com",
		Password: "password123",
		Name:     "Test User",
	})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       testRequest
		wantField string
	}{
		{
			name:      "missing required field",
			req:       testRequest{Email: "test@example.com", Password: "password123"},
			wantField: "name",
		},
		{
			name:      "invalid email",
			req:       testRequest{Email: "not-an-email", Password: "password123", Name: "Test"},
			wantField: "email",
		},
		{
			name:      "password too short",
			req:       testRequest{Email: "test@example.com", Password: "short", Name: "Test"},
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.Contains(t, fieldErrors(t, err), tt.wantField)
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(testRequest{Password: "password123", Name: "Test"})
	require.Error(t, err)

	// JSON tag name "email", not struct field name "Email".
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "email")
	assert.NotContains(t, fields, "Email")
}

func TestValidator_BlankTitleRejected(t *testing.T) {
	v := validation.New()

	err := v.Validate(domain.BookDraft{Title: "   "})
	require.Error(t, err)

	fields := fieldErrors(t, err)
	assert.Equal(t, "must not be blank", fields["title"])

	assert.NoError(t, v.Validate(domain.BookDraft{Title: "Notes"}))
}

func TestValidator_DocumentDraft(t *testing.T) {
	v := validation.New()

	err := v.Validate(domain.DocumentDraft{Title: "Draft"})
	require.Error(t, err)
	assert.Contains(t, fieldErrors(t, err), "book_id")

	assert.NoError(t, v.Validate(domain.DocumentDraft{Title: "Draft", BookID: "book-1"}))
}
