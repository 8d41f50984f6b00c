package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pytree/domain"
)

func TestNewErrorCategorizer(t *testing.T) {
	categorizer := NewErrorCategorizer()
	assert.NotNil(t, categorizer)
	assert.IsType(t, &ErrorCategorizerImpl{}, categorizer)
}

func TestCategorize_DomainCodes(t *testing.T) {
	categorizer := NewErrorCategorizer()

	tests := []struct {
		name         string
		err          error
		wantCategory domain.ErrorCategory
	}{
		{"file not found", domain.NewFileNotFoundError("repo", errors.New("no such file or directory")), domain.ErrorCategoryInput},
		{"invalid input", domain.NewInvalidInputError("unknown mode: draw", nil), domain.ErrorCategoryInput},
		{"config", domain.NewConfigError("bad scale", nil), domain.ErrorCategoryConfig},
		{"output", domain.NewOutputError("disk full", nil), domain.ErrorCategoryOutput},
		{"unsupported format", domain.NewUnsupportedFormatError("xml"), domain.ErrorCategoryOutput},
		{"parse", domain.NewParseError("a.py", errors.New("x")), domain.ErrorCategoryProcessing},
		{"render", domain.NewRenderError("a.py", errors.New("x")), domain.ErrorCategoryProcessing},
		{"wrapped domain error", fmt.Errorf("run failed: %w", domain.NewConfigError("x", nil)), domain.ErrorCategoryConfig},
		{"parse failures", fmt.Errorf("3 files: %w", domain.ErrParseFailures), domain.ErrorCategoryProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := categorizer.Categorize(tt.err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantCategory, result.Category)
			assert.Equal(t, tt.err, result.Original)
		})
	}
}

func TestCategorize_MessagePatterns(t *testing.T) {
	categorizer := NewErrorCategorizer()

	tests := []struct {
		name         string
		err          error
		wantCategory domain.ErrorCategory
		wantMessage  string
	}{
		{"cancelled", context.Canceled, domain.ErrorCategoryTimeout, "Run cancelled"},
		{"deadline", context.DeadlineExceeded, domain.ErrorCategoryTimeout, "Run cancelled"},
		{"toml", errors.New("failed to decode config file .pytree.toml"), domain.ErrorCategoryConfig, "Configuration file or settings error"},
		{"flag", errors.New("invalid flag value: render.scale"), domain.ErrorCategoryConfig, "Configuration file or settings error"},
		{"permission", errors.New("open x: permission denied"), domain.ErrorCategoryInput, "Failed to read the repository"},
		{"report", errors.New("failed to write report"), domain.ErrorCategoryOutput, "Failed to write output"},
		{"render", errors.New("tree image 10x10 exceeds the limit"), domain.ErrorCategoryProcessing, "Some files could not be parsed or rendered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := categorizer.Categorize(tt.err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantCategory, result.Category)
			assert.Equal(t, tt.wantMessage, result.Message)
		})
	}
}

func TestCategorize_Unknown(t *testing.T) {
	result := NewErrorCategorizer().Categorize(errors.New("something odd happened"))
	require.NotNil(t, result)
	assert.Equal(t, domain.ErrorCategoryUnknown, result.Category)
	assert.Equal(t, "something odd happened", result.Message)
	assert.Equal(t, "something odd happened", result.Error())
}

func TestCategorize_Nil(t *testing.T) {
	assert.Nil(t, NewErrorCategorizer().Categorize(nil))
}

func TestGetRecoverySuggestions(t *testing.T) {
	categorizer := NewErrorCategorizer()

	for _, category := range []domain.ErrorCategory{
		domain.ErrorCategoryInput,
		domain.ErrorCategoryConfig,
		domain.ErrorCategoryTimeout,
		domain.ErrorCategoryOutput,
		domain.ErrorCategoryProcessing,
		domain.ErrorCategoryUnknown,
	} {
		t.Run(string(category), func(t *testing.T) {
			assert.NotEmpty(t, categorizer.GetRecoverySuggestions(category))
		})
	}

	assert.Contains(t, categorizer.GetRecoverySuggestions(domain.ErrorCategoryConfig), "Try: pytree init to generate a valid config file")
	assert.Equal(t, []string{"Check the error message for more details"}, categorizer.GetRecoverySuggestions("Other"))
}
