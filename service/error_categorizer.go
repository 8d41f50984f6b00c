package service

import (
	"errors"
	"strings"

	"github.com/ludo-technologies/pytree/domain"
)

// ErrorCategorizerImpl implements the ErrorCategorizer interface
type ErrorCategorizerImpl struct {
	patterns []categoryPatterns
}

// categoryPatterns pairs a category with the message fragments that select it.
// Categories are tried in order.
type categoryPatterns struct {
	category domain.ErrorCategory
	patterns []string
}

// codeCategories maps domain error codes to categories
var codeCategories = map[string]domain.ErrorCategory{
	domain.ErrCodeInvalidInput:      domain.ErrorCategoryInput,
	domain.ErrCodeFileNotFound:      domain.ErrorCategoryInput,
	domain.ErrCodeConfigError:       domain.ErrorCategoryConfig,
	domain.ErrCodeOutputError:       domain.ErrorCategoryOutput,
	domain.ErrCodeUnsupportedFormat: domain.ErrorCategoryOutput,
	domain.ErrCodeParseError:        domain.ErrorCategoryProcessing,
	domain.ErrCodeRenderError:       domain.ErrorCategoryProcessing,
}

// NewErrorCategorizer creates a new error categorizer
func NewErrorCategorizer() domain.ErrorCategorizer {
	return &ErrorCategorizerImpl{
		patterns: initializeErrorPatterns(),
	}
}

func initializeErrorPatterns() []categoryPatterns {
	return []categoryPatterns{
		{domain.ErrorCategoryTimeout, []string{
			"timeout",
			"deadline",
			"context canceled",
			"operation timed out",
		}},
		{domain.ErrorCategoryConfig, []string{
			"config",
			"configuration",
			"toml",
			"invalid flag value",
		}},
		{domain.ErrorCategoryInput, []string{
			"invalid input",
			"no such file",
			"file not found",
			"cannot access",
			"cannot read directory",
			"permission denied",
			"unknown mode",
		}},
		{domain.ErrorCategoryOutput, []string{
			"failed to write",
			"output",
			"cannot create",
			"unsupported format",
			"report",
		}},
		{domain.ErrorCategoryProcessing, []string{
			"parse",
			"syntax",
			"render",
			"tree image",
		}},
	}
}

// Categorize determines the category of an error
func (ec *ErrorCategorizerImpl) Categorize(err error) *domain.CategorizedError {
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrParseFailures) {
		return ec.categorized(domain.ErrorCategoryProcessing, err)
	}

	if code := domain.ErrorCode(err); code != "" {
		if category, ok := codeCategories[code]; ok {
			return ec.categorized(category, err)
		}
	}

	errMsg := strings.ToLower(err.Error())
	for _, cp := range ec.patterns {
		if containsAnyPattern(errMsg, cp.patterns) {
			return ec.categorized(cp.category, err)
		}
	}

	// Default to unknown category
	return &domain.CategorizedError{
		Category: domain.ErrorCategoryUnknown,
		Message:  err.Error(),
		Original: err,
	}
}

func (ec *ErrorCategorizerImpl) categorized(category domain.ErrorCategory, err error) *domain.CategorizedError {
	return &domain.CategorizedError{
		Category: category,
		Message:  ec.getCategoryMessage(category),
		Original: err,
	}
}

// GetRecoverySuggestions returns recovery suggestions for an error category
func (ec *ErrorCategorizerImpl) GetRecoverySuggestions(category domain.ErrorCategory) []string {
	suggestions := map[domain.ErrorCategory][]string{
		domain.ErrorCategoryInput: {
			"Check that the repository path exists and is readable",
			"Usage: pytree <repo-root-path> [images|parse]",
			"Ensure you have read permissions for every directory under the root",
		},
		domain.ErrorCategoryConfig: {
			"Verify configuration file format and values",
			"Try: pytree init to generate a valid config file",
			"Check for syntax errors in .pytree.toml or pyproject.toml",
		},
		domain.ErrorCategoryTimeout: {
			"The run was interrupted before all files were processed",
			"Try parsing a smaller directory",
		},
		domain.ErrorCategoryOutput: {
			"Check write permissions for the output and report directories",
			"Use only one of --json, --yaml, --csv",
			"Try writing to a different location with --output-dir",
		},
		domain.ErrorCategoryProcessing: {
			"Some files contain syntax errors, see the diagnostics above",
			"Run with --verbose for per-file details",
			"Render errors usually mean the output directory is not writable, check --output-dir",
		},
		domain.ErrorCategoryUnknown: {
			"Run with --verbose for detailed error information",
			"Report the issue if it persists",
		},
	}

	if sug, ok := suggestions[category]; ok {
		return sug
	}
	return []string{"Check the error message for more details"}
}

// getCategoryMessage returns a user-friendly message for an error category
func (ec *ErrorCategorizerImpl) getCategoryMessage(category domain.ErrorCategory) string {
	messages := map[domain.ErrorCategory]string{
		domain.ErrorCategoryInput:      "Failed to read the repository",
		domain.ErrorCategoryConfig:     "Configuration file or settings error",
		domain.ErrorCategoryTimeout:    "Run cancelled",
		domain.ErrorCategoryOutput:     "Failed to write output",
		domain.ErrorCategoryProcessing: "Some files could not be parsed or rendered",
		domain.ErrorCategoryUnknown:    "An unexpected error occurred",
	}

	if msg, ok := messages[category]; ok {
		return msg
	}
	return "An error occurred"
}

// containsAnyPattern checks if a string contains any of the given patterns
func containsAnyPattern(str string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(str, pattern) {
			return true
		}
	}
	return false
}
