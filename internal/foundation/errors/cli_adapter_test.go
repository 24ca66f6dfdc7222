package errors

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation error", err: ValidationError("bad input").Build(), expected: 2},
		{name: "config error", err: ConfigError("unknown mode").Build(), expected: 7},
		{name: "unresolved asset", err: NotFoundError("missing").Build(), expected: 9},
		{name: "filesystem error", err: FileSystemError("copy failed").Build(), expected: 11},
		{name: "internal error", err: InternalError("boom").Build(), expected: 10},
		{
			name:     "wrapped classified error",
			err:      fmt.Errorf("page failed: %w", NotFoundError("missing").Build()),
			expected: 9,
		},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{name: "nil error", err: nil, contains: ""},
		{
			name:     "internal error in non-verbose mode",
			err:      InternalError("internal issue").Build(),
			contains: "Internal error occurred (use -v for details)",
		},
		{
			name:     "config error names the field",
			err:      ConfigError("invalid mode").WithContext("field", "mode").Build(),
			contains: "Configuration error: invalid mode (field: mode)",
		},
		{
			name:     "not found names the reference",
			err:      NotFoundError("asset reference could not be resolved").WithContext("reference", "img/a.png").Build(),
			contains: "(reference: img/a.png)",
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			contains: "Error: unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.FormatError(tt.err)
			if tt.contains == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.contains)
		})
	}
}

func TestCLIErrorAdapter_VerboseShowsCause(t *testing.T) {
	adapter := NewCLIErrorAdapter(true, slog.Default())
	err := WrapError(&customError{msg: "permission denied"}, CategoryFileSystem, "copy failed").Build()
	assert.Contains(t, adapter.FormatError(err), "permission denied")
}

// customError is a test helper for unclassified errors
type customError struct {
	msg string
}

func (e *customError) Error() string { return e.msg }
