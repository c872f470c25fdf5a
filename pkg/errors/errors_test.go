package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewError(t *testing.T) {
	t.Parallel()

	t.Run("creates error with defaults", func(t *testing.T) {
		err := NewError(ErrCodeInvalidConfig, "configuration is invalid")
		if err == nil {
			t.Fatal("NewError returned nil")
		}
		if err.Code != ErrCodeInvalidConfig {
			t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidConfig)
		}
		if err.Message != "configuration is invalid" {
			t.Errorf("Message = %q, want %q", err.Message, "configuration is invalid")
		}
		if err.Category != CategoryConfiguration {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfiguration)
		}
		if err.Timestamp.IsZero() {
			t.Error("Timestamp not set")
		}
	})

	t.Run("sets correct retryable defaults", func(t *testing.T) {
		retryable := NewError(ErrCodeCacheFull, "cache full")
		if !retryable.Retryable {
			t.Error("CacheFull should be retryable by default")
		}

		nonRetryable := NewError(ErrCodeSerialization, "cannot serialize")
		if nonRetryable.Retryable {
			t.Error("Serialization should not be retryable by default")
		}
	})
}

func TestGetCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code ErrorCode
		want ErrorCategory
	}{
		{ErrCodeCapacityExceeded, CategoryCapacity},
		{ErrCodeCacheFull, CategoryCapacity},
		{ErrCodeSerialization, CategoryCodec},
		{ErrCodeDecompression, CategoryCodec},
		{ErrCodeEntryExpired, CategoryEntry},
		{ErrCodeMaintenance, CategoryBackground},
		{ErrCodePreloadLoader, CategoryBackground},
		{ErrCodeConfigValidation, CategoryConfiguration},
		{ErrCodeAlreadyStarted, CategoryState},
		{ErrCodeInternal, CategoryInternal},
		{ErrorCode("SOMETHING_ELSE"), CategoryInternal},
	}

	for _, tt := range tests {
		if got := GetCategory(tt.code); got != tt.want {
			t.Errorf("GetCategory(%s) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	err := NewError(ErrCodeCapacityExceeded, "entry exceeds cache capacity").
		WithComponent("cache").
		WithOperation("put")

	msg := err.Error()
	if !strings.Contains(msg, "cache:put") {
		t.Errorf("Error() = %q, want component:operation prefix", msg)
	}
	if !strings.Contains(msg, string(ErrCodeCapacityExceeded)) {
		t.Errorf("Error() = %q, want code included", msg)
	}

	str := err.String()
	if !strings.Contains(str, "Category=capacity") {
		t.Errorf("String() = %q, want category included", str)
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("zstd: invalid frame header")
	err := Wrap(ErrCodeDecompression, "cannot decode stored payload", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}

	var cacheErr *CacheError
	if !errors.As(err, &cacheErr) {
		t.Fatal("errors.As should extract *CacheError")
	}
	if cacheErr.Code != ErrCodeDecompression {
		t.Errorf("Code = %v, want %v", cacheErr.Code, ErrCodeDecompression)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	t.Parallel()

	a := NewError(ErrCodeEntryExpired, "entry aged out")
	b := NewError(ErrCodeEntryExpired, "different message")

	if !errors.Is(a, b) {
		t.Error("errors with the same code should match")
	}

	c := NewError(ErrCodeEntryNotFound, "missing")
	if errors.Is(a, c) {
		t.Error("errors with different codes should not match")
	}
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	inner := NewError(ErrCodePreloadLoader, "loader returned error")
	wrapped := fmt.Errorf("preload worker: %w", inner)

	if !IsCode(wrapped, ErrCodePreloadLoader) {
		t.Error("IsCode should see through fmt.Errorf wrapping")
	}
	if IsCode(wrapped, ErrCodeMaintenance) {
		t.Error("IsCode should not match an absent code")
	}
	if IsCode(nil, ErrCodeInternal) {
		t.Error("IsCode(nil) should be false")
	}
}

func TestWithDetail(t *testing.T) {
	t.Parallel()

	err := NewError(ErrCodeCapacityExceeded, "too large").
		WithDetail("size_bytes", int64(4096)).
		WithDetail("max_size_bytes", int64(1024))

	if err.Details["size_bytes"] != int64(4096) {
		t.Errorf("Details[size_bytes] = %v, want 4096", err.Details["size_bytes"])
	}
	if len(err.Details) != 2 {
		t.Errorf("Details has %d keys, want 2", len(err.Details))
	}
}
