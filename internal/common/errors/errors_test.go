package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	errors []map[string]interface{}
	warns  []map[string]interface{}
}

func (l *recordingLogger) Error(_ string, fields map[string]interface{}) {
	l.errors = append(l.errors, fields)
}

func (l *recordingLogger) Warn(_ string, fields map[string]interface{}) {
	l.warns = append(l.warns, fields)
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeCatalogLoadFailed, "LOAD"},
		{ErrCodeCatalogMalformed, "LOAD"},
		{ErrCodeRecommendationFailed, "RECOMMENDATION"},
		{ErrCodeRequestInFlight, "RECOMMENDATION"},
		{ErrCodeInvalidPreferences, "VALIDATION"},
		{ErrCodeCacheUnavailable, "CACHE"},
		{ErrCodeInternal, "OTHER"},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCategory(tt.code))
		})
	}
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeRecommendationFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeCatalogLoadFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeRequestInFlight))
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("fetch: %w", NewRecommendationFailedError(cause))

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, HasCode(err, ErrCodeRecommendationFailed))
	assert.False(t, HasCode(err, ErrCodeCatalogLoadFailed))
}

func TestReporter_Report(t *testing.T) {
	log := &recordingLogger{}
	r := NewReporter(log)

	std := r.Report("load", NewCatalogLoadFailedError(stderrors.New("status 500")))
	require.NotNil(t, std)
	assert.Equal(t, ErrCodeCatalogLoadFailed, std.Code)
	require.Len(t, log.errors, 1)
	assert.Equal(t, "LOAD", log.errors[0]["errorCategory"])

	std = r.Report("submit", NewRecommendationFailedError(stderrors.New("timeout")))
	assert.True(t, std.Retryable)
	assert.Len(t, log.warns, 1)

	std = r.Report("other", stderrors.New("plain"))
	assert.Equal(t, ErrCodeInternal, std.Code)
	assert.Equal(t, "plain", std.Details)

	assert.Nil(t, r.Report("noop", nil))
}
