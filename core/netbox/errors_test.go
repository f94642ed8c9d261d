package netbox

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status     int
		retryAfter string
		wantKind   ErrorKind
		wantRetry  bool
	}{
		{status: 500, wantKind: ErrKindTransient, wantRetry: true},
		{status: 502, wantKind: ErrKindTransient, wantRetry: true},
		{status: 429, wantKind: ErrKindRateLimited, wantRetry: true},
		{status: 429, retryAfter: "10", wantKind: ErrKindRateLimited, wantRetry: true},
		{status: 404, wantKind: ErrKindNotFound, wantRetry: false},
		{status: 400, wantKind: ErrKindPermanent, wantRetry: false},
		{status: 403, wantKind: ErrKindPermanent, wantRetry: false},
		{status: 422, wantKind: ErrKindPermanent, wantRetry: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			e := classifyStatus(tt.status, "body", tt.retryAfter)
			assert.Equal(t, tt.wantKind, e.Kind)
			assert.Equal(t, tt.wantRetry, e.Retryable())
		})
	}
}

func TestClassifyStatus_RetryAfterParsed(t *testing.T) {
	e := classifyStatus(429, "", "7")
	assert.Equal(t, 7*time.Second, e.RetryAfter)

	e = classifyStatus(429, "", "not-a-number")
	assert.Equal(t, time.Duration(0), e.RetryAfter)
}

func TestErrorPredicates_WrappedErrors(t *testing.T) {
	notFound := fmt.Errorf("update region: %w", classifyStatus(404, "", ""))
	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsPermanent(notFound))
	assert.False(t, IsRetryable(notFound))

	transient := fmt.Errorf("list: %w", classifyStatus(503, "", ""))
	assert.True(t, IsRetryable(transient))
	assert.False(t, IsPermanent(transient))

	assert.False(t, IsRetryable(errors.New("plain error")))
}
