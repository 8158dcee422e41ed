// Package errors_test provides unit tests for the AppError type, factory
// functions, and error-chain helpers defined in pkg/errors/errors.go.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"retrieval unavailable", errors.ErrCodeRetrievalUnavailable, "dense and sparse both down"},
		{"coding low confidence", errors.ErrCodeCodingLowConfidence, "no pattern fired"},
		{"rate limit", errors.CodeRateLimit, "too many requests"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestNew_StackIsPopulated(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeInternal, "test")
	require.NotNil(t, ae)
	assert.NotEmpty(t, ae.Stack)
	assert.Contains(t, ae.Stack, "errors_test.go")
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	result := errors.Wrap(nil, errors.CodeInternal, "should not matter")
	assert.Nil(t, result)
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := fmt.Errorf("connection refused")
	wrapped := errors.Wrap(root, errors.ErrCodeDenseStoreError, "milvus search failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeDenseStoreError, wrapped.Code)
	assert.Same(t, root, stderrors.Unwrap(wrapped))
	assert.True(t, stderrors.Is(wrapped, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeOmitted(t *testing.T) {
	t.Parallel()

	original := errors.New(errors.ErrCodeKBLoadFailed, "kb file missing")
	wrapped := errors.Wrap(original, "", "loading coding KB")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeKBLoadFailed, wrapped.Code)
}

func TestWrapf_FormatsMessage(t *testing.T) {
	t.Parallel()

	wrapped := errors.Wrapf(fmt.Errorf("boom"), errors.ErrCodeRerankerError, "batch %d of %d failed", 2, 5)
	require.NotNil(t, wrapped)
	assert.Equal(t, "batch 2 of 5 failed", wrapped.Message)
}

func TestError_FormatsWithAndWithoutDetail(t *testing.T) {
	t.Parallel()

	bare := errors.New(errors.ErrCodeSafetyBlock, "review required")
	assert.Equal(t, "[SAFE_001] review required", bare.Error())

	detailed := bare.WithDetail("dose claim: 5mg/kg")
	assert.Equal(t, "[SAFE_001] review required: dose claim: 5mg/kg", detailed.Error())
	// WithDetail must not mutate the receiver.
	assert.Empty(t, bare.Detail)
}

func TestWithCause_DoesNotMutateReceiver(t *testing.T) {
	t.Parallel()

	base := errors.New(errors.ErrCodeCacheWrite, "write failed")
	causeErr := fmt.Errorf("redis: connection reset")
	withCause := base.WithCause(causeErr)

	assert.Nil(t, base.Cause)
	assert.Same(t, causeErr, withCause.Cause)
}

func TestIsCode(t *testing.T) {
	t.Parallel()

	err := errors.Wrap(errors.New(errors.ErrCodeEmptyCorpusForQuery, "no chunks"), errors.ErrCodeInternal, "retrieve failed")
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyCorpusForQuery))
	assert.False(t, errors.IsCode(err, errors.ErrCodeRetrievalUnavailable))
}

func TestIsDegraded(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.IsDegraded(errors.New(errors.ErrCodeRetrievalDegraded, "dense down")))
	assert.False(t, errors.IsDegraded(errors.New(errors.ErrCodeRetrievalUnavailable, "both down")))
	assert.False(t, errors.IsDegraded(fmt.Errorf("plain error")))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.ErrCodeInternal, errors.GetCode(fmt.Errorf("plain")))
	assert.Equal(t, errors.ErrCodeLLMTimeout, errors.GetCode(errors.New(errors.ErrCodeLLMTimeout, "timeout")))
}

func TestConvenienceFactories(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeNotFound, errors.NotFound("x").Code)
	assert.Equal(t, errors.CodeInvalidParam, errors.InvalidParam("x").Code)
	assert.Equal(t, errors.CodeUnauthorized, errors.Unauthorized("x").Code)
	assert.Equal(t, errors.CodeForbidden, errors.Forbidden("x").Code)
	assert.Equal(t, errors.CodeInternal, errors.Internal("x").Code)
	assert.Equal(t, errors.CodeConflict, errors.Conflict("x").Code)
	assert.Equal(t, errors.ErrCodeServiceUnavailable, errors.Unavailable("x").Code)
}

func TestAppError_SatisfiesStandardErrorInterface(t *testing.T) {
	t.Parallel()

	var err error = errors.New(errors.ErrCodeInternal, "boom")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "[COMMON_001]"))
}
