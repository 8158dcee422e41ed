package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
)

func TestIsNotFound(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"Generic NotFound", errors.NotFound("not found"), true},
		{"Citation NotFound", errors.New(errors.ErrCodeCitationNotFound, "citation not found"), true},
		{"KB Procedure NotFound", errors.New(errors.ErrCodeKBProcedureNotFound, "proc not found"), true},
		{"Internal Error", errors.Internal("internal error"), false},
		{"Wrapped NotFound", errors.Wrap(errors.NotFound("not found"), errors.CodeInternal, "wrapped"), true},
		{"Plain error", fmt.Errorf("plain error"), false},
		{"Nil error", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, errors.IsNotFound(tc.err))
		})
	}
}
