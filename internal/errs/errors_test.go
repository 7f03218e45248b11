package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrKindInvalidInput, "schema lists differ in length"),
			want: "[invalid_input] schema lists differ in length",
		},
		{
			name: "with cause",
			err:  Wrap(ErrKindQueryFailed, "count failed", errors.New("relation does not exist")),
			want: "[query_failed] count failed: relation does not exist",
		},
		{
			name: "formatted",
			err:  Newf(ErrKindNotFound, "no columns found for %s", "DB.S.T"),
			want: "[not_found] no columns found for DB.S.T",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOf_TraversesChain(t *testing.T) {
	cause := errors.New("denied")
	err := fmt.Errorf("listing tables: %w", Wrapf(ErrKindPermissionDenied, cause, "schema %q", "SALES"))

	assert.Equal(t, ErrKindPermissionDenied, KindOf(err))
	assert.True(t, IsPermissionDenied(err))
	assert.False(t, IsNotFound(err))
	assert.ErrorIs(t, err, cause)
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		kind ErrKind
		pred func(error) bool
	}{
		{ErrKindNotFound, IsNotFound},
		{ErrKindTimeout, IsTimeout},
		{ErrKindConnectionFailed, IsConnectionFailed},
		{ErrKindQueryFailed, IsQueryFailed},
		{ErrKindInvalidInput, IsInvalidInput},
		{ErrKindPermissionDenied, IsPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.True(t, tt.pred(New(tt.kind, "x")))
			assert.False(t, tt.pred(New(ErrKindUnknown, "x")))
		})
	}
}
