package apperror

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_SeesThroughWrapping(t *testing.T) {
	err := errors.Wrap(NotFound("profile"), "get profile")

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus())
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestStatusFor(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthenticated:  http.StatusUnauthorized,
		KindForbidden:        http.StatusForbidden,
		KindValidation:       http.StatusBadRequest,
		KindNoFieldsProvided: http.StatusBadRequest,
		KindBadUpload:        http.StatusBadRequest,
		KindNotFound:         http.StatusNotFound,
		KindUpstream:         http.StatusInternalServerError,
		KindInternal:         http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, StatusFor(kind), string(kind))
	}
}

func TestError_MessageListsFields(t *testing.T) {
	err := Validation([]FieldError{
		{Field: "displayName", Message: "too short"},
		{Field: "state", Message: "must have 2 characters"},
	})

	assert.Contains(t, err.Error(), "displayName: too short")
	assert.Contains(t, err.Error(), "state: must have 2 characters")
}

func TestUpstream_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream(cause, "profile store unavailable")

	assert.True(t, errors.Is(err, cause))
}
