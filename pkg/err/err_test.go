package errprocess

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"chat_delivery_service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type kindedErr struct{}

func (kindedErr) Error() string { return "custom" }
func (kindedErr) ErrKind() Kind { return Conflict }

func TestKindOf(t *testing.T) {
	notFound := New(NotFound, "conversation not found")

	assert.Equal(t, NotFound, KindOf(notFound))
	assert.Equal(t, NotFound, KindOf(fmt.Errorf("get detail: %w", notFound)))
	assert.Equal(t, Conflict, KindOf(fmt.Errorf("wrapped: %w", kindedErr{})))
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWrap(t *testing.T) {
	cause := errors.New("tx aborted")
	err := Wrap(PersistenceFailed, "save message", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save message: tx aborted", err.Error())
	assert.Equal(t, PersistenceFailed, KindOf(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Unauthorized:      http.StatusUnauthorized,
		Forbidden:         http.StatusForbidden,
		NotFound:          http.StatusNotFound,
		Conflict:          http.StatusConflict,
		InvalidInput:      http.StatusBadRequest,
		PersistenceFailed: http.StatusInternalServerError,
		PartialReadUpdate: http.StatusInternalServerError,
		Internal:          http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}

func TestSet(t *testing.T) {
	logger.SetNewNop()
	err := Set("boom")
	assert.EqualError(t, err, "boom")
	assert.Equal(t, Internal, KindOf(err))
}
