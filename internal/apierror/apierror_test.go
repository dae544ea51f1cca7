package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("close register: %w", InvalidState("register %d is CLOSED", 7))
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("db down")))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusUnprocessableEntity},
		{InvalidAmount("zero"), http.StatusUnprocessableEntity},
		{NegativeAmount("neg"), http.StatusUnprocessableEntity},
		{InvalidState("closed"), http.StatusConflict},
		{ConflictAlreadyOpen("open"), http.StatusConflict},
		{NotFound("gone"), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestBody(t *testing.T) {
	b := Body(NotFound("account %s not found", "x"))
	assert.Equal(t, &APIError{Kind: "not_found", Detail: "account x not found"}, b)

	v := Body(ValidationFields(map[string]string{"name": "is required"}))
	ve, ok := v.(*ValidationError)
	if assert.True(t, ok) {
		assert.Equal(t, "is required", ve.Fields["name"])
	}

	internal := Body(errors.New("pq: connection refused"))
	assert.Equal(t, New("internal server error"), internal)
}
