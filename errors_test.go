package auth_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-tours-auth"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		textCode string
		status   int
	}{
		{name: "bad request", err: auth.NewBadRequestError("bad"), textCode: auth.TextCodeBadRequest, status: http.StatusBadRequest},
		{name: "invalid credentials", err: auth.NewInvalidCredentialsError(), textCode: auth.TextCodeInvalidCredentials, status: http.StatusUnauthorized},
		{name: "duplicate email", err: auth.NewDuplicateEmailError(), textCode: auth.TextCodeDuplicateEmail, status: http.StatusConflict},
		{name: "confirmation pending", err: auth.NewConfirmationPendingError(), textCode: auth.TextCodeConfirmationPending, status: http.StatusConflict},
		{name: "email not confirmed", err: auth.NewEmailNotConfirmedError(), textCode: auth.TextCodeEmailNotConfirmed, status: http.StatusUnauthorized},
		{name: "token invalid", err: auth.NewTokenInvalidOrExpiredError(), textCode: auth.TextCodeTokenInvalidOrExpired, status: http.StatusBadRequest},
		{name: "unauthenticated", err: auth.NewUnauthenticatedError("login"), textCode: auth.TextCodeUnauthenticated, status: http.StatusUnauthorized},
		{name: "forbidden", err: auth.NewForbiddenError(), textCode: auth.TextCodeForbidden, status: http.StatusForbidden},
		{name: "same password", err: auth.NewSamePasswordError(), textCode: auth.TextCodeSamePassword, status: http.StatusBadRequest},
		{name: "email delivery", err: auth.NewEmailDeliveryFailedError(errors.New("smtp down")), textCode: auth.TextCodeEmailDeliveryFailed, status: http.StatusBadGateway},
		{name: "no such user", err: auth.NewNoSuchUserError(), textCode: auth.TextCodeNoSuchUser, status: http.StatusNotFound},
		{name: "not found", err: auth.NewNotFoundError("missing"), textCode: auth.TextCodeNotFound, status: http.StatusNotFound},
		{name: "invalid transition", err: auth.NewInvalidTransitionError(auth.AccountStateActive, auth.AccountStateUnconfirmed), textCode: auth.TextCodeInvalidTransition, status: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.textCode, tt.err.TextCode)
			assert.Equal(t, tt.status, auth.StatusCode(tt.err))
			assert.True(t, auth.HasTextCode(tt.err, tt.textCode))
		})
	}
}

func TestErrorConstructorsReturnFreshValues(t *testing.T) {
	a := auth.NewBadRequestError("first").WithMetadata(map[string]any{"field": "email"})
	b := auth.NewBadRequestError("second")

	assert.NotSame(t, a, b)
	assert.Empty(t, b.Metadata)
}

func TestHasTextCode(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", auth.NewInvalidCredentialsError())

	assert.True(t, auth.HasTextCode(wrapped, auth.TextCodeInvalidCredentials))
	assert.False(t, auth.HasTextCode(wrapped, auth.TextCodeForbidden))
	assert.False(t, auth.HasTextCode(errors.New("plain"), auth.TextCodeBadRequest))
	assert.False(t, auth.HasTextCode(nil, auth.TextCodeBadRequest))
}

func TestTokenErrorHelpers(t *testing.T) {
	assert.True(t, auth.IsTokenExpiredError(auth.ErrTokenExpired))
	assert.False(t, auth.IsTokenExpiredError(auth.ErrTokenMalformed))
	assert.True(t, auth.IsMalformedError(auth.ErrTokenMalformed))
	assert.False(t, auth.IsMalformedError(errors.New("token is malformed")))
	assert.False(t, auth.IsTokenExpiredError(nil))
}

func TestStatusCode_FallsBackToCategory(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, auth.StatusCode(goerrors.New("no", goerrors.CategoryAuthz)))
	assert.Equal(t, http.StatusConflict, auth.StatusCode(goerrors.New("dup", goerrors.CategoryConflict)))
	assert.Equal(t, http.StatusBadRequest, auth.StatusCode(goerrors.New("bad", goerrors.CategoryValidation)))
	assert.Equal(t, http.StatusInternalServerError, auth.StatusCode(goerrors.New("boom", goerrors.CategoryInternal)))
	assert.Equal(t, http.StatusInternalServerError, auth.StatusCode(nil))
}
