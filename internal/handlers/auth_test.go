package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kerhoff/shoplistbot/internal/api"
	"github.com/Kerhoff/shoplistbot/internal/session"
)

func TestRegisterFailureFramedAsLoginProblemAfterAccountCreation(t *testing.T) {
	loginErr := &api.Error{Kind: api.Unauthorized, Status: http.StatusUnauthorized, Detail: "bad credentials"}
	err := fmt.Errorf("%w: %w", session.ErrLoginAfterRegister, loginErr)

	notice := registerFailureText(err)
	assert.Contains(t, notice, "account was created")
	assert.Contains(t, notice, "/login")
	assert.NotContains(t, notice, "sign you up")
}

func TestRegisterFailureFramedAsSignupProblemBeforeAccountCreation(t *testing.T) {
	conflict := &api.Error{Kind: api.Conflict, Status: http.StatusConflict, Detail: "username taken"}

	notice := registerFailureText(conflict)
	assert.Contains(t, notice, "Could not sign you up")
	assert.NotContains(t, notice, "account was created")
}
