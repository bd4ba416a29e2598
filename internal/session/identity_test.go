package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)

	token, err := issuer.Issue("operator-a")
	require.NoError(t, err)

	operatorID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "operator-a", operatorID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret-one"), time.Hour)
	token, err := issuer.Issue("operator-a")
	require.NoError(t, err)

	other := NewTokenIssuer([]byte("secret-two"), time.Hour)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), -time.Hour)
	token, err := issuer.Issue("operator-a")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
