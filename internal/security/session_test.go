package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-session-secret"

func TestSessionRoundTrip(t *testing.T) {
	token, err := SignSession("user-1", "ADMIN", "alice", testSecret, time.Hour)
	require.NoError(t, err)

	claims := ParseSession(token, testSecret)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "alice", claims.Username)
}

func TestSessionWrongSecret(t *testing.T) {
	token, err := SignSession("user-1", "USER", "alice", testSecret, time.Hour)
	require.NoError(t, err)

	assert.Nil(t, ParseSession(token, "some-other-secret"))
}

func TestSessionExpired(t *testing.T) {
	token, err := SignSession("user-1", "USER", "alice", testSecret, -time.Minute)
	require.NoError(t, err)

	assert.Nil(t, ParseSession(token, testSecret))
}

func TestSessionGarbage(t *testing.T) {
	assert.Nil(t, ParseSession("", testSecret))
	assert.Nil(t, ParseSession("not.a.jwt", testSecret))
	assert.Nil(t, ParseSession("AAAA.BBBB.CCCC", testSecret))
}
