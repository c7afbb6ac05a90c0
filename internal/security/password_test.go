package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	digest, err := HashPassword("pw123456", 10)
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.NotContains(t, string(digest), "pw123456")

	assert.True(t, CheckPassword("pw123456", digest))
	assert.False(t, CheckPassword("pw1234567", digest))
	assert.False(t, CheckPassword("", digest))
}

func TestCheckPasswordMissingDigest(t *testing.T) {
	assert.False(t, CheckPassword("anything", nil))
	assert.False(t, CheckPassword("anything", []byte{}))
}

func TestCheckPasswordMutatedDigest(t *testing.T) {
	digest, err := HashPassword("pw123456", 10)
	require.NoError(t, err)

	mutated := append([]byte(nil), digest...)
	mutated[len(mutated)-1] ^= 0x01
	assert.False(t, CheckPassword("pw123456", mutated))

	assert.False(t, CheckPassword("pw123456", []byte("not-a-bcrypt-digest")))
}

func TestHashPasswordCostOutOfRange(t *testing.T) {
	digest, err := HashPassword("pw123456", 99)
	require.NoError(t, err)
	assert.True(t, CheckPassword("pw123456", digest))
}
