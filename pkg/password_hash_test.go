package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	passwordHash, err := HashPassword("burn300kcal")
	require.NoError(t, err)
	assert.NotEmpty(t, passwordHash)
	assert.True(t, CheckPasswordHash("burn300kcal", passwordHash))
	assert.False(t, CheckPasswordHash("burn301kcal", passwordHash))

	otherHash, err := HashPassword("burn300kcal")
	require.NoError(t, err)
	assert.NotEmpty(t, otherHash)
	// bcrypt salts, two hashes of the same password differ
	assert.NotEqual(t, passwordHash, otherHash)
	assert.True(t, CheckPasswordHash("burn300kcal", otherHash))
}
