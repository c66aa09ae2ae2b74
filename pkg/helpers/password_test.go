package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	HashCost = bcrypt.MinCost
	t.Cleanup(func() { HashCost = bcrypt.DefaultCost })

	hash, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Pass", hash)
	assert.True(t, CompareHashAndPassword(hash, "Str0ng!Pass"))
	assert.False(t, CompareHashAndPassword(hash, "wrong"))
	assert.False(t, CompareHashAndPassword("", "Str0ng!Pass"))
}
