package helpers

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed byte) *Randomizer {
	var s [32]byte
	s[0] = seed
	return NewRandomizer(rand.NewChaCha8(s))
}

func TestNumericShape(t *testing.T) {
	r := seeded(1)
	for i := 0; i < 200; i++ {
		s, err := r.Numeric(6)
		require.NoError(t, err)
		require.Len(t, s, 6)
		assert.NotEqual(t, byte('0'), s[0])
		for _, c := range s {
			assert.True(t, c >= '0' && c <= '9', "unexpected rune %q", c)
		}
	}
}

func TestNumericFromFixedBytes(t *testing.T) {
	r := NewRandomizer(bytes.NewReader([]byte{0, 0, 0, 3, 19, 249}))
	s, err := r.Numeric(6)
	require.NoError(t, err)
	assert.Equal(t, "100399", s)
}

func TestNumericRejectsBiasedBytes(t *testing.T) {
	// 252..255 are above the largest multiple of 9 and must be skipped
	r := NewRandomizer(bytes.NewReader([]byte{255, 252, 8}))
	s, err := r.Numeric(1)
	require.NoError(t, err)
	assert.Equal(t, "9", s)
}

func TestSeededRandomizerIsReproducible(t *testing.T) {
	a, err := seeded(7).Numeric(12)
	require.NoError(t, err)
	b, err := seeded(7).Numeric(12)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNumber(t *testing.T) {
	n, err := seeded(3).Number(6)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 100000)
	assert.LessOrEqual(t, n, 999999)

	_, err = seeded(3).Number(19)
	assert.Error(t, err)
}

func TestCharsets(t *testing.T) {
	r := seeded(9)
	s, err := r.Alphabetic(32)
	require.NoError(t, err)
	assert.Regexp(t, `^[a-z]{32}$`, s)

	s, err = r.AlphaNumeric(32)
	require.NoError(t, err)
	assert.Regexp(t, `^[a-z0-9]{32}$`, s)
}

func TestRandomizerErrors(t *testing.T) {
	_, err := seeded(1).Numeric(0)
	assert.Error(t, err)

	_, err = NewRandomizer(bytes.NewReader(nil)).Numeric(4)
	assert.Error(t, err)
}
