package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	for _, n := range []int{MinLength, DefaultLength, MaxLength} {
		code, err := Generate(n)
		require.NoError(t, err)
		assert.Len(t, code, n)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "non-digit in %q", code)
		}
	}

	_, err := Generate(MinLength - 1)
	assert.ErrorIs(t, err, ErrInvalidLength)
	_, err = Generate(MaxLength + 1)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestNewAndVerify(t *testing.T) {
	code, hash, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)
	assert.Len(t, hash, 64)

	assert.NoError(t, Verify(hash, code))
	assert.NoError(t, Verify(hash, " "+code+"\n"))
	assert.ErrorIs(t, Verify(hash, "000000x"), ErrMismatch)
}

func TestConfig(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{Length: 3}.Validate(), ErrInvalidLength)
	assert.ErrorIs(t, Config{Length: 11}.Validate(), ErrInvalidLength)
}
