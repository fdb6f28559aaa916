package codes

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFeedToken(t *testing.T) {
	tok, err := GenerateFeedToken(DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, tok, 43)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)
	assert.Len(t, raw, FeedTokenByteLength)

	other, err := GenerateFeedToken(Config{TokenByteLength: 1})
	require.NoError(t, err)
	assert.NotEqual(t, tok, other)
	assert.Len(t, other, 43, "undersized config falls back to default")
}

func TestGenerateSecureToken(t *testing.T) {
	tok, err := GenerateSecureToken(16)
	require.NoError(t, err)
	assert.Len(t, tok, 32)

	_, err = GenerateSecureToken(0)
	assert.ErrorIs(t, err, ErrInvalidLength)
	_, err = GenerateURLSafeToken(-1)
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestHint(t *testing.T) {
	assert.Equal(t, "abcdef", Hint("abcdefghij"))
	assert.Equal(t, "abc", Hint("abc"))
}
