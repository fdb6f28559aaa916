package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestKeyFromHex(t *testing.T) {
	k, err := KeyFromHex(testKey)
	require.NoError(t, err)
	assert.Len(t, k, 32)

	_, err = KeyFromHex("abcd")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = KeyFromHex("zz")
	assert.Error(t, err)
}

func TestEncryptDecrypt(t *testing.T) {
	k, _ := KeyFromHex(testKey)

	ct, err := Encrypt(k, "12-345678")
	require.NoError(t, err)
	assert.NotContains(t, ct, "12-345678")

	again, _ := Encrypt(k, "12-345678")
	assert.NotEqual(t, ct, again, "nonce must differ per call")

	pt, err := Decrypt(k, ct)
	require.NoError(t, err)
	assert.Equal(t, "12-345678", pt)

	_, err = Decrypt(k, "AAAA")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	other, _ := KeyFromHex(strings.Repeat("ff", 32))
	_, err = Decrypt(other, ct)
	assert.Error(t, err)
}

func TestFieldCipher(t *testing.T) {
	c, err := NewFieldCipher(testKey)
	require.NoError(t, err)

	empty, err := c.Seal("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	sealed, err := c.Seal("保険 0001")
	require.NoError(t, err)
	opened, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "保険 0001", opened)

	_, err = NewFieldCipher("short")
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
	assert.Len(t, Hash("token"), 64)
	assert.Equal(t, Hash("token"), Hash("token"))
}
