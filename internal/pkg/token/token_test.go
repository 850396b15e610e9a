package token

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScanToken(t *testing.T) {
	tok := NewScanToken()
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	require.NoError(t, err)
	assert.Len(t, raw, scanTokenBytes)

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		s := NewScanToken()
		_, dup := seen[s]
		assert.False(t, dup, "duplicate scan token")
		seen[s] = struct{}{}
	}
}

func TestNewRedemptionCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := NewRedemptionCode()
		assert.Len(t, code, codeLength)
		assert.True(t, IsRedemptionCode(code), code)
	}
}

func TestIsRedemptionCode(t *testing.T) {
	assert.False(t, IsRedemptionCode(""))
	assert.False(t, IsRedemptionCode("ABCDEFG"))
	assert.False(t, IsRedemptionCode("ABCDEFG0"), "0 is excluded from the alphabet")
	assert.False(t, IsRedemptionCode("abcdefgh"))
	assert.True(t, IsRedemptionCode("ABCD2345"))
}
