package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOTPRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GenerateOTP()
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestHashOTPStable(t *testing.T) {
	a := HashOTP("123456")
	b := HashOTP("123456")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashOTP("123457"))
}

func TestHashTokenDiffersFromInput(t *testing.T) {
	token := "some.refresh.token"
	h := HashToken(token)
	assert.NotEqual(t, token, h)
	assert.Len(t, h, 64)
}
