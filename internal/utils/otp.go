package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"strconv"
)

// GenerateOTP returns a 6-digit numeric code in [100000, 999999].
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand read failure is unrecoverable
		panic(err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10)
}

// HashOTP returns the hex SHA-256 digest of a one-time code. Raw codes are
// never persisted.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// HashToken returns the hex SHA-256 digest of a refresh token for session
// storage.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
