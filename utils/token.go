package utils

import (
	"crypto/rand"
	"math/big"
)

const resetCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateResetCode returns a random code of the given length drawn from an
// alphabet without look-alike characters.
func GenerateResetCode(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(resetCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = resetCharset[n.Int64()]
	}
	return string(code), nil
}
