package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var codeSpace = big.NewInt(1000000)

// GenerateCode produces a uniformly random 6-digit decimal code,
// zero-padded, in the range 000000-999999. Codes are not globally unique;
// uniqueness per redemption comes from the token row, not the code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
