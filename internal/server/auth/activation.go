package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/bbelderbos/codeimages/internal/common"
)

const (
	activationAlphabet   = "abcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*(-_=+)"
	activationSaltLength = 20
)

// GenerateActivationKey mixes 20 random characters with seed (the username)
// and returns the hex SHA-256 digest.
func GenerateActivationKey(seed string) (string, error) {
	salt, err := common.MakeRandString(activationAlphabet, activationSaltLength)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(salt + seed))
	return hex.EncodeToString(sum[:]), nil
}
