package common

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// MakeRandString returns n characters drawn uniformly from alphabet using
// crypto/rand.
func MakeRandString(alphabet string, n int) (string, error) {
	if n < 0 {
		return "", errors.New("negative length")
	}
	if n > 0 && alphabet == "" {
		return "", errors.New("empty alphabet")
	}

	size := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
