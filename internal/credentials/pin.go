// Package credentials generates learner login credentials.
package credentials

import (
	"crypto/rand"
	"math/big"
)

// PINLength is the number of digits in a learner PIN
const PINLength = 4

const digits = "0123456789"

// GeneratePIN generates a random 4-digit PIN. Leading zeros are allowed.
func GeneratePIN() (string, error) {
	pin := make([]byte, PINLength)

	for i := 0; i < PINLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		pin[i] = digits[num.Int64()]
	}

	return string(pin), nil
}
