package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
)

const (
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	numberChars    = "0123456789"
	symbolChars    = "!@#$%^&*()-_=+"

	MinPasswordLength = 12
	MinSecretBytes    = 32
)

var (
	ErrPasswordTooShort = errors.New("generated password must be at least 12 characters")
	ErrSecretTooShort   = errors.New("secret must be at least 32 bytes")
)

// RandomPassword returns a password of the given length containing at least
// one character from each of the upper, lower, digit and symbol sets.
// It is used to provision initial admin accounts from the CLI.
func RandomPassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	sets := []string{uppercaseChars, lowercaseChars, numberChars, symbolChars}
	pool := uppercaseChars + lowercaseChars + numberChars + symbolChars

	result := make([]byte, length)
	for i, charset := range sets {
		ch, err := randChar(charset)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}
	for i := len(sets); i < length; i++ {
		ch, err := randChar(pool)
		if err != nil {
			return "", err
		}
		result[i] = ch
	}

	// Fisher-Yates so the guaranteed characters are not always in front.
	for i := len(result) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}

// RandomSecret returns n random bytes hex encoded, suitable for JWT_SECRET.
func RandomSecret(n int) (string, error) {
	if n < MinSecretBytes {
		return "", ErrSecretTooShort
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}
