package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// TicketCodePrefix tags every issued ticket code.
const TicketCodePrefix = "TKT-"

// NewTicketCode returns a ticket code of the form TKT-XXXXXXXX where the
// suffix is 8 uppercase hex characters from 4 random bytes. Uniqueness is
// enforced by the database; a collision is retried by the booking engine.
func NewTicketCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return TicketCodePrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// NewOTP returns a numeric one-time password of the given length.
func NewOTP(length int) (string, error) {
	const charset = "0123456789"
	code := make([]byte, length)
	if _, err := rand.Read(code); err != nil {
		return "", err
	}
	for i := range code {
		code[i] = charset[int(code[i])%len(charset)]
	}
	return string(code), nil
}
