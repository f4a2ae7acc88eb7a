package utils

import (
	"crypto/rand"
	"log"
)

// Alphabet without ambiguous characters (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const confirmationCodeLength = 6

// GenerateConfirmationCode returns a short opaque token a client presents to
// confirm a pending booking.
func GenerateConfirmationCode() string {
	buf := make([]byte, confirmationCodeLength)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("failed to read random bytes for confirmation code: %v", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
