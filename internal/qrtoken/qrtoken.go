package qrtoken

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const tokenBytes = 32

// Service issues and verifies admission tokens. Only the keyed digest of a
// token is ever stored; the raw token lives in the user's QR code.
type Service struct {
	secret []byte
}

func New(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Issue returns a fresh high-entropy token and its keyed digest.
func (s *Service) Issue() (token, hash string, err error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = strings.ToUpper(hex.EncodeToString(buf))
	return token, s.Hash(token), nil
}

// Hash computes the keyed digest for a token.
func (s *Service) Hash(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the digest and compares in constant time. Garbled or
// forged scans return false; they are expected input, never an error.
func (s *Service) Verify(token, storedHash string) bool {
	expected, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return hmac.Equal(mac.Sum(nil), expected)
}
