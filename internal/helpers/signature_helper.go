package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPass = errors.New("invalid pass data")

// PassClaims identify the registration a pass was issued for.
type PassClaims struct {
	RegistrationID string
	StudentID      string
	EventID        string
}

// PassSigner signs and verifies registration pass payloads with HMAC-SHA256.
type PassSigner struct {
	secret []byte
}

func NewPassSigner(secret string) *PassSigner {
	return &PassSigner{secret: []byte(secret)}
}

func (s *PassSigner) Sign(claims PassClaims) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(claims.RegistrationID + ":" + claims.StudentID + ":" + claims.EventID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Encode renders the payload embedded in the pass QR code.
func (s *PassSigner) Encode(claims PassClaims) string {
	return fmt.Sprintf("registration:%s;student:%s;event:%s;signature:%s",
		claims.RegistrationID, claims.StudentID, claims.EventID, s.Sign(claims))
}

// Verify parses data produced by Encode and checks its signature.
func (s *PassSigner) Verify(data string) (*PassClaims, error) {
	parts := strings.Split(data, ";")
	if len(parts) != 4 {
		return nil, ErrInvalidPass
	}

	values := make(map[string]string, 4)
	for _, part := range parts {
		key, value, ok := strings.Cut(part, ":")
		if !ok || value == "" {
			return nil, ErrInvalidPass
		}
		values[key] = value
	}

	claims := PassClaims{
		RegistrationID: values["registration"],
		StudentID:      values["student"],
		EventID:        values["event"],
	}
	signature := values["signature"]
	if claims.RegistrationID == "" || claims.StudentID == "" || claims.EventID == "" || signature == "" {
		return nil, ErrInvalidPass
	}

	if !hmac.Equal([]byte(signature), []byte(s.Sign(claims))) {
		return nil, ErrInvalidPass
	}
	return &claims, nil
}
