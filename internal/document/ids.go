package document

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// TokenAlphabet leaves out characters that are easy to misread (0/O, 1/I/L).
const TokenAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	tokenLength      = 6
	tokenMaxRetries  = 100
	tokenGrowAfter   = 50
	fallbackTokenLen = 6
)

// NewID returns a fresh record id.
func NewID() ID {
	return uuid.NewString()
}

// GenerateToken returns a random token of the given length over TokenAlphabet.
func GenerateToken(length int) (string, error) {
	max := big.NewInt(int64(len(TokenAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for range length {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate token: %w", err)
		}
		b.WriteByte(TokenAlphabet[n.Int64()])
	}
	return b.String(), nil
}

var generateToken = GenerateToken

// NewInviteToken returns an invite token not used by any event in d.
// Tokens grow by one character once the short space looks crowded.
func (d *Document) NewInviteToken() string {
	for i := range tokenMaxRetries {
		length := tokenLength
		if i >= tokenGrowAfter {
			length++
		}
		token, err := generateToken(length)
		if err != nil {
			break
		}
		if !d.tokenInUse(token) {
			return token
		}
	}
	id := strings.ToUpper(strings.ReplaceAll(NewID(), "-", ""))
	return id[len(id)-fallbackTokenLen:]
}

func (d *Document) tokenInUse(token string) bool {
	for _, ev := range d.Events {
		if ev.InviteToken == token {
			return true
		}
	}
	return false
}

// EventByToken finds the event carrying token, ignoring case.
func (d *Document) EventByToken(token string) (*Event, bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return nil, false
	}
	for _, ev := range d.Events {
		if ev.InviteToken == token {
			return ev, true
		}
	}
	return nil, false
}
