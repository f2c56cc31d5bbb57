package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/erp/receipt/internal/infrastructure/config"
)

// ErrInvalidCredentials is returned for an unknown terminal or a wrong secret
var ErrInvalidCredentials = errors.New("invalid terminal credentials")

// TerminalAuthenticator checks terminal secrets against configured bcrypt hashes
type TerminalAuthenticator struct {
	hashes map[string][]byte
	// dummy is compared for unknown terminals so both paths cost one bcrypt run
	dummy []byte
}

// NewTerminalAuthenticator indexes the configured terminals
func NewTerminalAuthenticator(terminals []config.TerminalConfig) (*TerminalAuthenticator, error) {
	hashes := make(map[string][]byte, len(terminals))
	for _, t := range terminals {
		if t.ID == "" {
			return nil, fmt.Errorf("terminal without id")
		}
		if _, err := bcrypt.Cost([]byte(t.SecretHash)); err != nil {
			return nil, fmt.Errorf("terminal %s: invalid secret hash: %w", t.ID, err)
		}
		hashes[t.ID] = []byte(t.SecretHash)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("unknown-terminal"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	return &TerminalAuthenticator{hashes: hashes, dummy: dummy}, nil
}

// Authenticate returns nil when secret matches the terminal's hash
func (a *TerminalAuthenticator) Authenticate(terminalID, secret string) error {
	hash, ok := a.hashes[terminalID]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(a.dummy, []byte(secret))
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Count returns the number of configured terminals
func (a *TerminalAuthenticator) Count() int {
	return len(a.hashes)
}

// HashSecret produces the secret_hash value for a terminal entry
func HashSecret(secret string) (string, error) {
	if len(secret) < 8 {
		return "", fmt.Errorf("terminal secret must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}
