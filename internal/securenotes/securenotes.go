// Package securenotes protects the free-text notes attached to competency
// ratings and pending confirmations. Notes routinely carry assessment
// observations about a named worker, so they are stored as Vault transit
// ciphertext at rest when Vault is enabled. With Vault disabled the service
// passes notes through unchanged, mirroring the rest of the deployment's
// optional-Vault wiring.
package securenotes

import (
	"fmt"
	"strings"

	"caretrack/internal/vault"
)

// Service encrypts and decrypts note strings
type Service struct {
	client  *vault.Client // nil when Vault is disabled
	keyName string
}

// NewService creates a notes encryption service backed by the given Vault
// client. A nil client yields a passthrough service.
func NewService(client *vault.Client, keyName string) (*Service, error) {
	svc := &Service{client: client, keyName: keyName}

	if client != nil {
		if err := client.CreateKey(keyName); err != nil {
			return nil, fmt.Errorf("failed to ensure notes key: %w", err)
		}
	}

	return svc, nil
}

// Enabled reports whether notes are actually encrypted at rest
func (s *Service) Enabled() bool {
	return s.client != nil
}

// Seal encrypts a note for storage. Nil and empty notes pass through.
func (s *Service) Seal(notes *string) (*string, error) {
	if s.client == nil || notes == nil || *notes == "" {
		return notes, nil
	}

	ciphertext, err := s.client.Encrypt(s.keyName, []byte(*notes))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt notes: %w", err)
	}
	return &ciphertext, nil
}

// Open decrypts a stored note for presentation. Values without the vault
// ciphertext prefix are returned as-is, so plaintext written while Vault
// was disabled stays readable after it is enabled.
func (s *Service) Open(stored *string) (*string, error) {
	if s.client == nil || stored == nil || !strings.HasPrefix(*stored, "vault:") {
		return stored, nil
	}

	plaintext, err := s.client.Decrypt(s.keyName, *stored)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt notes: %w", err)
	}
	result := string(plaintext)
	return &result, nil
}
