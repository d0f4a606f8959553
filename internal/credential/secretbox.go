package credential

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	apperrors "promogen-go/internal/errors"
)

const (
	encPrefix   = "enc:v1:"
	plainPrefix = "plain:"
)

// SecretBox decrypts credential secret references sealed with
// XChaCha20-Poly1305. References carry the nonce inline:
// "enc:v1:" + base64(nonce || ciphertext). References prefixed "plain:"
// are returned as-is; that form is reserved for the operator-configured
// fallback credential loaded from local config.
type SecretBox struct {
	key []byte
}

// NewSecretBox builds a SecretBox from a base64-encoded 32-byte key.
func NewSecretBox(encodedKey string) (*SecretBox, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encodedKey))
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &SecretBox{key: key}, nil
}

func (s *SecretBox) Decrypt(_ context.Context, cred *Credential) (string, error) {
	ref := cred.SecretRef
	switch {
	case strings.HasPrefix(ref, plainPrefix):
		return strings.TrimPrefix(ref, plainPrefix), nil
	case strings.HasPrefix(ref, encPrefix):
		secret, err := s.open(strings.TrimPrefix(ref, encPrefix))
		if err != nil {
			return "", &apperrors.CredentialResolutionError{CredentialID: cred.ID, Err: err}
		}
		return secret, nil
	default:
		return "", &apperrors.CredentialResolutionError{
			CredentialID: cred.ID,
			Err:          fmt.Errorf("unrecognized secret reference format"),
		}
	}
}

func (s *SecretBox) open(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode secret payload: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("secret payload shorter than nonce")
	}
	nonce, box := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return "", fmt.Errorf("open secret box: %w", err)
	}
	return string(plain), nil
}

// Seal encrypts a plaintext secret into the reference format. Used by the
// credential registration surface and by tests.
func (s *SecretBox) Seal(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if err := fillRandom(nonce); err != nil {
		return "", err
	}
	box := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return encPrefix + base64.StdEncoding.EncodeToString(box), nil
}

// PlainRef wraps a plaintext secret in the reference format understood by
// SecretBox without encryption.
func PlainRef(secret string) string { return plainPrefix + secret }

// PassthroughDecrypter resolves only "plain:" references. It backs
// deployments without a configured secret key, where every credential is
// operator-supplied rather than stored encrypted.
type PassthroughDecrypter struct{}

func (PassthroughDecrypter) Decrypt(_ context.Context, cred *Credential) (string, error) {
	if !strings.HasPrefix(cred.SecretRef, plainPrefix) {
		return "", &apperrors.CredentialResolutionError{
			CredentialID: cred.ID,
			Err:          fmt.Errorf("encrypted reference but no secret key configured"),
		}
	}
	return strings.TrimPrefix(cred.SecretRef, plainPrefix), nil
}
