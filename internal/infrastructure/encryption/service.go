// Package encryption seals data at rest with XChaCha20-Poly1305. Each
// sensitivity tier uses its own key derived from a single master key, and the
// tier name is bound into the ciphertext as associated data.
package encryption

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/MP2EZ/being-sub003/internal/domain/values"
)

const formatVersion byte = 1

var (
	ErrInvalidKey        = errors.New("encryption: master key must be 32 bytes")
	ErrInvalidCiphertext = errors.New("encryption: invalid ciphertext")
	ErrUnknownLevel      = errors.New("encryption: unknown sensitivity level")
)

// Service implements Encrypt/Decrypt for every sensitivity tier.
type Service struct {
	aeads map[values.Sensitivity]cipher.AEAD
}

// NewService derives one key per tier from masterKey using HKDF-SHA256.
func NewService(masterKey []byte) (*Service, error) {
	if len(masterKey) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}

	s := &Service{aeads: make(map[values.Sensitivity]cipher.AEAD)}
	for _, level := range values.AllSensitivities() {
		key := make([]byte, chacha20poly1305.KeySize)
		kdf := hkdf.New(sha256.New, masterKey, nil, []byte("being/"+string(level)))
		if _, err := io.ReadFull(kdf, key); err != nil {
			return nil, fmt.Errorf("deriving %s key: %w", level, err)
		}
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, fmt.Errorf("creating %s cipher: %w", level, err)
		}
		s.aeads[level] = aead
	}
	return s, nil
}

// Encrypt returns version || nonce || ciphertext.
func (s *Service) Encrypt(data []byte, level values.Sensitivity) ([]byte, error) {
	aead, ok := s.aeads[level]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}

	out := make([]byte, 1+aead.NonceSize(), 1+aead.NonceSize()+len(data)+aead.Overhead())
	out[0] = formatVersion
	nonce := out[1:]
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return aead.Seal(out, nonce, data, []byte(level)), nil
}

func (s *Service) Decrypt(data []byte, level values.Sensitivity) ([]byte, error) {
	aead, ok := s.aeads[level]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}

	headerLen := 1 + aead.NonceSize()
	if len(data) < headerLen+aead.Overhead() || data[0] != formatVersion {
		return nil, ErrInvalidCiphertext
	}

	plaintext, err := aead.Open(nil, data[1:headerLen], data[headerLen:], []byte(level))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return plaintext, nil
}

// GenerateKey returns a random master key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
