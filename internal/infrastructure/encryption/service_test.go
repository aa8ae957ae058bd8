package encryption

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MP2EZ/being-sub003/internal/domain/values"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	svc, err := NewService(key)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRejectsShortKey(t *testing.T) {
	_, err := NewService([]byte("too short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestRoundTripPerLevel(t *testing.T) {
	svc := newTestService(t)
	plaintext := []byte(`{"mood":2,"note":"rough night"}`)

	for _, level := range values.AllSensitivities() {
		t.Run(string(level), func(t *testing.T) {
			sealed, err := svc.Encrypt(plaintext, level)
			require.NoError(t, err)
			assert.False(t, bytes.Contains(sealed, plaintext))

			opened, err := svc.Decrypt(sealed, level)
			require.NoError(t, err)
			assert.Equal(t, plaintext, opened)
		})
	}
}

func TestNonceIsRandom(t *testing.T) {
	svc := newTestService(t)
	a, err := svc.Encrypt([]byte("same"), values.SensitivityClinical)
	require.NoError(t, err)
	b, err := svc.Encrypt([]byte("same"), values.SensitivityClinical)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptFailures(t *testing.T) {
	svc := newTestService(t)
	sealed, err := svc.Encrypt([]byte("secret"), values.SensitivityClinical)
	require.NoError(t, err)

	t.Run("wrong level", func(t *testing.T) {
		_, err := svc.Decrypt(sealed, values.SensitivityOperational)
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})

	t.Run("tampered", func(t *testing.T) {
		tampered := append([]byte(nil), sealed...)
		tampered[len(tampered)-1] ^= 0xff
		_, err := svc.Decrypt(tampered, values.SensitivityClinical)
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := svc.Decrypt(sealed[:10], values.SensitivityClinical)
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})

	t.Run("other key", func(t *testing.T) {
		_, err := newTestService(t).Decrypt(sealed, values.SensitivityClinical)
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := svc.Encrypt([]byte("x"), values.Sensitivity("secret"))
		assert.ErrorIs(t, err, ErrUnknownLevel)
	})
}
