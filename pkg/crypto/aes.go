package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoKey is returned when encryption is requested without a key.
var ErrNoKey = errors.New("encryption key not set")

// EnvKey is the environment variable consulted by KeyFromEnv.
const EnvKey = "REDISBOARD_ENC_KEY"

// Cipher seals and opens secrets with AES-GCM.
type Cipher struct {
	aead cipher.AEAD
}

// New returns a Cipher for key. The key must be 16, 24 or 32 bytes long.
// An empty key yields ErrNoKey.
func New(key string) (*Cipher, error) {
	if len(key) == 0 {
		return nil, ErrNoKey
	}
	b := []byte(key)
	if l := len(b); l != 16 && l != 24 && l != 32 {
		return nil, fmt.Errorf("invalid key length %d", l)
	}
	block, err := aes.NewCipher(b)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: gcm}, nil
}

// KeyFromEnv builds a Cipher from REDISBOARD_ENC_KEY.
func KeyFromEnv() (*Cipher, error) {
	return New(os.Getenv(EnvKey))
}

// Encrypt encrypts plaintext, prefixing the random nonce.
func (c *Cipher) Encrypt(plain []byte) ([]byte, error) {
	if c == nil {
		return nil, ErrNoKey
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plain, nil), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if c == nil {
		return nil, ErrNoKey
	}
	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ct := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return c.aead.Open(nil, nonce, ct, nil)
}
