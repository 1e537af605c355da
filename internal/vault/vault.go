package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// keyLength is the AES-256 key size. Anything shorter must be rejected at
// startup instead of silently truncated or padded.
const keyLength = 32

// CryptoError reports a ciphertext that could not be decrypted back into a
// usable token. It aborts the single sync attempt that hit it.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vault: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("vault: %s", e.Op)
}

func (e *CryptoError) Unwrap() error { return e.Err }

// Vault encrypts and decrypts the GitHub access token stored on a board.
type Vault struct {
	key []byte
}

func New(key []byte) (*Vault, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keyLength, len(key))
	}
	k := make([]byte, keyLength)
	copy(k, key)
	return &Vault{key: k}, nil
}

// Encrypt seals the token with AES-256-GCM under a fresh random nonce and
// returns it as nonce_hex:ciphertext_hex, so decryption is self-contained.
func (v *Vault) Encrypt(token string) (string, error) {
	gcm, err := v.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := gcm.Seal(nil, nonce, []byte(token), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any malformed or tampered input comes back as a
// *CryptoError.
func (v *Vault) Decrypt(stored string) (string, error) {
	ivHex, ctHex, ok := strings.Cut(stored, ":")
	if !ok {
		return "", &CryptoError{Op: "stored token is not in iv:ciphertext form"}
	}
	nonce, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", &CryptoError{Op: "decode iv", Err: err}
	}
	sealed, err := hex.DecodeString(ctHex)
	if err != nil {
		return "", &CryptoError{Op: "decode ciphertext", Err: err}
	}
	gcm, err := v.aead()
	if err != nil {
		return "", err
	}
	if len(nonce) != gcm.NonceSize() {
		return "", &CryptoError{Op: "bad iv length"}
	}
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", &CryptoError{Op: "open ciphertext", Err: err}
	}
	token := string(plain)
	if !looksLikeToken(token) {
		return "", &CryptoError{Op: "decrypted value does not look like a token"}
	}
	return token, nil
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func looksLikeToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '!' || r > '~' {
			return false
		}
	}
	return true
}
