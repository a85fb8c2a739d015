// Package cipher provides deterministic field-level encryption for device and
// person identifiers. Equal plaintexts always produce equal ciphertexts, which
// lets the database enforce uniqueness and serve exact-match lookups directly
// on the encrypted columns.
package cipher

import (
	"bytes"
	"crypto/aes"
	aescipher "crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// KeySize is the required encryption key length in bytes (AES-256).
	KeySize = 32

	// IVSize is the required initialization vector length in bytes (one AES block).
	IVSize = 16
)

// Codec encrypts and decrypts field values deterministically.
//
// Determinism is the point: the same plaintext under the same key material
// always yields the same base64 ciphertext, so encrypted columns stay
// queryable by equality. This trades semantic security for searchability,
// which is acceptable for identifiers that are not secret in themselves
// (IMEIs, document numbers) but must not be stored in the clear.
type Codec interface {
	// Encrypt returns the base64-encoded ciphertext of value.
	// An empty value encrypts to an empty string.
	Encrypt(value string) (string, error)

	// Decrypt returns the plaintext for a base64-encoded ciphertext.
	// Values that are not valid ciphertext (not base64, wrong block size,
	// bad padding) are returned unchanged: rows written before encryption
	// was introduced hold plaintext and must keep working.
	Decrypt(value string) string

	// Fingerprint returns the base64-encoded SHA-256 digest of value.
	// Used for audit correlation without revealing the plaintext.
	Fingerprint(value string) string
}

// AESCBCCodec implements Codec using AES-256-CBC with a fixed IV and
// PKCS#7 padding.
//
// The fixed IV is what makes the scheme deterministic. The instance is
// stateless after construction and safe for concurrent use.
type AESCBCCodec struct {
	block aescipher.Block
	iv    []byte
}

// NewAESCBC creates a codec from a 32-byte key and a 16-byte IV.
func NewAESCBC(key, iv []byte) (*AESCBCCodec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be exactly %d bytes, got %d", KeySize, len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("initialization vector must be exactly %d bytes, got %d", IVSize, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	return &AESCBCCodec{block: block, iv: bytes.Clone(iv)}, nil
}

// Encrypt encrypts value with AES-256-CBC and returns base64 ciphertext.
func (c *AESCBCCodec) Encrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	padded := pkcs7Pad([]byte(value), aes.BlockSize)
	ciphertext := make([]byte, len(padded))

	encrypter := aescipher.NewCBCEncrypter(c.block, c.iv)
	encrypter.CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Anything that doesn't decrypt cleanly is
// treated as legacy plaintext and returned as-is.
func (c *AESCBCCodec) Decrypt(value string) string {
	if value == "" {
		return ""
	}

	ciphertext, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return value
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return value
	}

	plaintext := make([]byte, len(ciphertext))
	decrypter := aescipher.NewCBCDecrypter(c.block, c.iv)
	decrypter.CryptBlocks(plaintext, ciphertext)

	unpadded, err := pkcs7Unpad(plaintext, aes.BlockSize)
	if err != nil {
		return value
	}

	return string(unpadded)
}

// Fingerprint returns the base64-encoded SHA-256 digest of value.
func (c *AESCBCCodec) Fingerprint(value string) string {
	digest := sha256.Sum256([]byte(value))
	return base64.StdEncoding.EncodeToString(digest[:])
}

// pkcs7Pad appends PKCS#7 padding up to the next block boundary.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(data, padding...)
}

// pkcs7Unpad strips PKCS#7 padding, verifying every padding byte.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded data length")
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, errors.New("invalid padding length")
	}

	expected := bytes.Repeat([]byte{byte(padLen)}, padLen)
	if subtle.ConstantTimeCompare(data[len(data)-padLen:], expected) != 1 {
		return nil, errors.New("invalid padding bytes")
	}

	return data[:len(data)-padLen], nil
}
