package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"gocloud.dev/secrets"
)

// RunCreateEncryptionKeys generates the AES-256 key and fixed IV used for
// deterministic identifier encryption.
//
// Without a KMS URI the material is printed base64-encoded, ready for
// ENCRYPTION_KEY / ENCRYPTION_IV. With a KMS URI the material is wrapped by
// the keeper first and printed as ENCRYPTION_WRAPPED_KEY /
// ENCRYPTION_WRAPPED_IV together with KMS_KEY_URI. Key material is zeroed
// from memory after encoding.
//
// Security: the IV is reused for every record so that equal plaintexts
// produce equal ciphertexts. Rotating the key or IV changes every stored
// ciphertext and requires re-encrypting the registry.
func RunCreateEncryptionKeys(ctx context.Context, writer io.Writer, kmsKeyURI string) error {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate encryption key: %w", err)
	}

	iv := make([]byte, 16)
	if _, err := rand.Read(iv); err != nil {
		return fmt.Errorf("failed to generate initialization vector: %w", err)
	}

	defer func() {
		for i := range key {
			key[i] = 0
		}
		for i := range iv {
			iv[i] = 0
		}
	}()

	_, _ = fmt.Fprintln(writer, "# Identifier Encryption Configuration")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)

	if kmsKeyURI == "" {
		_, _ = fmt.Fprintf(writer, "ENCRYPTION_KEY=\"%s\"\n", base64.StdEncoding.EncodeToString(key))
		_, _ = fmt.Fprintf(writer, "ENCRYPTION_IV=\"%s\"\n", base64.StdEncoding.EncodeToString(iv))
		return nil
	}

	keeper, err := secrets.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(writer, "# Warning: failed to close KMS keeper: %v\n", closeErr)
		}
	}()

	wrappedKey, err := keeper.Encrypt(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to wrap encryption key: %w", err)
	}

	wrappedIV, err := keeper.Encrypt(ctx, iv)
	if err != nil {
		return fmt.Errorf("failed to wrap initialization vector: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "ENCRYPTION_WRAPPED_KEY=\"%s\"\n", base64.StdEncoding.EncodeToString(wrappedKey))
	_, _ = fmt.Fprintf(writer, "ENCRYPTION_WRAPPED_IV=\"%s\"\n", base64.StdEncoding.EncodeToString(wrappedIV))

	return nil
}
