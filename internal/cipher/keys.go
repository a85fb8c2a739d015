package cipher

import (
	"context"
	"encoding/base64"
	"fmt"

	validation "github.com/jellydator/validation"
	"gocloud.dev/secrets"

	"github.com/allisson/imeiguard/internal/config"
	appValidation "github.com/allisson/imeiguard/internal/validation"

	// Register KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// LoadKeyMaterial resolves the codec key and IV from configuration.
//
// Two sources are supported:
//   - Plain: ENCRYPTION_KEY and ENCRYPTION_IV hold base64-encoded raw key material.
//   - KMS: KMS_KEY_URI names a keeper (gcpkms://, awskms://, azurekeyvault://,
//     hashivault://, base64key://) and ENCRYPTION_WRAPPED_KEY /
//     ENCRYPTION_WRAPPED_IV hold base64-encoded key material wrapped by that
//     keeper. The keeper unwraps them at startup and is closed immediately;
//     no KMS calls happen on the request path.
//
// Malformed key material is a startup error, never a silent fallback.
func LoadKeyMaterial(ctx context.Context, cfg *config.Config) (key, iv []byte, err error) {
	if cfg.KMSKeyURI != "" {
		return loadFromKMS(ctx, cfg)
	}
	return loadFromEnv(cfg)
}

func loadFromEnv(cfg *config.Config) (key, iv []byte, err error) {
	if cfg.EncryptionKey == "" {
		return nil, nil, fmt.Errorf("encryption key is not configured")
	}
	if cfg.EncryptionIV == "" {
		return nil, nil, fmt.Errorf("encryption iv is not configured")
	}

	key, err = base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}

	iv, err = base64.StdEncoding.DecodeString(cfg.EncryptionIV)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption iv is not valid base64: %w", err)
	}

	return key, iv, nil
}

func loadFromKMS(ctx context.Context, cfg *config.Config) (key, iv []byte, err error) {
	if cfg.EncryptionWrappedKey == "" || cfg.EncryptionWrappedIV == "" {
		return nil, nil, fmt.Errorf("kms key uri is set but wrapped key material is missing")
	}

	// Reject malformed wrapped material before any KMS round trip.
	if err := validation.Validate(cfg.EncryptionWrappedKey, appValidation.Base64); err != nil {
		return nil, nil, fmt.Errorf("wrapped encryption key: %w", err)
	}
	if err := validation.Validate(cfg.EncryptionWrappedIV, appValidation.Base64); err != nil {
		return nil, nil, fmt.Errorf("wrapped encryption iv: %w", err)
	}

	keeper, err := secrets.OpenKeeper(ctx, cfg.KMSKeyURI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer keeper.Close()

	key, err = unwrap(ctx, keeper, cfg.EncryptionWrappedKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to unwrap encryption key: %w", err)
	}

	iv, err = unwrap(ctx, keeper, cfg.EncryptionWrappedIV)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to unwrap encryption iv: %w", err)
	}

	return key, iv, nil
}

func unwrap(ctx context.Context, keeper *secrets.Keeper, wrapped string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return nil, fmt.Errorf("wrapped value is not valid base64: %w", err)
	}

	plain, err := keeper.Decrypt(ctx, blob)
	if err != nil {
		return nil, err
	}

	return plain, nil
}
