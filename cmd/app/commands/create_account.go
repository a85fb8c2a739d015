package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/imeiguard/internal/identity/domain"
	identityUseCase "github.com/allisson/imeiguard/internal/identity/usecase"
)

// RunCreateAccount creates an account directly through the use case, without
// going through the API. The command runs with a synthetic superadmin scope:
// it is the bootstrap path for the first admin account, before any account
// exists to log in with. Outputs the account ID, username, and role in either
// text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateAccount(
	ctx context.Context,
	accountUseCase identityUseCase.AccountUseCase,
	logger *slog.Logger,
	writer io.Writer,
	username string,
	password string,
	role string,
	tenantID string,
	format string,
) error {
	logger.Info("creating account", slog.String("username", username), slog.String("role", role))

	input := identityUseCase.CreateAccountInput{
		Username: username,
		Password: password,
		Role:     role,
	}

	if tenantID != "" {
		id, err := uuid.Parse(tenantID)
		if err != nil {
			return fmt.Errorf("invalid tenant id: %w", err)
		}
		input.TenantID = &id
	}

	// The CLI bypasses authentication, so it acts as a superadmin.
	scope := identityDomain.Scope{Role: identityDomain.RoleSuperAdmin}

	account, err := accountUseCase.Create(ctx, scope, input)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	if format == "json" {
		outputAccountJSON(account, writer)
	} else {
		outputAccountText(account, writer)
	}

	logger.Info("account created successfully",
		slog.String("account_id", account.ID.String()),
		slog.String("username", account.Username),
		slog.String("role", string(account.Role)),
	)

	return nil
}

// outputAccountText outputs the result in human-readable text format.
func outputAccountText(account *identityDomain.Account, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nAccount created successfully!")
	_, _ = fmt.Fprintf(writer, "Account ID: %s\n", account.ID.String())
	_, _ = fmt.Fprintf(writer, "Username: %s\n", account.Username)
	_, _ = fmt.Fprintf(writer, "Role: %s\n", account.Role)
	if account.TenantID != nil {
		_, _ = fmt.Fprintf(writer, "Tenant ID: %s\n", account.TenantID.String())
	}
}

// outputAccountJSON outputs the result in JSON format for machine consumption.
func outputAccountJSON(account *identityDomain.Account, writer io.Writer) {
	result := map[string]string{
		"account_id": account.ID.String(),
		"username":   account.Username,
		"role":       string(account.Role),
	}
	if account.TenantID != nil {
		result["tenant_id"] = account.TenantID.String()
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
