package app

import (
	"fmt"

	verificationHTTP "github.com/allisson/imeiguard/internal/verification/http"
	verificationUseCase "github.com/allisson/imeiguard/internal/verification/usecase"
)

// VerificationUseCase returns the verification use case instance.
func (c *Container) VerificationUseCase() (verificationUseCase.VerificationUseCase, error) {
	var err error
	c.verificationUCInit.Do(func() {
		c.verificationUC, err = c.initVerificationUseCase()
		if err != nil {
			c.initErrors["verificationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["verificationUseCase"]; exists {
		return nil, storedErr
	}
	return c.verificationUC, nil
}

// VerificationHandler returns the verification HTTP handler.
func (c *Container) VerificationHandler() (*verificationHTTP.VerificationHandler, error) {
	var err error
	c.verificationHandlerInit.Do(func() {
		c.verificationHandler, err = c.initVerificationHandler()
		if err != nil {
			c.initErrors["verificationHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["verificationHandler"]; exists {
		return nil, storedErr
	}
	return c.verificationHandler, nil
}

// initVerificationUseCase creates the verification use case with all its
// dependencies, decorated with business metrics.
func (c *Container) initVerificationUseCase() (verificationUseCase.VerificationUseCase, error) {
	deviceRepo, err := c.DeviceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get device repository for verification use case: %w", err)
	}

	personRepo, err := c.PersonRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get person repository for verification use case: %w", err)
	}

	tenantRepo, err := c.TenantRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant repository for verification use case: %w", err)
	}

	codec, err := c.Codec()
	if err != nil {
		return nil, fmt.Errorf("failed to get codec for verification use case: %w", err)
	}

	baseUseCase := verificationUseCase.NewVerificationUseCase(deviceRepo, personRepo, tenantRepo, codec)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for verification use case: %w", err)
	}

	return verificationUseCase.NewVerificationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
}

// initVerificationHandler creates the verification HTTP handler.
func (c *Container) initVerificationHandler() (*verificationHTTP.VerificationHandler, error) {
	verificationUC, err := c.VerificationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification use case for verification handler: %w", err)
	}
	return verificationHTTP.NewVerificationHandler(verificationUC, c.Logger()), nil
}
