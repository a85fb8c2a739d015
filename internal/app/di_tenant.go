package app

import (
	"fmt"

	tenantHTTP "github.com/allisson/imeiguard/internal/tenant/http"
	tenantRepository "github.com/allisson/imeiguard/internal/tenant/repository"
	tenantUseCase "github.com/allisson/imeiguard/internal/tenant/usecase"
)

// TenantRepository returns the tenant repository instance.
func (c *Container) TenantRepository() (tenantUseCase.TenantRepository, error) {
	var err error
	c.tenantRepoInit.Do(func() {
		c.tenantRepo, err = c.initTenantRepository()
		if err != nil {
			c.initErrors["tenantRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tenantRepo"]; exists {
		return nil, storedErr
	}
	return c.tenantRepo, nil
}

// TenantUseCase returns the tenant use case instance.
func (c *Container) TenantUseCase() (tenantUseCase.TenantUseCase, error) {
	var err error
	c.tenantUCInit.Do(func() {
		c.tenantUC, err = c.initTenantUseCase()
		if err != nil {
			c.initErrors["tenantUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tenantUseCase"]; exists {
		return nil, storedErr
	}
	return c.tenantUC, nil
}

// TenantHandler returns the tenant HTTP handler.
func (c *Container) TenantHandler() (*tenantHTTP.TenantHandler, error) {
	var err error
	c.tenantHandlerInit.Do(func() {
		c.tenantHandler, err = c.initTenantHandler()
		if err != nil {
			c.initErrors["tenantHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["tenantHandler"]; exists {
		return nil, storedErr
	}
	return c.tenantHandler, nil
}

// initTenantRepository creates the tenant repository instance.
func (c *Container) initTenantRepository() (tenantUseCase.TenantRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tenant repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return tenantRepository.NewMySQLTenantRepository(db), nil
	case "postgres":
		return tenantRepository.NewPostgreSQLTenantRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initTenantUseCase creates the tenant use case with all its dependencies.
// The device repository doubles as the tenant device counter so tenant
// deactivation can refuse tenants with registered devices.
func (c *Container) initTenantUseCase() (tenantUseCase.TenantUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for tenant use case: %w", err)
	}

	tenantRepo, err := c.TenantRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant repository for tenant use case: %w", err)
	}

	deviceRepo, err := c.DeviceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get device repository for tenant use case: %w", err)
	}

	return tenantUseCase.NewTenantUseCase(txManager, tenantRepo, deviceRepo), nil
}

// initTenantHandler creates the tenant HTTP handler.
func (c *Container) initTenantHandler() (*tenantHTTP.TenantHandler, error) {
	tenantUC, err := c.TenantUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant use case for tenant handler: %w", err)
	}
	return tenantHTTP.NewTenantHandler(tenantUC, c.Logger()), nil
}
