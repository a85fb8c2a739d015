package app

import (
	"fmt"

	registryHTTP "github.com/allisson/imeiguard/internal/registry/http"
	registryRepository "github.com/allisson/imeiguard/internal/registry/repository"
	registryUseCase "github.com/allisson/imeiguard/internal/registry/usecase"
)

// PersonRepository returns the person repository instance.
func (c *Container) PersonRepository() (registryUseCase.PersonRepository, error) {
	var err error
	c.personRepoInit.Do(func() {
		c.personRepo, err = c.initPersonRepository()
		if err != nil {
			c.initErrors["personRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["personRepo"]; exists {
		return nil, storedErr
	}
	return c.personRepo, nil
}

// DeviceRepository returns the device repository instance.
func (c *Container) DeviceRepository() (registryUseCase.DeviceRepository, error) {
	var err error
	c.deviceRepoInit.Do(func() {
		c.deviceRepo, err = c.initDeviceRepository()
		if err != nil {
			c.initErrors["deviceRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deviceRepo"]; exists {
		return nil, storedErr
	}
	return c.deviceRepo, nil
}

// PersonUseCase returns the person use case instance.
func (c *Container) PersonUseCase() (registryUseCase.PersonUseCase, error) {
	var err error
	c.personUCInit.Do(func() {
		c.personUC, err = c.initPersonUseCase()
		if err != nil {
			c.initErrors["personUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["personUseCase"]; exists {
		return nil, storedErr
	}
	return c.personUC, nil
}

// DeviceUseCase returns the device use case instance.
func (c *Container) DeviceUseCase() (registryUseCase.DeviceUseCase, error) {
	var err error
	c.deviceUCInit.Do(func() {
		c.deviceUC, err = c.initDeviceUseCase()
		if err != nil {
			c.initErrors["deviceUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deviceUseCase"]; exists {
		return nil, storedErr
	}
	return c.deviceUC, nil
}

// PersonHandler returns the person HTTP handler.
func (c *Container) PersonHandler() (*registryHTTP.PersonHandler, error) {
	var err error
	c.personHandlerInit.Do(func() {
		c.personHandler, err = c.initPersonHandler()
		if err != nil {
			c.initErrors["personHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["personHandler"]; exists {
		return nil, storedErr
	}
	return c.personHandler, nil
}

// DeviceHandler returns the device HTTP handler.
func (c *Container) DeviceHandler() (*registryHTTP.DeviceHandler, error) {
	var err error
	c.deviceHandlerInit.Do(func() {
		c.deviceHandler, err = c.initDeviceHandler()
		if err != nil {
			c.initErrors["deviceHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deviceHandler"]; exists {
		return nil, storedErr
	}
	return c.deviceHandler, nil
}

// initPersonRepository creates the person repository instance.
func (c *Container) initPersonRepository() (registryUseCase.PersonRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for person repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return registryRepository.NewMySQLPersonRepository(db), nil
	case "postgres":
		return registryRepository.NewPostgreSQLPersonRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initDeviceRepository creates the device repository instance.
func (c *Container) initDeviceRepository() (registryUseCase.DeviceRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for device repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return registryRepository.NewMySQLDeviceRepository(db), nil
	case "postgres":
		return registryRepository.NewPostgreSQLDeviceRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPersonUseCase creates the person use case with all its dependencies.
func (c *Container) initPersonUseCase() (registryUseCase.PersonUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for person use case: %w", err)
	}

	personRepo, err := c.PersonRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get person repository for person use case: %w", err)
	}

	deviceRepo, err := c.DeviceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get device repository for person use case: %w", err)
	}

	tenantRepo, err := c.TenantRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant repository for person use case: %w", err)
	}

	codec, err := c.Codec()
	if err != nil {
		return nil, fmt.Errorf("failed to get codec for person use case: %w", err)
	}

	return registryUseCase.NewPersonUseCase(txManager, personRepo, deviceRepo, tenantRepo, codec), nil
}

// initDeviceUseCase creates the device use case with all its dependencies.
func (c *Container) initDeviceUseCase() (registryUseCase.DeviceUseCase, error) {
	deviceRepo, err := c.DeviceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get device repository for device use case: %w", err)
	}

	personRepo, err := c.PersonRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get person repository for device use case: %w", err)
	}

	codec, err := c.Codec()
	if err != nil {
		return nil, fmt.Errorf("failed to get codec for device use case: %w", err)
	}

	return registryUseCase.NewDeviceUseCase(deviceRepo, personRepo, codec), nil
}

// initPersonHandler creates the person HTTP handler.
func (c *Container) initPersonHandler() (*registryHTTP.PersonHandler, error) {
	personUC, err := c.PersonUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get person use case for person handler: %w", err)
	}
	return registryHTTP.NewPersonHandler(personUC, c.Logger()), nil
}

// initDeviceHandler creates the device HTTP handler.
func (c *Container) initDeviceHandler() (*registryHTTP.DeviceHandler, error) {
	deviceUC, err := c.DeviceUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get device use case for device handler: %w", err)
	}
	return registryHTTP.NewDeviceHandler(deviceUC, c.Logger()), nil
}
