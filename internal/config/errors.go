package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("invalid teamsite config")
	// ErrLoadConfig wraps failures reading .env, the YAML file or the environment.
	ErrLoadConfig = errors.New("load teamsite config")

	// ErrMissingDSN means the postgres driver was chosen without database_dsn.
	ErrMissingDSN = fmt.Errorf("%w: database_dsn is required for postgres", ErrInvalidConfig)
)
