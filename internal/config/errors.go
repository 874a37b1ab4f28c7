package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] and the
// role-specific validators when required configuration groups are incomplete
// or invalid.
var (
	// ErrInvalidRemoteConfigs indicates invalid remote API settings (for
	// example, a missing base URL for the agent).
	ErrInvalidRemoteConfigs = errors.New("invalid remote configuration")
	// ErrInvalidStorageConfigs indicates invalid storage settings (for
	// example, a file or sqlite driver without a path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidSyncConfigs indicates invalid synchronization settings (for
	// example, an unknown conflict strategy).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidServerConfigs indicates invalid server settings (for
	// example, a missing listen address).
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
)
