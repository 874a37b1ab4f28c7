package config

// knownStrategies are the conflict strategies the resolver understands.
// Duplicated here as plain strings so the config package stays free of
// domain imports.
var knownStrategies = map[string]struct{}{
	"":            {}, // unset; the agent falls back to its default
	"server_wins": {},
	"client_wins": {},
	"merge":       {},
}

// validate checks invariants shared by every role: durations must not be
// negative and the strategy, when set, must be known. Role-specific
// requirements live in ValidateAgent and ValidateServer.
func (cfg *StructuredConfig) validate() error {
	if _, ok := knownStrategies[cfg.Sync.Strategy]; !ok {
		return ErrInvalidSyncConfigs
	}

	for _, d := range []int64{
		int64(cfg.Remote.RequestTimeout),
		int64(cfg.Server.RequestTimeout),
		int64(cfg.Sync.Interval),
		int64(cfg.Sync.MaxAge),
		int64(cfg.Monitor.ProbeInterval),
		int64(cfg.Monitor.Grace),
	} {
		if d < 0 {
			return ErrInvalidSyncConfigs
		}
	}

	return nil
}

// ValidateAgent checks the invariants the sync agent needs at startup.
func (cfg *StructuredConfig) ValidateAgent() error {
	if cfg.Remote.BaseURL == "" {
		return ErrInvalidRemoteConfigs
	}

	switch cfg.Storage.Local.Driver {
	case "", "memory":
	case "file", "sqlite":
		if cfg.Storage.Local.Path == "" {
			return ErrInvalidStorageConfigs
		}
	default:
		return ErrInvalidStorageConfigs
	}

	if cfg.Sync.Collection == "" {
		return ErrInvalidSyncConfigs
	}

	return nil
}

// ValidateServer checks the invariants the record server needs at startup.
func (cfg *StructuredConfig) ValidateServer() error {
	if cfg.Server.HTTPAddress == "" {
		return ErrInvalidServerConfigs
	}

	return nil
}
