package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilder_EnvWinsOverFile verifies the merge priority: values loaded from
// the environment are not overwritten by the config file layer.
func TestBuilder_EnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")
	body := `{"remote": {"base_url": "http://file.example.org"}, "sync": {"collection": "visits"}}`
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))

	t.Setenv("CONFIG", p)
	t.Setenv("REMOTE_BASE_URL", "http://env.example.org")

	cfg, err := newConfigBuilder().withEnv().withFile().build()

	require.NoError(t, err)
	assert.Equal(t, "http://env.example.org", cfg.Remote.BaseURL)
	// the file still fills fields the env left empty
	assert.Equal(t, "visits", cfg.Sync.Collection)
}

// TestBuilder_YAMLByExtension verifies that a .yaml config path is parsed as
// YAML.
func TestBuilder_YAMLByExtension(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("sync:\n  interval: 2m\n"), 0o600))

	t.Setenv("CONFIG", p)

	cfg, err := newConfigBuilder().withEnv().withFile().build()

	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
}

// TestBuilder_MissingFileFails verifies that a config path pointing at a
// missing file surfaces as a build error.
func TestBuilder_MissingFileFails(t *testing.T) {
	t.Setenv("CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := newConfigBuilder().withEnv().withFile().build()

	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate_UnknownStrategy(t *testing.T) {
	cfg := &StructuredConfig{Sync: Sync{Strategy: "newest_wins"}}

	err := cfg.validate()

	assert.ErrorIs(t, err, ErrInvalidSyncConfigs)
}

func TestValidateAgent(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StructuredConfig
		wantErr error
	}{
		{
			name: "valid memory agent",
			cfg: StructuredConfig{
				Remote: Remote{BaseURL: "http://localhost:8080"},
				Sync:   Sync{Collection: "patients"},
			},
		},
		{
			name:    "missing base url",
			cfg:     StructuredConfig{Sync: Sync{Collection: "patients"}},
			wantErr: ErrInvalidRemoteConfigs,
		},
		{
			name: "file driver without path",
			cfg: StructuredConfig{
				Remote:  Remote{BaseURL: "http://localhost:8080"},
				Storage: Storage{Local: Local{Driver: "file"}},
				Sync:    Sync{Collection: "patients"},
			},
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name: "unknown driver",
			cfg: StructuredConfig{
				Remote:  Remote{BaseURL: "http://localhost:8080"},
				Storage: Storage{Local: Local{Driver: "redis"}},
				Sync:    Sync{Collection: "patients"},
			},
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name: "missing collection",
			cfg: StructuredConfig{
				Remote: Remote{BaseURL: "http://localhost:8080"},
			},
			wantErr: ErrInvalidSyncConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateAgent()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateServer(t *testing.T) {
	valid := StructuredConfig{Server: Server{HTTPAddress: "localhost:8080"}}
	assert.NoError(t, valid.ValidateServer())

	var missing StructuredConfig
	assert.ErrorIs(t, missing.ValidateServer(), ErrInvalidServerConfigs)
}
