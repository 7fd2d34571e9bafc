package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Storage:  StorageConfig{DataPath: "/some/path"},
		Autosave: AutosaveConfig{Debounce: 3 * time.Second},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},  // case insensitive
		{"trace", false}, // not supported
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DataPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data path cannot be empty")
}

func TestValidate_DebounceMustBePositive(t *testing.T) {
	cfg := validConfig()
	cfg.Autosave.Debounce = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debounce")
}

func TestExpandDataPath_EmptyUsesDefault(t *testing.T) {
	cfg := &Config{}

	require.NoError(t, cfg.expandDataPath())

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "Quill", "data"), cfg.Storage.DataPath)
}

func TestExpandDataPath_TildeExpansion(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{DataPath: "~/my-data"}}

	require.NoError(t, cfg.expandDataPath())

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, filepath.Join(homeDir, "my-data"), cfg.Storage.DataPath)
}

func TestExpandDataPath_AbsoluteAndRelative(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{DataPath: "/absolute/path/to/data"}}
	require.NoError(t, cfg.expandDataPath())
	assert.Equal(t, "/absolute/path/to/data", cfg.Storage.DataPath)

	cfg = &Config{Storage: StorageConfig{DataPath: "relative/path"}}
	require.NoError(t, cfg.expandDataPath())
	assert.True(t, filepath.IsAbs(cfg.Storage.DataPath))
	assert.Contains(t, cfg.Storage.DataPath, "relative/path")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	// Flag value takes priority.
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "ENV_KEY", "default-value"))

	// Env var when flag is empty.
	os.Setenv("TEST_ENV_KEY", "env-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_ENV_KEY")      //nolint:errcheck // Test cleanup
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	// Default when both are empty.
	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestParseDurationValue(t *testing.T) {
	d, err := parseDurationValue("5s", "UNUSED", "3s")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, d)

	d, err = parseDurationValue("", "NONEXISTENT_KEY", "3s")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	_, err = parseDurationValue("not-a-duration", "UNUSED", "3s")
	assert.Error(t, err)
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `# Test env file
ENV=staging
LOG_LEVEL=debug
DATA_PATH=/test/path
QUOTED_VALUE="some value"
SINGLE_QUOTED='another value'
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	keys := []string{"ENV", "LOG_LEVEL", "DATA_PATH", "QUOTED_VALUE", "SINGLE_QUOTED"}
	for _, k := range keys {
		os.Unsetenv(k) //nolint:errcheck // Test cleanup
	}
	defer func() {
		for _, k := range keys {
			os.Unsetenv(k) //nolint:errcheck // Test cleanup
		}
	}()

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("ENV"))
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "/test/path", os.Getenv("DATA_PATH"))
	assert.Equal(t, "some value", os.Getenv("QUOTED_VALUE"))
	assert.Equal(t, "another value", os.Getenv("SINGLE_QUOTED"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `VALID_KEY=valid_value
INVALID LINE WITHOUT EQUALS
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	err := loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	os.Setenv("TEST_VAR", "original-value") //nolint:errcheck // Test setup
	defer os.Unsetenv("TEST_VAR")           //nolint:errcheck // Test cleanup

	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`TEST_VAR=new-value`), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("TEST_VAR"))
}

func TestLoadEnvFile_WhitespaceAndEmptyLines(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `
KEY1=value1

# Comment

  KEY2  =  value with spaces
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	os.Unsetenv("KEY1") //nolint:errcheck // Test cleanup
	os.Unsetenv("KEY2") //nolint:errcheck // Test cleanup
	defer func() {
		os.Unsetenv("KEY1") //nolint:errcheck // Test cleanup
		os.Unsetenv("KEY2") //nolint:errcheck // Test cleanup
	}()

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "value1", os.Getenv("KEY1"))
	assert.Equal(t, "value with spaces", os.Getenv("KEY2"))
}
