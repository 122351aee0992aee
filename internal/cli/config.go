package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/rent-finder/internal/session"
)

const defaultServerURL = "http://localhost:8080"

// CLIConfig holds CLI configuration persisted to disk.
type CLIConfig struct {
	ServerURL      string              `yaml:"server_url,omitempty"`
	UploadMaxBytes int64               `yaml:"upload_max_bytes,omitempty"`
	Credential     *session.Credential `yaml:"credential,omitempty"`
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "rf", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// getServerURL returns the server URL from flag, env var, config, or default.
func getServerURL() string {
	if flagServer != "" {
		return flagServer
	}
	if v := os.Getenv("RF_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := loadConfig()
	if err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// getUploadMaxBytes returns the image size ceiling from env var or config.
// Zero means the default.
func getUploadMaxBytes() int64 {
	if v := os.Getenv("RF_UPLOAD_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	cfg, err := loadConfig()
	if err == nil {
		return cfg.UploadMaxBytes
	}
	return 0
}

// fileCredentials keeps the session credential in the config file.
type fileCredentials struct{}

func (fileCredentials) LoadCredential() (*session.Credential, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.Credential, nil
}

func (fileCredentials) SaveCredential(c session.Credential) error {
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}
	cfg.Credential = &c
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	return saveConfig(cfg)
}

func (fileCredentials) ClearCredential() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Credential == nil {
		return nil
	}
	cfg.Credential = nil
	return saveConfig(cfg)
}
