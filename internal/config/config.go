package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the global ~/.rentchat/config.toml.
type Config struct {
	DefaultProfile string   `toml:"default_profile"`
	Backend        Backend  `toml:"backend"`
	Realtime       Realtime `toml:"realtime"`
	HTTP           HTTP     `toml:"http"`
}

// Backend holds the remote chat API endpoints.
type Backend struct {
	APIURL string `toml:"api_url"`
	WSURL  string `toml:"ws_url"`
}

// Realtime holds the push-connection retry policy. The backend gives no
// guidance here, so both knobs are configuration rather than constants.
type Realtime struct {
	ReconnectIntervalSecs int `toml:"reconnect_interval_secs"`
	// MaxAttempts caps consecutive failed reconnects. 0 means retry forever.
	MaxAttempts int `toml:"max_attempts"`
}

// HTTP holds client-side request settings.
type HTTP struct {
	// TimeoutSecs bounds each request. 0 means no timeout: a hung send
	// leaves its message in "sending" state, which the product accepts.
	TimeoutSecs int `toml:"timeout_secs"`
}

// Default returns a config with the stock retry policy applied.
func Default() *Config {
	return &Config{
		DefaultProfile: "main",
		Realtime: Realtime{
			ReconnectIntervalSecs: 3,
		},
	}
}

// Load reads config from the given path, filling unset retry fields with
// defaults. Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Realtime.ReconnectIntervalSecs <= 0 {
		cfg.Realtime.ReconnectIntervalSecs = 3
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// LoadEnv overlays process env from an optional .env file next to the
// config. Credentials (RENTCHAT_TOKEN, RENTCHAT_USER_ID) live there or in
// the real environment, never in the TOML file.
func LoadEnv(dir string) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))
}

// ReconnectInterval returns the realtime retry interval as a duration.
func (c *Config) ReconnectInterval() time.Duration {
	return time.Duration(c.Realtime.ReconnectIntervalSecs) * time.Second
}

// HTTPTimeout returns the per-request timeout, zero meaning none.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSecs) * time.Second
}
