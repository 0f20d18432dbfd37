package shared

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override config file values.
const (
	EnvAPIKey     = "ALIGNX_API_KEY"
	EnvAPIBaseURL = "ALIGNX_API_BASE_URL"
)

// LoadEnv reads .env files into the process environment. Missing files are skipped; variables already set win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env", ".env.local"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays environment overrides onto the config.
func ApplyEnv(c *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		c.API.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIBaseURL)); v != "" {
		c.API.BaseURL = strings.TrimRight(v, "/")
	}
}
