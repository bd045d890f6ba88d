package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/mcoot/rpsroom/internal/identity"
)

// Config holds CLI configuration
type Config struct {
	ServerURL    string
	IdentityFile string
	Output       string
	Verbose      bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:    getEnvOrDefault("RPS_SERVER", "http://localhost:8080"),
		IdentityFile: getEnvOrDefault("RPS_IDENTITY_FILE", identity.DefaultPath()),
		Output:       "text",
		Verbose:      false,
	}
}

// Logger returns the logger for commands that run sessions in-process.
// Logs go to stderr only with --verbose.
func (c *Config) Logger() *slog.Logger {
	if !c.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
