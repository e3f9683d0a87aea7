package config

import (
	"os"

	"vimeet/pkg/logging"

	"github.com/joho/godotenv"
)

// Config holds the server configuration, sourced from the environment
type Config struct {
	BindAddress string
	Port        string
	StaticDir   string
}

// Load reads configuration from a .env file (if present) and the environment
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		logging.S().Info("Loaded configuration from .env")
	}

	return &Config{
		BindAddress: getEnv("VIMEET_BIND_ADDRESS", "127.0.0.1"),
		Port:        getPort(),
		StaticDir:   getEnv("VIMEET_STATIC_DIR", "static"),
	}
}

// getPort resolves the listen port: PORT wins, then VIMEET_PORT, then 8080
func getPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return getEnv("VIMEET_PORT", "8080")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetServerAddr returns the address the HTTP listener binds to
func (c *Config) GetServerAddr() string {
	return c.BindAddress + ":" + c.Port
}
