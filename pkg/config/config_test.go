package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("VIMEET_PORT", "")
	t.Setenv("VIMEET_BIND_ADDRESS", "")
	t.Setenv("VIMEET_STATIC_DIR", "")

	cfg := Load()
	assert.Equal(t, "127.0.0.1:8080", cfg.GetServerAddr())
	assert.Equal(t, "static", cfg.StaticDir)
}

func TestPortPrecedence(t *testing.T) {
	t.Setenv("VIMEET_BIND_ADDRESS", "0.0.0.0")
	t.Setenv("VIMEET_PORT", "9001")
	t.Setenv("PORT", "")

	cfg := Load()
	assert.Equal(t, "0.0.0.0:9001", cfg.GetServerAddr())

	// PORT wins over VIMEET_PORT
	t.Setenv("PORT", "3000")
	cfg = Load()
	assert.Equal(t, "0.0.0.0:3000", cfg.GetServerAddr())
}
