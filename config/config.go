// Package config provides kernelbridge configuration using Viper.
//
// Configuration precedence (lowest to highest): defaults < config file < env vars.
// Environment variables use the KERNELBRIDGE_ prefix with dots replaced by
// underscores, e.g. completion.timeout_ms -> KERNELBRIDGE_COMPLETION_TIMEOUT_MS.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// TimeoutOverrideEnvVar overrides the completion timeout for test environments.
// Parsed as integer milliseconds; absent, non-numeric, or zero values are ignored.
const TimeoutOverrideEnvVar = "KERNELBRIDGE_COMPLETION_TIMEOUT_MS"

// Config holds kernelbridge configuration
type Config struct {
	Completion CompletionConfig `mapstructure:"completion"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Server     ServerConfig     `mapstructure:"server"`
}

// CompletionConfig configures the completion adapter
type CompletionConfig struct {
	// TimeoutMS bounds how long a completion request may wait on the kernel
	TimeoutMS int `mapstructure:"timeout_ms"`
}

// GatewayConfig configures the kernel gateway client
type GatewayConfig struct {
	URL                     string  `mapstructure:"url"`
	HandshakeTimeoutSeconds int     `mapstructure:"handshake_timeout_seconds"`
	RequestsPerSecond       float64 `mapstructure:"requests_per_second"`
}

// ServerConfig configures the LSP front end
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	MaxDocuments int    `mapstructure:"max_documents"`
}

// Timeout returns the effective completion timeout, honoring the test
// environment override when it parses to a positive integer.
func (c CompletionConfig) Timeout() time.Duration {
	fallback := time.Duration(c.TimeoutMS) * time.Millisecond

	raw := os.Getenv(TimeoutOverrideEnvVar)
	if raw == "" {
		return fallback
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Completion defaults
	v.SetDefault("completion.timeout_ms", 2000) // 2s keeps the editor responsive

	// Gateway defaults
	v.SetDefault("gateway.url", "ws://localhost:8888")
	v.SetDefault("gateway.handshake_timeout_seconds", 10)
	v.SetDefault("gateway.requests_per_second", 10.0)

	// Server defaults
	v.SetDefault("server.addr", ":8123")
	v.SetDefault("server.max_documents", 100)
}
