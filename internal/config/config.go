// Package config provides environment-driven configuration for the push relay.
package config

import (
	"errors"
	"os"
)

// Defaults for optional settings.
const (
	DefaultPort         = "8080"
	DefaultVAPIDSubject = "mailto:admin@tpaulino.app"
)

// Errors returned by Validate.
var (
	ErrMissingVAPIDKeys = errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY are required")
	ErrMissingAPIKey    = errors.New("PUSH_API_KEY is required")
)

// Config holds relay configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// VAPIDPublicKey and VAPIDPrivateKey form the key pair used to sign
	// Web Push requests. The public key is served to clients.
	VAPIDPublicKey  string
	VAPIDPrivateKey string

	// VAPIDSubject is the contact URI included in VAPID claims.
	VAPIDSubject string

	// APIKey is the pre-shared secret guarding the send endpoint.
	APIKey string

	// DatabaseURL is the Postgres connection URL for durable subscription
	// storage. Empty means in-memory-only storage.
	DatabaseURL string

	// StaticDir is the directory holding the built frontend. Empty disables
	// static serving.
	StaticDir string
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	return Config{
		Port:            getEnvOrDefault("PORT", DefaultPort),
		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    getEnvOrDefault("VAPID_SUBJECT", DefaultVAPIDSubject),
		APIKey:          os.Getenv("PUSH_API_KEY"),
		DatabaseURL:     getEnvOrDefault("DATABASE_URL", os.Getenv("SUPABASE_DB_URL")),
		StaticDir:       os.Getenv("STATIC_DIR"),
	}
}

// Validate checks that required settings are present.
func (c Config) Validate() error {
	if c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "" {
		return ErrMissingVAPIDKeys
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Persistent reports whether a durable store is configured.
func (c Config) Persistent() bool {
	return c.DatabaseURL != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
