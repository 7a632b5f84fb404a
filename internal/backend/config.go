package backend

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/tierstack/tierstack/internal/api"
)

// Environment variables read by the backend.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvDBSSLMode   = "DB_SSLMODE"
)

// Defaults.
const (
	DefaultPort = 8000
	Version     = "1.0.0"
)

var sslModes = map[string]bool{
	"disable": true, "require": true, "verify-ca": true, "verify-full": true,
}

// Config configures the backend service.
type Config struct {
	api.ServiceConfig

	// DatabaseURL is the resolved connection secret JSON, not a URL.
	DatabaseURL string
	SSLMode     string
}

// NewViper returns a viper instance with the backend defaults.
func NewViper() *viper.Viper {
	v := api.NewViper(DefaultPort)
	v.SetDefault(EnvDatabaseURL, "")
	v.SetDefault(EnvDBSSLMode, "require")
	return v
}

// LoadConfig reads the backend configuration. The secret itself is parsed
// separately so that a broken secret still lets the service start.
func LoadConfig(v *viper.Viper) (Config, error) {
	svc, err := api.LoadServiceConfig(v)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		ServiceConfig: svc,
		DatabaseURL:   v.GetString(EnvDatabaseURL),
		SSLMode:       v.GetString(EnvDBSSLMode),
	}
	if !sslModes[cfg.SSLMode] {
		return Config{}, fmt.Errorf("unsupported %s %q", EnvDBSSLMode, cfg.SSLMode)
	}
	return cfg, nil
}
