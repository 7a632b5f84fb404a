// Package api holds the HTTP plumbing shared by the frontend and backend
// services: environment configuration, the gin router with its middleware
// chain and graceful serving.
package api

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/spf13/viper"

	"github.com/tierstack/tierstack/internal/logging"
)

// Environment variable names shared by both services.
const (
	EnvPort           = "PORT"
	EnvEnvironment    = "ENVIRONMENT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"
	EnvTrustedProxies = "TRUSTED_PROXIES"
)

// ServiceConfig is the configuration every service reads from its
// environment.
type ServiceConfig struct {
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string

	// RateLimitRPS is the per-client request rate; zero disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For header
	// is believed. Empty means the peer address is the client address.
	TrustedProxies []string
}

// Addr is the listen address.
func (c ServiceConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// NewViper returns a viper instance bound to the process environment with
// the shared defaults. port is the service's default listen port.
func NewViper(port int) *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(EnvPort, port)
	v.SetDefault(EnvEnvironment, "development")
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvLogFormat, string(logging.FormatJSON))
	v.SetDefault(EnvRateLimitRPS, 0)
	v.SetDefault(EnvRateLimitBurst, 0)
	v.SetDefault(EnvTrustedProxies, "")
	return v
}

// LoadServiceConfig reads and validates the shared settings.
func LoadServiceConfig(v *viper.Viper) (ServiceConfig, error) {
	cfg := ServiceConfig{
		Port:           v.GetInt(EnvPort),
		Environment:    strings.TrimSpace(v.GetString(EnvEnvironment)),
		LogLevel:       v.GetString(EnvLogLevel),
		LogFormat:      v.GetString(EnvLogFormat),
		RateLimitRPS:   v.GetFloat64(EnvRateLimitRPS),
		RateLimitBurst: v.GetInt(EnvRateLimitBurst),
		TrustedProxies: splitList(v.GetString(EnvTrustedProxies)),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return cfg, fmt.Errorf("%s must be between 1 and 65535, got %d", EnvPort, cfg.Port)
	}
	if cfg.Environment == "" {
		return cfg, fmt.Errorf("%s must not be empty", EnvEnvironment)
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("invalid %s %q: %w", EnvLogLevel, cfg.LogLevel, err)
	}
	if _, err := logging.ParseFormat(cfg.LogFormat); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", EnvLogFormat, err)
	}
	if cfg.RateLimitRPS < 0 {
		return cfg, fmt.Errorf("%s must not be negative", EnvRateLimitRPS)
	}
	for _, p := range cfg.TrustedProxies {
		if !validProxy(p) {
			return cfg, fmt.Errorf("%s: %q is neither an IP nor a CIDR", EnvTrustedProxies, p)
		}
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst < 1 {
		cfg.RateLimitBurst = max(1, int(cfg.RateLimitRPS))
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validProxy(s string) bool {
	if strings.Contains(s, "/") {
		_, err := netip.ParsePrefix(s)
		return err == nil
	}
	_, err := netip.ParseAddr(s)
	return err == nil
}
