package proxy

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tierstack/tierstack/internal/api"
)

// Environment variables read by the frontend.
const (
	EnvBackendURL    = "BACKEND_URL"
	EnvStatusTimeout = "STATUS_TIMEOUT"
	EnvDBTestTimeout = "DB_TEST_TIMEOUT"
)

// Defaults.
const (
	DefaultPort          = 3000
	DefaultStatusTimeout = 10 * time.Second
	DefaultDBTestTimeout = 15 * time.Second
	MinTimeout           = 100 * time.Millisecond
	Version              = "1.0.0"
)

// Config configures the frontend service.
type Config struct {
	api.ServiceConfig

	// BackendURL is the base URL of the backend, usually the internal
	// load balancer. Empty means no upstream is configured.
	BackendURL string

	StatusTimeout time.Duration
	DBTestTimeout time.Duration
}

// NewViper returns a viper instance with the frontend defaults.
func NewViper() *viper.Viper {
	v := api.NewViper(DefaultPort)
	v.SetDefault(EnvBackendURL, "")
	v.SetDefault(EnvStatusTimeout, DefaultStatusTimeout.String())
	v.SetDefault(EnvDBTestTimeout, DefaultDBTestTimeout.String())
	return v
}

// LoadConfig reads the frontend configuration.
func LoadConfig(v *viper.Viper) (Config, error) {
	svc, err := api.LoadServiceConfig(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServiceConfig: svc,
		BackendURL:    strings.TrimRight(strings.TrimSpace(v.GetString(EnvBackendURL)), "/"),
	}
	if cfg.StatusTimeout, err = timeout(v, EnvStatusTimeout); err != nil {
		return Config{}, err
	}
	if cfg.DBTestTimeout, err = timeout(v, EnvDBTestTimeout); err != nil {
		return Config{}, err
	}

	if cfg.BackendURL != "" {
		u, err := url.Parse(cfg.BackendURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return Config{}, fmt.Errorf("%s must be an http(s) URL, got %q", EnvBackendURL, cfg.BackendURL)
		}
	}
	return cfg, nil
}

// timeout reads a duration such as "10s" or "1500ms". A bare integer is
// taken as seconds, not as viper's nanoseconds.
func timeout(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	var d time.Duration
	if secs, err := strconv.Atoi(raw); err == nil {
		d = time.Duration(secs) * time.Second
	} else if d, err = time.ParseDuration(raw); err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	if d < MinTimeout {
		return 0, fmt.Errorf("%s must be at least %s, got %s", key, MinTimeout, d)
	}
	return d, nil
}
