package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultDBPort is used when the secret has no port.
const DefaultDBPort = 5432

var (
	// ErrSecretMissing means DATABASE_URL is empty.
	ErrSecretMissing = errors.New("database secret is empty")

	// ErrSecretMalformed means the secret is not a JSON object.
	ErrSecretMalformed = errors.New("database secret is not valid JSON")

	// ErrSecretIncomplete means a required key is missing or empty.
	ErrSecretIncomplete = errors.New("database secret is incomplete")
)

// DatabaseSecret is the connection secret written by the data tier.
type DatabaseSecret struct {
	Username string
	Password string
	Host     string
	Port     int
	DBName   string
}

// rawSecret accepts the port as a number or a numeric string.
type rawSecret struct {
	Username string          `json:"username"`
	Password string          `json:"password"`
	Host     string          `json:"host"`
	Port     json.RawMessage `json:"port"`
	DBName   string          `json:"dbname"`
}

// ParseDatabaseSecret parses the resolved secret JSON. Username and
// password are required; host and dbname are checked by DSN.
func ParseDatabaseSecret(raw string) (DatabaseSecret, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DatabaseSecret{}, ErrSecretMissing
	}

	var rs rawSecret
	if err := json.Unmarshal([]byte(raw), &rs); err != nil {
		return DatabaseSecret{}, fmt.Errorf("%w: %v", ErrSecretMalformed, err)
	}

	secret := DatabaseSecret{
		Username: rs.Username,
		Password: rs.Password,
		Host:     strings.TrimSpace(rs.Host),
		DBName:   strings.TrimSpace(rs.DBName),
		Port:     DefaultDBPort,
	}
	if secret.Username == "" {
		return DatabaseSecret{}, fmt.Errorf("%w: missing key %q", ErrSecretIncomplete, "username")
	}
	if secret.Password == "" {
		return DatabaseSecret{}, fmt.Errorf("%w: missing key %q", ErrSecretIncomplete, "password")
	}

	port, err := parsePort(rs.Port)
	if err != nil {
		return DatabaseSecret{}, fmt.Errorf("%w: %v", ErrSecretMalformed, err)
	}
	if port != 0 {
		secret.Port = port
	}
	return secret, nil
}

// parsePort returns 0 for an absent or null port.
func parsePort(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		raw = json.RawMessage(s)
	}

	port, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("port %s is not a number", raw)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

// DSN builds a lib/pq connection URL. sslMode empty means "require".
func (s DatabaseSecret) DSN(sslMode string) (string, error) {
	if s.Host == "" {
		return "", fmt.Errorf("%w: missing key %q", ErrSecretIncomplete, "host")
	}
	if s.DBName == "" {
		return "", fmt.Errorf("%w: missing key %q", ErrSecretIncomplete, "dbname")
	}
	if sslMode == "" {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.Username, s.Password),
		Host:     net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Path:     "/" + s.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}, "connect_timeout": {"5"}}.Encode(),
	}
	return u.String(), nil
}

// String hides the password.
func (s DatabaseSecret) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", s.Username, s.Host, s.Port, s.DBName)
}
