package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// parseEnv overlays environment variables onto config.
//
// Recognized variables:
//
//	HOST, PORT            REST bind address (either may be set alone)
//	DATABASE_URL          full DSN; wins over the POSTGRES_* set
//	POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_DATABASE
//	JWT_SECRET, JWT_ALG, JWT_TTL
//	DB_TIMEOUT, LOG_LEVEL, LOG_BACKEND, REDIS_URL, GIN_MODE
//	BOOTSTRAP_OWNER_EMAIL, BOOTSTRAP_OWNER_PASSWORD_FILE
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		return v, ok && v != ""
	}

	host, hostSet := get("HOST")
	port, portSet := get("PORT")
	if hostSet || portSet {
		h, p, err := net.SplitHostPort(config.HTTPAddr)
		if err != nil {
			h, p = config.HTTPAddr, ""
		}
		if hostSet {
			h = host
		}
		if portSet {
			if _, err := strconv.ParseUint(port, 10, 16); err != nil {
				return fmt.Errorf("invalid PORT %q", port)
			}
			p = port
		}
		config.HTTPAddr = net.JoinHostPort(h, p)
	}

	if dsn, ok := get("DATABASE_URL"); ok {
		config.DatabaseDSN = dsn
	} else if pgHost, ok := get("POSTGRES_HOST"); ok {
		dsn, err := postgresDSN(pgHost, get)
		if err != nil {
			return err
		}
		config.DatabaseDSN = dsn
	}

	if v, ok := get("JWT_SECRET"); ok {
		config.SecretKey = v
	}
	if v, ok := get("JWT_ALG"); ok {
		config.JWTAlgorithm = v
	}
	if err := envDuration(get, "JWT_TTL", &config.AccessTokenValidityDuration); err != nil {
		return err
	}
	if err := envDuration(get, "DB_TIMEOUT", &config.DBTimeout); err != nil {
		return err
	}
	if v, ok := get("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
	if v, ok := get("LOG_BACKEND"); ok {
		config.LogBackend = v
	}
	if v, ok := get("REDIS_URL"); ok {
		config.RedisURL = v
	}
	if v, ok := get("GIN_MODE"); ok {
		config.GinMode = v
	}
	if v, ok := get("BOOTSTRAP_OWNER_EMAIL"); ok {
		config.BootstrapOwnerEmail = v
	}
	if v, ok := get("BOOTSTRAP_OWNER_PASSWORD_FILE"); ok {
		config.BootstrapOwnerPasswordPath = v
	}

	return nil
}

// postgresDSN assembles a pgx URL from the POSTGRES_* variables.
func postgresDSN(host string, get func(string) (string, bool)) (string, error) {
	port := "5432"
	if v, ok := get("POSTGRES_PORT"); ok {
		if _, err := strconv.ParseUint(v, 10, 16); err != nil {
			return "", fmt.Errorf("invalid POSTGRES_PORT %q", v)
		}
		port = v
	}
	user, _ := get("POSTGRES_USER")
	if user == "" {
		user = "postgres"
	}
	password, _ := get("POSTGRES_PASSWORD")
	database, _ := get("POSTGRES_DATABASE")
	if database == "" {
		database = "toolshelf"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + database,
		RawQuery: "sslmode=disable",
	}
	return u.String(), nil
}

func envDuration(get func(string) (string, bool), key string, dst *time.Duration) error {
	v, ok := get(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
