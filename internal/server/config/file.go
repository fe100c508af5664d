package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/toolshelf/internal/flagx"
	"github.com/dmitrijs2005/toolshelf/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// either "90s" style strings or integer nanoseconds. Pointer fields tell an
// absent key apart from an empty value.
type FileConfig struct {
	HTTPAddr                    *string         `json:"http_addr" yaml:"http_addr"`
	DatabaseDSN                 *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   *string         `json:"secret_key" yaml:"secret_key"`
	JWTAlgorithm                *string         `json:"jwt_algorithm" yaml:"jwt_algorithm"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	DBTimeout                   *timex.Duration `json:"db_timeout" yaml:"db_timeout"`
	LogLevel                    *string         `json:"log_level" yaml:"log_level"`
	LogBackend                  *string         `json:"log_backend" yaml:"log_backend"`
	RedisURL                    *string         `json:"redis_url" yaml:"redis_url"`
	BootstrapOwnerEmail         *string         `json:"bootstrap_owner_email" yaml:"bootstrap_owner_email"`
	BootstrapOwnerPasswordPath  *string         `json:"bootstrap_owner_password_path" yaml:"bootstrap_owner_password_path"`
	GinMode                     *string         `json:"gin_mode" yaml:"gin_mode"`
}

// parseFile overlays the file named by -c/-config onto config. The format
// is picked by extension: .yaml and .yml are YAML, everything else JSON.
// No flag means nothing to load.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setString(&c.JWTAlgorithm, fc.JWTAlgorithm)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogBackend, fc.LogBackend)
	setString(&c.RedisURL, fc.RedisURL)
	setString(&c.BootstrapOwnerEmail, fc.BootstrapOwnerEmail)
	setString(&c.BootstrapOwnerPasswordPath, fc.BootstrapOwnerPasswordPath)
	setString(&c.GinMode, fc.GinMode)
	if fc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.DBTimeout != nil {
		c.DBTimeout = fc.DBTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
