package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/toolshelf/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-s", "-t", "-r", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   REST bind address (e.g. ":8080")
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r string   Redis URL for the token deny-list
//	-l string   log level
//
// Arguments the set does not own are filtered out first with
// flagx.FilterArgs so the -c/-config flag and foreign flags coexist.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("toolshelf", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	ttl := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL for token revocation")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*ttl) * time.Minute
		}
	})
	return nil
}
