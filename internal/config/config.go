package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all settings of the contacts service. It is populated once from
// the environment in the cmd packages and passed into each component at
// construction time; no component reads the environment on its own.
type Config struct {
	// Port is the TCP port on which the HTTP server listens.
	Port string `env:"PORT" envDefault:"8080"`

	// GinLogging turns HTTP request logging off when set to "off".
	GinLogging string `env:"GIN_LOGGING" envDefault:"on"`

	// Database connection parameters.
	DBUser string `env:"DBUSER"`
	DBPwd  string `env:"DBPWD"`
	DBHost string `env:"DBHOST" envDefault:"localhost"`
	DBName string `env:"DBNAME" envDefault:"test"`

	// SecretKey signs the issued bearer tokens.
	SecretKey string `env:"SECRET_KEY"`

	// TokenTTL is the lifetime of an issued bearer token.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"30m"`

	// AllowedOrigins is the list of origins allowed to make cross-origin
	// requests, as a comma-separated environment variable.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// CreateRateLimit caps how many contacts a single client address may
	// create per minute.
	CreateRateLimit int `env:"CREATE_RATE_LIMIT" envDefault:"5"`

	// PublicBaseURL is the externally reachable base URL of this service,
	// used to build email verification links.
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Mail delivery settings for the email verification flow.
	SendgridKey  string `env:"SENDGRID_API_KEY"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"noreply@contactbook.example"`
	MailFromName string `env:"MAIL_FROM_NAME" envDefault:"Contacts Service"`

	// Image host settings for the avatar upload flow.
	ImageHostURL string `env:"IMAGE_HOST_URL"`
	ImageHostKey string `env:"IMAGE_HOST_KEY"`
}

// Load parses the configuration from the environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing configuration: %w", err)
	}
	return cfg, nil
}

// DSN returns the MySQL data source name built from the database settings.
// The parseTime option makes the driver scan DATE columns into time.Time.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", c.DBUser, c.DBPwd, c.DBHost, c.DBName)
}
