package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store drivers.
const (
	StoreDriverREST   = "rest"
	StoreDriverSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Store  StoreConfig       `yaml:"store"`
	Bucket BucketConfig      `yaml:"bucket"`
	Prefs  PrefsConfig       `yaml:"prefs"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Bucket.Validate(); err != nil {
		return err
	}
	if err := c.Prefs.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects and configures the record repository backend.
//
// Driver picks the backend:
//   - "rest": a PostgREST-compatible endpoint (hosted Postgres).
//   - "sqlite": a local SQLite file, suitable for offline sites.
type StoreConfig struct {
	Driver string            `yaml:"driver"`
	REST   RESTStoreConfig   `yaml:"rest"`
	SQLite SQLiteStoreConfig `yaml:"sqlite"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = StoreDriverSQLite
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(StoreDriverREST, StoreDriverSQLite)),
	); err != nil {
		return err
	}
	switch c.Driver {
	case StoreDriverREST:
		return c.REST.Validate()
	default:
		return c.SQLite.Validate()
	}
}

// RESTStoreConfig holds the PostgREST endpoint settings.
type RESTStoreConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Table   string `yaml:"table"`
}

// Validate validates the REST store configuration.
func (c *RESTStoreConfig) Validate() error {
	if c.Table == "" {
		c.Table = "installations"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.APIKey, validation.Required),
	)
}

// SQLiteStoreConfig holds the local database settings.
type SQLiteStoreConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite store configuration.
func (c *SQLiteStoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// BucketConfig holds object-storage settings for photo attachments.
// The whole section is optional: an empty base_url disables uploads,
// the SSE-driven attachment endpoint, and the spool watcher.
type BucketConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Name     string `yaml:"name"`
	SpoolDir string `yaml:"spool_dir"`
}

// Enabled reports whether object storage is configured.
func (c *BucketConfig) Enabled() bool {
	return c.BaseURL != ""
}

// Validate validates the bucket configuration.
func (c *BucketConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Name == "" {
		c.Name = "installation-images"
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.APIKey, validation.Required),
	)
}

// PrefsConfig holds the path to the preference file.
type PrefsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the preference configuration.
func (c *PrefsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Driver: StoreDriverSQLite,
			REST: RESTStoreConfig{
				Table: "installations",
			},
			SQLite: SQLiteStoreConfig{
				Path: "./sitetrack.db",
			},
		},
		Bucket: BucketConfig{
			Name: "installation-images",
		},
		Prefs: PrefsConfig{
			Path: "./prefs.json",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
