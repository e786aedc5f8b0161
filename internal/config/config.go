// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; the DSN normally lives in the OS
// keychain. Environment variables prefixed with PGSHIM_ and a .env file in
// the working directory override the file.
package config

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"pgshim/cli/internal/errors"
	"pgshim/cli/internal/scanner"
	"pgshim/cli/internal/translate"
	"pgshim/cli/internal/xdg"
)

// AppFs is the filesystem config and .env files are read from.
var AppFs = afero.NewOsFs()

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel  string          `json:"log_level" mapstructure:"log_level"`
	LogJSON   bool            `json:"log_json" mapstructure:"log_json"`
	DB        DBConfig        `json:"db" mapstructure:"db"`
	Translate TranslateConfig `json:"translate" mapstructure:"translate"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	DSN string `json:"dsn,omitempty" mapstructure:"dsn"`
	// StatementTimeout bounds each round-trip, e.g. "30s". Empty means none.
	StatementTimeout string `json:"statement_timeout,omitempty" mapstructure:"statement_timeout"`
	// Driver selects the client library exec runs on: pgx or pq.
	Driver string `json:"driver,omitempty" mapstructure:"driver"`
}

// Database drivers accepted by db.driver.
const (
	DriverPgx = "pgx"
	DriverPq  = "pq"
)

// TranslateConfig holds translator settings.
type TranslateConfig struct {
	CacheSize           int  `json:"cache_size" mapstructure:"cache_size"`
	BackslashEscapes    bool `json:"backslash_escapes" mapstructure:"backslash_escapes"`
	BacktickIdentifiers bool `json:"backtick_identifiers" mapstructure:"backtick_identifiers"`
}

// Timeout parses StatementTimeout.
func (c DBConfig) Timeout() (time.Duration, error) {
	if c.StatementTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.StatementTimeout)
	if err != nil || d < 0 {
		return 0, errors.Wrap(errors.ConfigInvalid, "db.statement_timeout must be a positive duration such as 30s", err)
	}
	return d, nil
}

// DriverName validates Driver. Empty means pgx.
func (c DBConfig) DriverName() (string, error) {
	switch d := strings.ToLower(strings.TrimSpace(c.Driver)); d {
	case "":
		return DriverPgx, nil
	case DriverPgx, DriverPq:
		return d, nil
	default:
		return "", errors.New(errors.ConfigInvalid, "db.driver must be pgx or pq, got "+c.Driver)
	}
}

// ScanOptions returns the MySQL lexing rules with the configured escaping.
func (c TranslateConfig) ScanOptions() scanner.Options {
	scan := scanner.MySQL()
	scan.BackslashEscapes = c.BackslashEscapes
	return scan
}

// TranslatorOptions turns the settings into translator options.
func (c TranslateConfig) TranslatorOptions() []translate.Option {
	opts := []translate.Option{
		translate.WithScanOptions(c.ScanOptions()),
		translate.WithCache(c.CacheSize),
	}
	if c.BacktickIdentifiers {
		opts = append(opts, translate.WithBacktickIdentifiers())
	}
	return opts
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.statement_timeout", "")
	v.SetDefault("db.driver", DriverPgx)
	v.SetDefault("translate.cache_size", 1024)
	v.SetDefault("translate.backslash_escapes", true)
	v.SetDefault("translate.backtick_identifiers", false)
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; a missing file yields defaults.
func Load() (Config, error) {
	p, err := path()
	if err != nil {
		return Config{}, err
	}
	return load(AppFs, p)
}

func load(fsys afero.Fs, file string) (Config, error) {
	var c Config
	if err := loadDotEnv(fsys, ".env"); err != nil {
		return c, err
	}

	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigFile(file)
	v.SetConfigType("json")
	v.SetEnvPrefix("PGSHIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) && !stderrors.Is(err, fs.ErrNotExist) {
			return c, errors.Wrap(errors.ConfigInvalid, "cannot read "+file, err)
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, errors.Wrap(errors.ConfigInvalid, "cannot decode configuration", err)
	}
	if _, err := c.DB.Timeout(); err != nil {
		return c, err
	}
	if _, err := c.DB.DriverName(); err != nil {
		return c, err
	}
	return c, nil
}

// loadDotEnv exports variables from a .env file without overriding ones
// already set.
func loadDotEnv(fsys afero.Fs, name string) error {
	f, err := fsys.Open(name)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return errors.Wrap(errors.ConfigInvalid, "cannot parse "+name, err)
	}
	for k, val := range vars {
		if os.Getenv(k) == "" {
			if err := os.Setenv(k, val); err != nil {
				return err
			}
		}
	}
	return nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	return save(AppFs, p, c)
}

func save(fsys afero.Fs, file string, c Config) error {
	if err := fsys.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(fsys, file, b, 0o600)
}

// DSNStore is the keychain lookup ResolveDSN falls back to.
type DSNStore interface {
	LoadDBDSN() (string, error)
}

// ResolveDSN picks the connection string from, in order, PGSHIM_DSN,
// DATABASE_URL, the keychain and the config file. It also reports where the
// value came from.
func ResolveDSN(c Config, store DSNStore) (dsn, source string, err error) {
	if v := strings.TrimSpace(os.Getenv("PGSHIM_DSN")); v != "" {
		return v, "PGSHIM_DSN", nil
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v, "DATABASE_URL", nil
	}
	if store != nil {
		if v, err := store.LoadDBDSN(); err == nil && v != "" {
			return v, "keychain", nil
		}
	}
	if v := strings.TrimSpace(c.DB.DSN); v != "" {
		return v, "config", nil
	}
	return "", "", errors.New(errors.ConfigInvalid, "no database configured; run 'pgshim connect' or set PGSHIM_DSN")
}
