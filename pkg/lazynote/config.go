package lazynote

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/WYI1223/LazyLife/pkg/logger"
	"github.com/WYI1223/LazyLife/pkg/store/sqlstore"
)

// Environment variables read by LoadConfig. They take precedence over the config file.
const (
	EnvDBDriver = "LAZYNOTE_DB_DRIVER"
	EnvDBDSN    = "LAZYNOTE_DB_DSN"
	EnvLogLevel = "LAZYNOTE_LOG_LEVEL"
	EnvLogDir   = "LAZYNOTE_LOG_DIR"
	EnvAddr     = "LAZYNOTE_ADDR"
	EnvReadOnly = "LAZYNOTE_READ_ONLY"
)

// Config holds application configuration.
type Config struct {
	Storage  StorageConfig `yaml:"storage"`
	Log      LogConfig     `yaml:"log"`
	Server   ServerConfig  `yaml:"server"`
	ReadOnly bool          `yaml:"read_only"`

	// Clock overrides time.Now for storage timestamps and day windows.
	Clock func() time.Time `yaml:"-"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Dir receives one log file per process. Logs go to stderr when empty.
	Dir string `yaml:"dir"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{Driver: string(sqlstore.DriverSQLite), DSN: "lazynote.db"},
		Log:     LogConfig{Level: "info"},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

// LoadConfig builds the configuration from the defaults, the YAML file at path (optional),
// a .env file in the working directory (optional) and the process environment, in that order.
func LoadConfig(path string) (*Config, error) {
	return loadConfig(path, ".env", os.LookupEnv)
}

func loadConfig(path, envFile string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	// Real environment variables win over .env entries.
	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvDBDriver, &c.Storage.Driver)
	str(EnvDBDSN, &c.Storage.DSN)
	str(EnvLogLevel, &c.Log.Level)
	str(EnvLogDir, &c.Log.Dir)
	str(EnvAddr, &c.Server.Addr)

	if v, ok := lookup(EnvReadOnly); ok && strings.TrimSpace(v) != "" {
		readOnly, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvReadOnly, v, err)
		}
		c.ReadOnly = readOnly
	}
	return nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if _, err := sqlstore.ParseDriver(c.Storage.Driver); err != nil {
		return err
	}
	if strings.TrimSpace(c.Storage.DSN) == "" {
		return errors.New("storage dsn must not be empty")
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server address must not be empty")
	}
	return nil
}
