// Package config loads the YAML configuration of the serve command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"gopkg.in/yaml.v3"

	"github.com/roach88/dynfilter/internal/api"
	"github.com/roach88/dynfilter/internal/cache"
)

// Config is the serve command configuration:
//
//	logger:
//	  level: info          # debug | info | warn | error
//	  type: colored-text   # json | text | colored-text
//	server:
//	  addr: localhost:8000
//	storage:
//	  driver: sqlite3      # sqlite3 | sqlite | pgx | memory
//	  dsn: products.db
//	  fixtures: products.yaml
//	  watch: false         # reload fixtures when the file changes
//	  generate: 0
//	cache:
//	  url: redis://localhost:6379/0
//	  ttl: 30s
type Config struct {
	Logger  LoggerConfig  `yaml:"logger"`
	Server  api.Config    `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Cache   cache.Config  `yaml:"cache"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Type  string `yaml:"type"`
}

// StorageConfig selects the product source. The memory driver serves
// products loaded from Fixtures and/or Generate without a database.
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Fixtures string `yaml:"fixtures"`
	Watch    bool   `yaml:"watch"`
	Generate int    `yaml:"generate"`
	Seed     int64  `yaml:"seed"`
}

// Default returns the configuration used for omitted keys.
func Default() Config {
	return Config{
		Logger: LoggerConfig{Level: "info", Type: "text"},
		Server: api.Config{Addr: "localhost:8000"},
		Storage: StorageConfig{
			Driver: "sqlite3",
			DSN:    "dynfilter.db",
			Seed:   1,
		},
	}
}

// Load reads a YAML configuration file over the defaults and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var (
	logLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	logTypes = map[string]bool{"json": true, "text": true, "colored-text": true}
	drivers  = map[string]bool{"sqlite3": true, "sqlite": true, "pgx": true, "memory": true}
)

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if _, ok := logLevels[c.Logger.Level]; !ok {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Logger.Level))
	}
	if !logTypes[c.Logger.Type] {
		errs = append(errs, fmt.Errorf("invalid log type: %s", c.Logger.Type))
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, err)
	}
	if !drivers[c.Storage.Driver] {
		errs = append(errs, fmt.Errorf("invalid storage driver: %s", c.Storage.Driver))
	}
	if c.Storage.Driver != "memory" && c.Storage.DSN == "" {
		errs = append(errs, errors.New("storage dsn is required"))
	}
	if c.Storage.Driver != "memory" && (c.Storage.Fixtures != "" || c.Storage.Generate > 0) {
		errs = append(errs, errors.New("storage fixtures and generate only apply to the memory driver"))
	}
	if c.Storage.Generate < 0 {
		errs = append(errs, errors.New("storage generate must not be negative"))
	}
	if c.Storage.Watch && (c.Storage.Driver != "memory" || c.Storage.Fixtures == "") {
		errs = append(errs, errors.New("storage watch needs the memory driver with fixtures"))
	}
	if err := c.Cache.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NewLogger builds the configured logger writing to w.
func (c LoggerConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, ok := logLevels[c.Level]
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", c.Level)
	}

	var handler slog.Handler
	switch c.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level, AddSource: true})
	default:
		return nil, fmt.Errorf("invalid log type: %s", c.Type)
	}
	return slog.New(handler), nil
}
