// Package config loads the flowguide configuration file.
//
// Configuration is read once at startup from TOML (.toml) or YAML (.yaml,
// .yml) and validated before use. A missing, unparseable or invalid file is
// fatal: Load returns an error coded [errors.ErrCodeFileNotFound] or
// [errors.ErrCodeInvalidConfig].
//
// Example (TOML):
//
//	highlighting_color   = "#ff7f50"
//	magnifying_ratio     = 1.0
//	echo                 = false
//	graph_data_file_path = "graph.json"
//
//	[base_graph_layout]
//	name = "breadthfirst"
//
//	[server]
//	addr = ":8050"
//
//	[session]
//	backend = "memory"
//	ttl     = "24h"
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowguide/pkg/errors"
	"github.com/matzehuels/flowguide/pkg/format"
	"github.com/matzehuels/flowguide/pkg/session"
)

// EnvPath names the environment variable consulted when no --config flag
// is given.
const EnvPath = "FLOWGUIDE_CONFIG"

// DefaultPath is used when neither the flag nor EnvPath is set.
const DefaultPath = "flowguide.toml"

// Config is the application configuration.
type Config struct {
	// HighlightingColor is the background color of the focus node.
	HighlightingColor string `toml:"highlighting_color" yaml:"highlighting_color" validate:"required,hexcolor|rgb|rgba|hsl|hsla|alpha"`

	// MagnifyingRatio scales label magnification around the focus.
	MagnifyingRatio float64 `toml:"magnifying_ratio" yaml:"magnifying_ratio" validate:"gt=0"`

	// Echo enables debug logging.
	Echo bool `toml:"echo" yaml:"echo"`

	// GraphDataFilePath locates the graph document. Relative paths are
	// resolved against the directory of the configuration file.
	GraphDataFilePath string `toml:"graph_data_file_path" yaml:"graph_data_file_path" validate:"required"`

	// BaseGraphLayout holds Cytoscape layout parameters. The roots key is
	// overwritten at render time.
	BaseGraphLayout map[string]any `toml:"base_graph_layout" yaml:"base_graph_layout"`

	Server  ServerConfig  `toml:"server" yaml:"server"`
	Session SessionConfig `toml:"session" yaml:"session"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`

	// path is the file the configuration was loaded from.
	path string
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr" validate:"required"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Backend       string        `toml:"backend" yaml:"backend" validate:"oneof=memory file redis mongo"`
	TTL           time.Duration `toml:"ttl" yaml:"ttl" validate:"gt=0"`
	Dir           string        `toml:"dir" yaml:"dir"`
	RedisAddr     string        `toml:"redis_addr" yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int           `toml:"redis_db" yaml:"redis_db" validate:"gte=0"`
	MongoURI      string        `toml:"mongo_uri" yaml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase string        `toml:"mongo_database" yaml:"mongo_database" validate:"required_if=Backend mongo"`
}

// CacheConfig configures the artifact cache.
type CacheConfig struct {
	// Disabled turns artifact caching off.
	Disabled bool `toml:"disabled" yaml:"disabled"`

	// Dir overrides the default cache directory ($XDG_CACHE_HOME/flowguide
	// or ~/.cache/flowguide).
	Dir string `toml:"dir" yaml:"dir"`
}

// validate is the shared validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns the configuration used for keys absent from the file.
func Default() Config {
	return Config{
		HighlightingColor: format.DefaultHighlightColor,
		MagnifyingRatio:   format.DefaultMagnifyingRatio,
		Server:            ServerConfig{Addr: ":8050"},
		Session: SessionConfig{
			Backend:       session.BackendMemory,
			TTL:           session.DefaultTTL,
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "flowguide",
		},
	}
}

// ResolvePath picks the configuration file: the explicit path if given,
// then $FLOWGUIDE_CONFIG, then DefaultPath.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env
	}
	return DefaultPath
}

// Load reads, decodes and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	cfg.path = path
	if !filepath.IsAbs(cfg.GraphDataFilePath) {
		cfg.GraphDataFilePath = filepath.Join(filepath.Dir(path), cfg.GraphDataFilePath)
	}
	return cfg, nil
}

// Parse decodes and validates configuration data. ext selects the format
// (".toml", ".yaml" or ".yml").
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(ext) {
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse toml")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fieldMessage(fe)
			}
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", strings.Join(msgs, "; "))
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate config")
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Namespace()
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", name)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
	}
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// FormatOptions returns the presentation options.
func (c *Config) FormatOptions() format.Options {
	return format.Options{
		HighlightColor:  c.HighlightingColor,
		MagnifyingRatio: c.MagnifyingRatio,
	}
}

// SessionOptions returns the session store options.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		Backend:       c.Session.Backend,
		Dir:           c.Session.Dir,
		RedisAddr:     c.Session.RedisAddr,
		RedisPassword: c.Session.RedisPassword,
		RedisDB:       c.Session.RedisDB,
		MongoURI:      c.Session.MongoURI,
		MongoDatabase: c.Session.MongoDatabase,
	}
}
