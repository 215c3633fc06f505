package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"stripdemo/internal/paths"
)

// DefaultPort is used when PORT is absent or not a usable port number
const DefaultPort = 3000

// DefaultBackendURL is the backend the user client posts to
const DefaultBackendURL = "http://localhost:8000"

// EnvPrefix prefixes every environment override (STRIPDEMO_SERVER_ASSETDIR, ...)
const EnvPrefix = "STRIPDEMO"

// Config represents the complete stripdemo configuration
type Config struct {
	Server  ServerConfig  `json:"server" mapstructure:"server" toml:"server"`
	Client  ClientConfig  `json:"client" mapstructure:"client" toml:"client"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging" toml:"logging"`
}

// ServerConfig configures the static asset server
type ServerConfig struct {
	Host       string            `json:"host" mapstructure:"host" toml:"host"`
	Port       int               `json:"port" mapstructure:"port" toml:"port"`
	AssetDir   string            `json:"assetDir" mapstructure:"assetDir" toml:"assetDir"`
	Prefix     string            `json:"prefix" mapstructure:"prefix" toml:"prefix"`
	IndexFile  string            `json:"indexFile" mapstructure:"indexFile" toml:"indexFile"`
	Dotfiles   string            `json:"dotfiles" mapstructure:"dotfiles" toml:"dotfiles"`
	Compress   bool              `json:"compress" mapstructure:"compress" toml:"compress"`
	ETag       bool              `json:"etag" mapstructure:"etag" toml:"etag"`
	Headers    map[string]string `json:"headers" mapstructure:"headers" toml:"headers"`
	HealthPath string            `json:"healthPath" mapstructure:"healthPath" toml:"healthPath"`

	ReadTimeoutMs  int `json:"readTimeoutMs" mapstructure:"readTimeoutMs" toml:"readTimeoutMs"`
	WriteTimeoutMs int `json:"writeTimeoutMs" mapstructure:"writeTimeoutMs" toml:"writeTimeoutMs"`
	IdleTimeoutMs  int `json:"idleTimeoutMs" mapstructure:"idleTimeoutMs" toml:"idleTimeoutMs"`
}

// ClientConfig configures the user submission client
type ClientConfig struct {
	BackendURL string `json:"backendURL" mapstructure:"backendURL" toml:"backendURL"`
	// TimeoutMs of 0 means requests never time out
	TimeoutMs int `json:"timeoutMs" mapstructure:"timeoutMs" toml:"timeoutMs"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format" toml:"format"`
	Level  string `json:"level" mapstructure:"level" toml:"level"`

	// Per-subsystem overrides of Level
	Server string `json:"server,omitempty" mapstructure:"server" toml:"server,omitempty"`
	Client string `json:"client,omitempty" mapstructure:"client" toml:"client,omitempty"`

	// File is "" for stderr, "auto" for <home>/logs/<subsystem>.log, or an explicit path
	File       string `json:"file,omitempty" mapstructure:"file" toml:"file,omitempty"`
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize" toml:"maxSize,omitempty"`
	MaxBackups int    `json:"maxBackups,omitempty" mapstructure:"maxBackups" toml:"maxBackups,omitempty"`

	Loki LokiConfig `json:"loki" mapstructure:"loki" toml:"loki"`
}

// LokiConfig configures shipping logs to Grafana Loki. An empty Endpoint
// disables it.
type LokiConfig struct {
	Endpoint      string            `json:"endpoint,omitempty" mapstructure:"endpoint" toml:"endpoint,omitempty"`
	Labels        map[string]string `json:"labels,omitempty" mapstructure:"labels" toml:"labels,omitempty"`
	BatchSize     int               `json:"batchSize" mapstructure:"batchSize" toml:"batchSize"`
	FlushInterval string            `json:"flushInterval" mapstructure:"flushInterval" toml:"flushInterval"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "",
			Port:           DefaultPort,
			AssetDir:       "public",
			Prefix:         "/",
			IndexFile:      "index.html",
			Dotfiles:       "ignore",
			Compress:       true,
			ETag:           true,
			Headers:        map[string]string{},
			HealthPath:     "/_/health",
			ReadTimeoutMs:  15000,
			WriteTimeoutMs: 15000,
			IdleTimeoutMs:  60000,
		},
		Client: ClientConfig{
			BackendURL: DefaultBackendURL,
			TimeoutMs:  0,
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			MaxBackups: 3,
			Loki: LokiConfig{
				Labels:        map[string]string{},
				BatchSize:     100,
				FlushInterval: "5s",
			},
		},
	}
}

// ResolvePort turns a raw PORT value into a port number. Anything that is
// not a positive integer in the TCP range falls back to DefaultPort, and ok
// is false when raw was present but unusable.
func ResolvePort(raw string) (port int, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPort, true
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return DefaultPort, false
	}
	return port, true
}

// LoadOptions controls where configuration is read from
type LoadOptions struct {
	// ConfigFile is an explicit config path; it must exist when set
	ConfigFile string
	// SearchDirs are searched for stripdemo.{toml,json,yaml} when ConfigFile is empty.
	// Defaults to "." and the stripdemo home directory.
	SearchDirs []string
	// Viper lets callers pre-bind flags; a fresh instance is used when nil
	Viper *viper.Viper
}

// LoadResult contains the loaded configuration and where it came from
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	Warnings     []string
}

// Load reads configuration with precedence: bound flags > env > config file > defaults
func Load(opts LoadOptions) (*LoadResult, error) {
	v := opts.Viper
	if v == nil {
		v = viper.New()
	}

	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "PORT", EnvPrefix+"_SERVER_PORT")
	_ = v.BindEnv("client.backendURL", "BACKEND_URL", EnvPrefix+"_CLIENT_BACKENDURL")

	result := &LoadResult{}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		result.ConfigPath = v.ConfigFileUsed()
	} else {
		v.SetConfigName("stripdemo")
		dirs := opts.SearchDirs
		if len(dirs) == 0 {
			dirs = []string{"."}
			if home, err := paths.GetHome(); err == nil {
				dirs = append(dirs, home)
			}
		}
		for _, dir := range dirs {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
			result.UsedDefaults = true
		} else {
			result.ConfigPath = v.ConfigFileUsed()
		}
	}

	// PORT follows "use it if it is a usable number, otherwise the default"
	rawPort := v.GetString("server.port")
	port, ok := ResolvePort(rawPort)
	if !ok {
		result.Warnings = append(result.Warnings, "ignoring unusable port "+strconv.Quote(rawPort)+", using "+strconv.Itoa(port))
	}
	v.Set("server.port", port)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Headers == nil {
		cfg.Server.Headers = map[string]string{}
	}

	result.Config = &cfg
	return result, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.assetDir", d.Server.AssetDir)
	v.SetDefault("server.prefix", d.Server.Prefix)
	v.SetDefault("server.indexFile", d.Server.IndexFile)
	v.SetDefault("server.dotfiles", d.Server.Dotfiles)
	v.SetDefault("server.compress", d.Server.Compress)
	v.SetDefault("server.etag", d.Server.ETag)
	v.SetDefault("server.headers", d.Server.Headers)
	v.SetDefault("server.healthPath", d.Server.HealthPath)
	v.SetDefault("server.readTimeoutMs", d.Server.ReadTimeoutMs)
	v.SetDefault("server.writeTimeoutMs", d.Server.WriteTimeoutMs)
	v.SetDefault("server.idleTimeoutMs", d.Server.IdleTimeoutMs)

	v.SetDefault("client.backendURL", d.Client.BackendURL)
	v.SetDefault("client.timeoutMs", d.Client.TimeoutMs)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.server", d.Logging.Server)
	v.SetDefault("logging.client", d.Logging.Client)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	v.SetDefault("logging.loki.endpoint", d.Logging.Loki.Endpoint)
	v.SetDefault("logging.loki.labels", d.Logging.Loki.Labels)
	v.SetDefault("logging.loki.batchSize", d.Logging.Loki.BatchSize)
	v.SetDefault("logging.loki.flushInterval", d.Logging.Loki.FlushInterval)
}

// Save writes the configuration as TOML
func (c *Config) Save(path string) error {
	data, err := c.MarshalTOML()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// MarshalTOML renders the configuration as a TOML document
func (c *Config) MarshalTOML() ([]byte, error) {
	return toml.Marshal(c)
}

var (
	validFormats  = map[string]bool{"human": true, "json": true}
	validLevels   = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	validDotfiles = map[string]bool{"ignore": true, "allow": true, "deny": true}
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	s := c.Server
	if s.Port < 0 || s.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if s.AssetDir == "" {
		return &ConfigError{Field: "server.assetDir", Message: "must not be empty"}
	}
	if !strings.HasPrefix(s.Prefix, "/") {
		return &ConfigError{Field: "server.prefix", Message: "must start with '/'"}
	}
	if !validDotfiles[s.Dotfiles] {
		return &ConfigError{Field: "server.dotfiles", Message: "must be one of ignore, allow, deny"}
	}
	if s.HealthPath != "" && !strings.HasPrefix(s.HealthPath, "/") {
		return &ConfigError{Field: "server.healthPath", Message: "must start with '/'"}
	}
	if s.ReadTimeoutMs < 0 || s.WriteTimeoutMs < 0 || s.IdleTimeoutMs < 0 {
		return &ConfigError{Field: "server", Message: "timeouts must not be negative"}
	}

	u, err := url.Parse(c.Client.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Field: "client.backendURL", Message: "must be an absolute http(s) URL"}
	}
	if c.Client.TimeoutMs < 0 {
		return &ConfigError{Field: "client.timeoutMs", Message: "must not be negative"}
	}

	l := c.Logging
	if !validFormats[l.Format] {
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	for field, level := range map[string]string{"logging.level": l.Level, "logging.server": l.Server, "logging.client": l.Client} {
		if !validLevels[strings.ToLower(level)] {
			return &ConfigError{Field: field, Message: "unknown level " + strconv.Quote(level)}
		}
	}

	if l.Loki.Endpoint != "" {
		u, err := url.Parse(l.Loki.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ConfigError{Field: "logging.loki.endpoint", Message: "must be an absolute http(s) URL"}
		}
	}
	if l.Loki.BatchSize < 0 {
		return &ConfigError{Field: "logging.loki.batchSize", Message: "must not be negative"}
	}
	if l.Loki.FlushInterval != "" {
		if d, err := time.ParseDuration(l.Loki.FlushInterval); err != nil || d <= 0 {
			return &ConfigError{Field: "logging.loki.flushInterval", Message: "must be a positive duration such as 5s"}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
