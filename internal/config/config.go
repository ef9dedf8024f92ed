// Package config binds the server settings from flags, environment and an
// optional .env file.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"elearning-platform/backend/internal/identity"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every setting except PORT.
const EnvPrefix = "ELEARNING"

// Defaults.
const (
	DefaultPort            = 3000
	DefaultEnvFile         = ".env"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the resolved server configuration.
type Config struct {
	Host            string
	Port            int
	CredentialsPath string
	EnvFile         string
	LogLevel        string
	CORSOrigins     []string
	MetricsListen   string
	OTLPEndpoint    string
	ShutdownTimeout time.Duration
}

// Addr is the address the API listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	}
	if strings.TrimSpace(c.CredentialsPath) == "" {
		return fmt.Errorf("credentials path must not be empty")
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout must not be negative")
	}
	return nil
}

// RegisterFlags declares the server flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("host", "", "interface to listen on (empty for all)")
	fs.Int("port", DefaultPort, "HTTP listen port (env PORT)")
	fs.String("credentials", identity.DefaultCredentialsPath, "path to the Firebase service account key")
	fs.String("env-file", DefaultEnvFile, "dotenv file loaded before reading the environment (ignored when absent)")
	fs.String("log-level", DefaultLogLevel, "log level (trace, debug, info, warn, error)")
	fs.StringSlice("cors-origins", nil, "allowed CORS origins (empty allows all)")
	fs.String("metrics-listen", "", "Prometheus metrics listen address (empty disables)")
	fs.String("otlp-endpoint", "", "OTLP/HTTP trace collector URL, e.g. http://localhost:4318 (empty disables)")
	fs.Duration("shutdown-timeout", DefaultShutdownTimeout, "time allowed for in-flight requests on shutdown")
}

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"host":             "host",
	"port":             "port",
	"credentials":      "credentials-path",
	"env-file":         "env-file",
	"log-level":        "log-level",
	"cors-origins":     "cors-origins",
	"metrics-listen":   "metrics-listen",
	"otlp-endpoint":    "otlp-endpoint",
	"shutdown-timeout": "shutdown-timeout",
}

// NewViper returns a viper instance bound to fs and the environment.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "PORT", EnvPrefix+"_PORT"); err != nil {
		return nil, err
	}
	for flagName, key := range flagKeys {
		f := fs.Lookup(flagName)
		if f == nil {
			return nil, fmt.Errorf("flag %q not registered", flagName)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Load resolves the configuration. Values from the dotenv file only apply
// where neither a flag nor a real environment variable is set. A dotenv file
// named by --env-file or ELEARNING_ENV_FILE must exist; the default one may
// be absent.
func Load(v *viper.Viper) (Config, error) {
	envFile := strings.TrimSpace(v.GetString("env-file"))
	if envFile != "" {
		if err := readEnvFile(v, envFile, v.IsSet("env-file")); err != nil {
			return Config{}, err
		}
	}
	cfg := Config{
		Host:            strings.TrimSpace(v.GetString("host")),
		Port:            v.GetInt("port"),
		CredentialsPath: strings.TrimSpace(v.GetString("credentials-path")),
		EnvFile:         envFile,
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("log-level"))),
		CORSOrigins:     splitList(v.GetStringSlice("cors-origins")),
		MetricsListen:   strings.TrimSpace(v.GetString("metrics-listen")),
		OTLPEndpoint:    strings.TrimSpace(v.GetString("otlp-endpoint")),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	return cfg, cfg.Validate()
}

// readEnvFile merges KEY=VALUE pairs from path below the environment. Keys
// are matched the same way environment variables are: PORT, or the
// ELEARNING_ prefix followed by the upper-cased key.
func readEnvFile(v *viper.Viper, path string, explicit bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("env file %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("env file %q is a directory", path)
	}
	dotenv := viper.New()
	dotenv.SetConfigFile(path)
	dotenv.SetConfigType("env")
	if err := dotenv.ReadInConfig(); err != nil {
		return fmt.Errorf("read env file %q: %w", path, err)
	}
	prefix := strings.ToLower(EnvPrefix) + "_"
	for _, envKey := range dotenv.AllKeys() {
		key := envKey
		switch {
		case envKey == "port":
		case strings.HasPrefix(envKey, prefix):
			key = strings.ReplaceAll(strings.TrimPrefix(envKey, prefix), "_", "-")
		default:
			continue
		}
		v.SetDefault(key, dotenv.Get(envKey))
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
