package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Users     []User          `yaml:"users"`
	Store     StoreConfig     `yaml:"store"`
	Artifact  ArtifactConfig  `yaml:"artifact"`
	Minio     MinioConfig     `yaml:"minio"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port               int `yaml:"port"`
	ReadTimeoutSeconds int `yaml:"read_timeout_seconds"`
	// WriteTimeoutSeconds also bounds export downloads
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type AuthConfig struct {
	Enabled          bool   `yaml:"enabled"`
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type StoreConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"database_url"`
	MaxConns    int32  `yaml:"max_conns"`
	// ConnectRetries is the number of ping attempts before startup fails
	ConnectRetries int `yaml:"connect_retries"`
}

// Blob backends
const (
	BackendFilesystem = "filesystem"
	BackendMinio      = "minio"
)

type ArtifactConfig struct {
	Backend      string `yaml:"backend"`
	UploadDir    string `yaml:"upload_dir"`
	MaxSizeBytes int64  `yaml:"max_size_bytes"`
	// MaxRequestBytes caps the whole multipart body; larger requests are cut off
	// before the intake checks run.
	MaxRequestBytes int64 `yaml:"max_request_bytes"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Load reads the YAML file at path, applies defaults and environment
// overrides, then validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults with
// environment overrides applied.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	cfg = Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8081
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 60
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Auth.TokenExpireHours == 0 {
		c.Auth.TokenExpireHours = 24
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	if c.Store.MaxConns == 0 {
		c.Store.MaxConns = 10
	}
	if c.Store.ConnectRetries == 0 {
		c.Store.ConnectRetries = 30
	}
	if c.Artifact.Backend == "" {
		c.Artifact.Backend = BackendFilesystem
	}
	if c.Artifact.UploadDir == "" {
		c.Artifact.UploadDir = "uploads"
	}
	if c.Artifact.MaxSizeBytes == 0 {
		c.Artifact.MaxSizeBytes = 1 << 20
	}
	if c.Artifact.MaxRequestBytes == 0 {
		c.Artifact.MaxRequestBytes = 12 << 20
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		c.Store.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("FILE_UPLOAD_DIR")); v != "" {
		c.Artifact.UploadDir = v
	}
	if v := strings.TrimSpace(os.Getenv("FILE_MAX_SIZE_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FILE_MAX_SIZE_BYTES: %w", err)
		}
		c.Artifact.MaxSizeBytes = n
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	c.fitRequestLimit()
	return nil
}

// multipartOverhead is the room left for boundaries and part headers
const multipartOverhead = 64 << 10

// fitRequestLimit raises the request cap so a file at the size limit always
// reaches the intake checks.
func (c *Config) fitRequestLimit() {
	if floor := c.Artifact.MaxSizeBytes + multipartOverhead; c.Artifact.MaxRequestBytes < floor {
		c.Artifact.MaxRequestBytes = floor
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store.database_url is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	switch c.Artifact.Backend {
	case BackendFilesystem:
	case BackendMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			errs = append(errs, errors.New("minio.endpoint and minio.bucket are required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown artifact.backend %q", c.Artifact.Backend))
	}
	if c.Artifact.MaxSizeBytes < 0 {
		errs = append(errs, errors.New("artifact.max_size_bytes must not be negative"))
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required when auth is enabled"))
	}
	return errors.Join(errs...)
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
