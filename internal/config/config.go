package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	// QueueLimit caps frames waiting for one client; 0 means unbounded.
	QueueLimit int `mapstructure:"queue_limit" yaml:"queue_limit"`
	// RateLimit caps inbound frames per second per client; 0 disables it.
	RateLimit     int   `mapstructure:"rate_limit" yaml:"rate_limit"`
	MaxFrameBytes int64 `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes"`

	// DatabasePath enables the sqlite connection journal when set.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// JWTSecret enables token-gated joins when set.
	JWTSecret        string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer        string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience      string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL         time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
	JoinPasswordHash string        `mapstructure:"join_password_hash" yaml:"join_password_hash"`

	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		MaxFrameBytes:     1 << 16,
		JWTIssuer:         "ballrelay",
		JWTAudience:       "ballrelay",
		TokenTTL:          12 * time.Hour,
	}
}

// AuthEnabled reports whether joins require a token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
}
