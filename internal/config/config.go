package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"` // console or json

	// WebSocket limits.
	MaxMessageBytes  int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	ClientBuffer     int           `mapstructure:"client_buffer" yaml:"client_buffer"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	PingInterval     time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	InboundRateLimit int           `mapstructure:"inbound_rate_limit" yaml:"inbound_rate_limit"` // messages per minute, 0 = unlimited

	// Identical event+target published again within DedupeWindow is dropped. 0 disables.
	DedupeWindow   time.Duration `mapstructure:"dedupe_window" yaml:"dedupe_window"`
	DedupeMaxBytes int64         `mapstructure:"dedupe_max_bytes" yaml:"dedupe_max_bytes"`

	NATSURL           string `mapstructure:"nats_url" yaml:"nats_url"`
	NATSSubjectPrefix string `mapstructure:"nats_subject_prefix" yaml:"nats_subject_prefix"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" yaml:"service_name"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":4000",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		MaxMessageBytes:   64 << 10,
		ClientBuffer:      32,
		WriteTimeout:      10 * time.Second,
		PingInterval:      25 * time.Second,
		InboundRateLimit:  120,
		DedupeWindow:      5 * time.Second,
		DedupeMaxBytes:    1 << 20,
		NATSSubjectPrefix: "campus.events",
		ServiceName:       "campus-realtime",
	}
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
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.NATSURL != "" {
		c.NATSURL = other.NATSURL
	}
	if other.OTLPEndpoint != "" {
		c.OTLPEndpoint = other.OTLPEndpoint
	}
}
