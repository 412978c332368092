// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/models"
)

// Config holds all application configuration.
//
// Loading order (see Load):
//  1. Defaults from defaultConfig
//  2. Optional YAML file (CONFIG_PATH or the DefaultConfigPaths search list)
//  3. Mapped environment variables
type Config struct {
	Server        ServerConfig               `koanf:"server"`
	Poller        PollerConfig               `koanf:"poller"`
	Registry      RegistryConfig             `koanf:"registry"`
	Backends      []models.BackendDescriptor `koanf:"backends"`
	History       HistoryConfig              `koanf:"history"`
	Notifications NotificationsConfig        `koanf:"notifications"`
	Logging       LoggingConfig              `koanf:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins accepts a comma-separated list when set from the environment.
	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PollerConfig configures the poll scheduler and backend fetches.
type PollerConfig struct {
	Interval time.Duration `koanf:"interval"`
	Timeout  time.Duration `koanf:"timeout"`

	// MaxConcurrency bounds simultaneous fetches in one cycle. 0 means one
	// goroutine per enabled backend.
	MaxConcurrency int `koanf:"max_concurrency"`

	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// AllowOverlap lets a tick start a cycle while the previous one is still
	// running. When false the tick is skipped and counted.
	AllowOverlap bool `koanf:"allow_overlap"`

	ArtworkProxyPath string `koanf:"artwork_proxy_path"`
}

// RegistryConfig selects where backend descriptors come from. When Path is
// empty the inline Backends list is used.
type RegistryConfig struct {
	Path string `koanf:"path"`
}

// History store backends.
const (
	HistoryMemory = "memory"
	HistoryBadger = "badger"
	HistoryDuckDB = "duckdb"
)

// HistoryConfig configures the history recorder and its store.
type HistoryConfig struct {
	// Retention is the row cap. Zero or negative keeps every row.
	Retention  int           `koanf:"retention"`
	Backend    string        `koanf:"backend"`
	Path       string        `koanf:"path"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// LoggingConfig mirrors logging.Config for koanf.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ToLogging converts to the logging package configuration.
func (l LoggingConfig) ToLogging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}

// NotificationsConfig configures rule evaluation and delivery.
type NotificationsConfig struct {
	Enabled bool `koanf:"enabled"`

	Workers     int           `koanf:"workers"`
	QueueSize   int           `koanf:"queue_size"`
	SendTimeout time.Duration `koanf:"send_timeout"`

	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`

	RatePerSecond float64 `koanf:"rate_per_second"`
	RateBurst     int     `koanf:"rate_burst"`

	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`

	Rules    RulesConfig    `koanf:"rules"`
	Channels ChannelsConfig `koanf:"channels"`
}

// RuleToggle enables a rule with no threshold.
type RuleToggle struct {
	Enabled bool `koanf:"enabled"`
}

// ThresholdRule enables a bandwidth rule with a threshold in Mbps.
type ThresholdRule struct {
	Enabled       bool    `koanf:"enabled"`
	ThresholdMbps float64 `koanf:"threshold_mbps"`
}

// RulesConfig holds one entry per alert kind.
type RulesConfig struct {
	Offline          RuleToggle    `koanf:"offline"`
	WANTranscode     RuleToggle    `koanf:"wan_transcode"`
	AnyWAN           RuleToggle    `koanf:"any_wan"`
	HighBandwidth    ThresholdRule `koanf:"high_bandwidth"`
	HighWANBandwidth ThresholdRule `koanf:"high_wan_bandwidth"`
}

// ChannelsConfig holds every outbound channel.
type ChannelsConfig struct {
	Discord  DiscordConfig  `koanf:"discord"`
	Slack    SlackConfig    `koanf:"slack"`
	Telegram TelegramConfig `koanf:"telegram"`
	Webhook  WebhookConfig  `koanf:"webhook"`
	Email    EmailConfig    `koanf:"email"`
	SMS      SMSConfig      `koanf:"sms"`
	Pushover PushoverConfig `koanf:"pushover"`
	Ntfy     NtfyConfig     `koanf:"ntfy"`
	NATS     NATSConfig     `koanf:"nats"`
	InApp    InAppConfig    `koanf:"inapp"`
}

type DiscordConfig struct {
	Enabled    bool   `koanf:"enabled"`
	WebhookURL string `koanf:"webhook_url" validate:"required_if=Enabled true,omitempty,url"`
	Username   string `koanf:"username"`
}

type SlackConfig struct {
	Enabled    bool   `koanf:"enabled"`
	WebhookURL string `koanf:"webhook_url" validate:"required_if=Enabled true,omitempty,url"`
	Channel    string `koanf:"channel"`
}

type TelegramConfig struct {
	Enabled  bool   `koanf:"enabled"`
	BotToken string `koanf:"bot_token" validate:"required_if=Enabled true"`
	ChatID   string `koanf:"chat_id" validate:"required_if=Enabled true"`
	APIBase  string `koanf:"api_base" validate:"omitempty,url"`
}

type WebhookConfig struct {
	Enabled bool              `koanf:"enabled"`
	URL     string            `koanf:"url" validate:"required_if=Enabled true,omitempty,url"`
	Headers map[string]string `koanf:"headers"`
}

type EmailConfig struct {
	Enabled  bool     `koanf:"enabled"`
	SMTPHost string   `koanf:"smtp_host" validate:"required_if=Enabled true"`
	SMTPPort int      `koanf:"smtp_port" validate:"omitempty,min=1,max=65535"`
	Username string   `koanf:"username"`
	Password string   `koanf:"password"`
	From     string   `koanf:"from" validate:"required_if=Enabled true,omitempty,email"`
	To       []string `koanf:"to" validate:"required_if=Enabled true,dive,email"`
}

// SMSConfig targets the Twilio Messages API.
type SMSConfig struct {
	Enabled    bool   `koanf:"enabled"`
	AccountSID string `koanf:"account_sid" validate:"required_if=Enabled true"`
	AuthToken  string `koanf:"auth_token" validate:"required_if=Enabled true"`
	From       string `koanf:"from" validate:"required_if=Enabled true"`
	To         string `koanf:"to" validate:"required_if=Enabled true"`
	APIBase    string `koanf:"api_base" validate:"omitempty,url"`
}

type PushoverConfig struct {
	Enabled bool   `koanf:"enabled"`
	Token   string `koanf:"token" validate:"required_if=Enabled true"`
	User    string `koanf:"user" validate:"required_if=Enabled true"`
	APIBase string `koanf:"api_base" validate:"omitempty,url"`
}

type NtfyConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Server      string `koanf:"server" validate:"omitempty,url"`
	Topic       string `koanf:"topic" validate:"required_if=Enabled true"`
	AccessToken string `koanf:"access_token"`
}

// NATSConfig publishes notifications to a core NATS subject.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	Subject string `koanf:"subject" validate:"required_if=Enabled true"`
}

// InAppConfig pushes notifications to connected websocket clients.
type InAppConfig struct {
	Enabled bool `koanf:"enabled"`
}
