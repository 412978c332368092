// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/omnistream/internal/models"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/omnistream/config.yaml",
	"/etc/omnistream/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              3000,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Poller: PollerConfig{
			Interval:         15 * time.Second,
			Timeout:          10 * time.Second,
			MaxConcurrency:   0,
			MaxBodyBytes:     16 << 20,
			AllowOverlap:     false,
			ArtworkProxyPath: "/api/v1/artwork",
		},
		Backends: []models.BackendDescriptor{},
		History: HistoryConfig{
			Retention:  500,
			Backend:    HistoryMemory,
			Path:       "data/history",
			GCInterval: 10 * time.Minute,
		},
		Notifications: NotificationsConfig{
			Enabled:         true,
			Workers:         4,
			QueueSize:       64,
			SendTimeout:     10 * time.Second,
			MaxRetries:      2,
			RetryBackoff:    500 * time.Millisecond,
			RatePerSecond:   1,
			RateBurst:       5,
			BreakerFailures: 5,
			BreakerTimeout:  60 * time.Second,
			Rules: RulesConfig{
				Offline:          RuleToggle{Enabled: true},
				WANTranscode:     RuleToggle{Enabled: true},
				AnyWAN:           RuleToggle{Enabled: false}, // noisy on remote-heavy servers
				HighBandwidth:    ThresholdRule{Enabled: true, ThresholdMbps: 50},
				HighWANBandwidth: ThresholdRule{Enabled: true, ThresholdMbps: 30},
			},
			Channels: ChannelsConfig{
				Telegram: TelegramConfig{APIBase: "https://api.telegram.org"},
				Email:    EmailConfig{SMTPPort: 587},
				SMS:      SMSConfig{APIBase: "https://api.twilio.com"},
				Pushover: PushoverConfig{APIBase: "https://api.pushover.net"},
				Ntfy:     NtfyConfig{Server: "https://ntfy.sh"},
				NATS:     NATSConfig{URL: "nats://127.0.0.1:4222", Subject: "omnistream.notifications"},
				InApp:    InAppConfig{Enabled: true},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and
// the environment, then validates it.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for path := range envEnabledChannels() {
		if err := k.Set(path, true); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", path, err)
		}
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
	"notifications.channels.email.to",
}

// processSliceFields splits comma-separated env values for slice keys.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Server
	"http_host":    "server.host",
	"http_port":    "server.port",
	"cors_origins": "server.cors_origins",

	// Poller
	"poll_interval":      "poller.interval",
	"poll_timeout":       "poller.timeout",
	"poll_concurrency":   "poller.max_concurrency",
	"poll_allow_overlap": "poller.allow_overlap",

	// Registry
	"servers_file": "registry.path",

	// History
	"history_retention": "history.retention",
	"history_backend":   "history.backend",
	"history_path":      "history.path",

	// Notifications
	"notifications_enabled":      "notifications.enabled",
	"notify_workers":             "notifications.workers",
	"notify_max_retries":         "notifications.max_retries",
	"notify_any_wan":             "notifications.rules.any_wan.enabled",
	"notify_high_bandwidth_mbps": "notifications.rules.high_bandwidth.threshold_mbps",
	"notify_high_wan_mbps":       "notifications.rules.high_wan_bandwidth.threshold_mbps",

	"discord_webhook_url": "notifications.channels.discord.webhook_url",
	"slack_webhook_url":   "notifications.channels.slack.webhook_url",
	"telegram_bot_token":  "notifications.channels.telegram.bot_token",
	"telegram_chat_id":    "notifications.channels.telegram.chat_id",
	"webhook_url":         "notifications.channels.webhook.url",
	"smtp_host":           "notifications.channels.email.smtp_host",
	"smtp_port":           "notifications.channels.email.smtp_port",
	"smtp_username":       "notifications.channels.email.username",
	"smtp_password":       "notifications.channels.email.password",
	"email_from":          "notifications.channels.email.from",
	"email_to":            "notifications.channels.email.to",
	"twilio_account_sid":  "notifications.channels.sms.account_sid",
	"twilio_auth_token":   "notifications.channels.sms.auth_token",
	"twilio_from":         "notifications.channels.sms.from",
	"sms_to":              "notifications.channels.sms.to",
	"pushover_token":      "notifications.channels.pushover.token",
	"pushover_user":       "notifications.channels.pushover.user",
	"ntfy_server":         "notifications.channels.ntfy.server",
	"ntfy_topic":          "notifications.channels.ntfy.topic",
	"ntfy_access_token":   "notifications.channels.ntfy.access_token",
	"nats_url":            "notifications.channels.nats.url",
	"nats_subject":        "notifications.channels.nats.subject",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// Setting a channel credential through the environment enables the channel.
var envEnables = map[string]string{
	"discord_webhook_url": "notifications.channels.discord.enabled",
	"slack_webhook_url":   "notifications.channels.slack.enabled",
	"telegram_bot_token":  "notifications.channels.telegram.enabled",
	"webhook_url":         "notifications.channels.webhook.enabled",
	"smtp_host":           "notifications.channels.email.enabled",
	"twilio_account_sid":  "notifications.channels.sms.enabled",
	"pushover_token":      "notifications.channels.pushover.enabled",
	"ntfy_topic":          "notifications.channels.ntfy.enabled",
	"nats_subject":        "notifications.channels.nats.enabled",
}

// envTransformFunc maps environment variable names to koanf paths. Unmapped
// variables return "" and are ignored.
//
//   - HTTP_PORT -> server.port
//   - POLL_INTERVAL -> poller.interval
//   - DISCORD_WEBHOOK_URL -> notifications.channels.discord.webhook_url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// envEnabledChannels returns the enable keys implied by channel credentials
// present in the environment.
func envEnabledChannels() map[string]bool {
	out := make(map[string]bool)
	for envKey, path := range envEnables {
		if os.Getenv(strings.ToUpper(envKey)) != "" {
			out[path] = true
		}
	}
	return out
}
