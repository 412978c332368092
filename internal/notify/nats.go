// OmniStream - Media Server Session Monitoring and Alerting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/omnistream

package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/omnistream/internal/config"
	"github.com/tomtom215/omnistream/internal/logging"
	"github.com/tomtom215/omnistream/internal/models"
)

const defaultNATSURL = "nats://127.0.0.1:4222"

// NATSChannel publishes notifications as JSON to a core NATS subject.
// The connection is opened on the first send and reconnects on its own
// afterwards.
type NATSChannel struct {
	cfg    config.NATSConfig
	logger watermill.LoggerAdapter

	mu        sync.Mutex
	publisher message.Publisher
	closed    bool
}

func NewNATSChannel(cfg config.NATSConfig) *NATSChannel {
	if cfg.URL == "" {
		cfg.URL = defaultNATSURL
	}
	return &NATSChannel{
		cfg:    cfg,
		logger: watermill.NewSlogLogger(logging.NewSlogLogger()),
	}
}

func (c *NATSChannel) Name() string  { return ChannelNATS }
func (c *NATSChannel) Enabled() bool { return c.cfg.Enabled }

func (c *NATSChannel) Validate() error {
	if c.cfg.Subject == "" {
		return errors.New("nats subject is required")
	}
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid nats URL: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("nats URL scheme must be nats, tls, ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("nats URL must have a host")
	}
	return nil
}

// NATSMessage is the JSON body published for each notification.
type NATSMessage struct {
	Notification *models.Notification `json:"notification"`
	Text         string               `json:"text"`
}

func (c *NATSChannel) Send(ctx context.Context, n *models.Notification) error {
	if err := c.Validate(); err != nil {
		return &SendError{Code: ErrorCodeInvalidConfig, Message: err.Error(), Err: err}
	}
	if err := ctx.Err(); err != nil {
		return transportError(err)
	}

	pub, err := c.connect(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(NATSMessage{Notification: n, Text: FormatText(n)})
	if err != nil {
		return &SendError{Code: ErrorCodeUnknown, Message: fmt.Sprintf("failed to marshal payload: %v", err), Err: err}
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("notification_id", n.ID)
	msg.Metadata.Set("kind", string(n.Kind))
	msg.Metadata.Set("severity", string(n.Severity))

	if err := pub.Publish(c.cfg.Subject, msg); err != nil {
		return transportError(fmt.Errorf("nats publish failed: %w", err))
	}
	return nil
}

func (c *NATSChannel) connect(ctx context.Context) (message.Publisher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, &SendError{Code: ErrorCodeInvalidConfig, Message: "nats channel is closed"}
	}
	if c.publisher != nil {
		return c.publisher, nil
	}

	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	opts := []natsgo.Option{
		natsgo.Name("omnistream-notify"),
		natsgo.Timeout(timeout),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2 * time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Str("channel", ChannelNATS).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("channel", ChannelNATS).Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         c.cfg.URL,
		NatsOptions: opts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, c.logger)
	if err != nil {
		return nil, &SendError{Code: ErrorCodeConnectionFailed, Message: fmt.Sprintf("nats connection failed: %v", err), Err: err}
	}
	c.publisher = pub
	return pub, nil
}

// Close releases the NATS connection.
func (c *NATSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.publisher == nil {
		return nil
	}
	err := c.publisher.Close()
	c.publisher = nil
	return err
}
