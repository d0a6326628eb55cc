package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig holds the local transport's connection settings.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	Subject        string        `yaml:"subject"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
	MaxReconnects  int           `yaml:"max_reconnects"`
}

// DefaultNATSConfig returns a default NATS transport configuration.
func DefaultNATSConfig() *NATSConfig {
	return &NATSConfig{
		URL:            nats.DefaultURL,
		Subject:        "calendar.reminders",
		ConnectTimeout: 5 * time.Second,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  10,
	}
}

// NATSTransport delivers reminders over NATS. It backs the local runner,
// where no cloud transport is available.
type NATSTransport struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewNATSTransport connects to NATS and returns a transport publishing to
// the configured subject.
func NewNATSTransport(config *NATSConfig, logger *slog.Logger) (*NATSTransport, error) {
	if config == nil {
		config = DefaultNATSConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(config.URL,
		nats.Timeout(config.ConnectTimeout),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", config.URL, err)
	}

	logger.Info("NATS transport initialized", "url", config.URL, "subject", config.Subject)

	return &NATSTransport{
		conn:    conn,
		subject: config.Subject,
		logger:  logger,
	}, nil
}

// Publish sends one message on the configured NATS subject. The subject-line
// argument has no NATS equivalent and is ignored; NATS assigns no message id,
// so the returned id is empty.
func (t *NATSTransport) Publish(ctx context.Context, _ string, message string) (string, error) {
	if t.conn == nil || t.conn.IsClosed() {
		return "", fmt.Errorf("NATS connection is not available")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if err := t.conn.Publish(t.subject, []byte(message)); err != nil {
		return "", fmt.Errorf("failed to publish reminder: %w", err)
	}

	t.logger.Debug("Published reminder", "subject", t.subject, "message", message)
	return "", nil
}

// Close flushes pending messages and closes the connection.
func (t *NATSTransport) Close() error {
	if t.conn != nil && !t.conn.IsClosed() {
		if err := t.conn.FlushTimeout(5 * time.Second); err != nil {
			t.logger.Warn("Failed to flush messages on close", "error", err)
		}
		t.conn.Close()
		t.logger.Info("NATS transport closed")
	}
	return nil
}
