package session

import (
	"context"

	"github.com/rs/zerolog"

	"xtb/internal/ws"
	"xtb/pkg/core"
)

// Transport is an ordered, reliable, full-duplex message connection.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens a Transport to url.
type Dialer func(ctx context.Context, url string) (Transport, error)

// WebSocketDialer returns a Dialer that opens websocket connections tuned by config.
func WebSocketDialer(config *core.Config, logger zerolog.Logger) Dialer {
	return func(ctx context.Context, url string) (Transport, error) {
		client, err := ws.Dial(ctx, ws.Config{
			URL:              url,
			HandshakeTimeout: config.ConnectTimeout,
			PingInterval:     config.PingInterval,
			MaxMessageSize:   config.MaxMessageSize,
		}, ws.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Options holds optional session collaborators.
type Options struct {
	Dialer Dialer
	Logger zerolog.Logger
}

// Option configures a Session.
type Option func(*Options)

// WithDialer replaces the websocket transport, typically with a fake in tests.
func WithDialer(dialer Dialer) Option {
	return func(o *Options) {
		o.Dialer = dialer
	}
}

// WithLogger sets the logger. Sessions log nothing by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
