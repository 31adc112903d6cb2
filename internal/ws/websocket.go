package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lxzan/gws"
	"github.com/rs/zerolog"
)

// ErrClosed is returned by Send and Recv once the connection is gone.
var ErrClosed = errors.New("websocket closed")

// Config holds configuration options for a websocket client.
type Config struct {
	// URL is the websocket server endpoint to connect to.
	URL string
	// HandshakeTimeout bounds the opening handshake. The dial context deadline wins when earlier.
	HandshakeTimeout time.Duration
	// PingInterval is the duration between ping frames. Zero disables keepalive.
	PingInterval time.Duration
	// PongWait is how long the read side may stay silent after a ping before the connection is dropped.
	PongWait time.Duration
	// MaxMessageSize limits inbound messages. Zero keeps the library default.
	MaxMessageSize int
	// BufferSize is the capacity of the inbound message queue.
	BufferSize int
}

// Client is a request/response websocket connection.
// Inbound text messages are queued in arrival order and handed out by Recv.
type Client struct {
	config  Config
	state   *State
	conn    *gws.Conn
	handler *wsEventHandler
	logger  zerolog.Logger

	inbox     chan []byte
	opened    chan struct{}
	done      chan struct{}
	stopChan  chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu       sync.Mutex
	closeErr error
}

type wsEventHandler struct {
	client *Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for connection events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func newClient(config Config, opts ...Option) *Client {
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = 10 * time.Second
	}
	if config.PongWait == 0 {
		config.PongWait = 2 * config.PingInterval
	}
	if config.BufferSize == 0 {
		config.BufferSize = 16
	}

	client := &Client{
		config:   config,
		state:    &State{},
		logger:   zerolog.Nop(),
		inbox:    make(chan []byte, config.BufferSize),
		opened:   make(chan struct{}),
		done:     make(chan struct{}),
		stopChan: make(chan struct{}),
	}
	client.state.Store(StateDisconnected)
	client.handler = &wsEventHandler{client: client}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Dial opens a websocket connection and starts its read loop.
// The handshake honours ctx and Config.HandshakeTimeout.
func Dial(ctx context.Context, config Config, opts ...Option) (*Client, error) {
	c := newClient(config, opts...)
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(StateDisconnected, StateConnecting) {
		return fmt.Errorf("invalid state for connect: %s", c.state.Load())
	}

	handshake := c.config.HandshakeTimeout
	if deadline, ok := ctx.Deadline(); ok {
		handshake = min(handshake, time.Until(deadline))
	}
	if handshake <= 0 {
		c.state.Store(StateDisconnected)
		return fmt.Errorf("connect websocket: %w", context.DeadlineExceeded)
	}

	option := &gws.ClientOption{
		Addr:             c.config.URL,
		HandshakeTimeout: handshake,
	}
	if c.config.MaxMessageSize > 0 {
		option.ReadMaxPayloadSize = c.config.MaxMessageSize
	}

	socket, _, err := gws.NewClient(c.handler, option)
	if err != nil {
		c.state.Store(StateDisconnected)
		return fmt.Errorf("connect websocket: %w", err)
	}
	c.conn = socket

	c.wg.Go(func() {
		socket.ReadLoop()
	})

	select {
	case <-c.opened:
	case <-ctx.Done():
		_ = socket.NetConn().Close()
		c.state.Store(StateDisconnected)
		c.wg.Wait()
		return ctx.Err()
	}

	if c.config.PingInterval > 0 {
		c.wg.Go(c.keepalive)
	}
	return nil
}

func (h *wsEventHandler) OnOpen(socket *gws.Conn) {
	c := h.client
	c.state.Store(StateConnected)
	c.refreshReadDeadline(socket)
	close(c.opened)

	c.logger.Info().
		Str("url", c.config.URL).
		Msg("websocket connected")
}

func (h *wsEventHandler) OnClose(socket *gws.Conn, err error) {
	c := h.client
	c.state.CompareAndSwap(StateConnected, StateDisconnected)

	c.mu.Lock()
	if c.closeErr == nil {
		c.closeErr = err
	}
	c.mu.Unlock()
	c.doneOnce.Do(func() { close(c.done) })

	select {
	case <-c.stopChan:
		c.logger.Debug().Str("url", c.config.URL).Msg("websocket closed")
	default:
		c.logger.Warn().
			Err(err).
			Str("url", c.config.URL).
			Msg("websocket disconnected")
	}
}

func (h *wsEventHandler) OnPing(socket *gws.Conn, payload []byte) {
	h.client.refreshReadDeadline(socket)
	_ = socket.WritePong(payload)
}

func (h *wsEventHandler) OnPong(socket *gws.Conn, payload []byte) {
	h.client.refreshReadDeadline(socket)
}

func (h *wsEventHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	c := h.client
	c.refreshReadDeadline(socket)

	if message.Opcode != gws.OpcodeText || message.Data.Len() == 0 {
		return
	}
	// the message buffer is recycled on Close
	data := append([]byte(nil), message.Bytes()...)

	c.logger.Trace().Int("bytes", len(data)).Msg("received websocket message")

	select {
	case c.inbox <- data:
	case <-c.stopChan:
	}
}

func (c *Client) refreshReadDeadline(socket *gws.Conn) {
	if c.config.PingInterval <= 0 {
		return
	}
	_ = socket.SetReadDeadline(time.Now().Add(c.config.PingInterval + c.config.PongWait))
}

func (c *Client) keepalive() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.SendPing(); err != nil {
				c.logger.Warn().Err(err).Msg("websocket ping failed")
				return
			}
		case <-c.done:
			return
		case <-c.stopChan:
			return
		}
	}
}

// Send writes one text message. A ctx deadline bounds the write.
func (c *Client) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.state.Load() != StateConnected {
		return c.closedError()
	}

	var deadline time.Time
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)

	if err := c.conn.WriteMessage(gws.OpcodeText, data); err != nil {
		return fmt.Errorf("write websocket: %w", err)
	}
	return nil
}

// Recv returns the next inbound message, waiting until one arrives,
// ctx is done or the connection closes.
func (c *Client) Recv(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbox:
		return data, nil
	default:
	}

	select {
	case data := <-c.inbox:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		select {
		case data := <-c.inbox:
			return data, nil
		default:
		}
		return nil, c.closedError()
	case <-c.stopChan:
		return nil, ErrClosed
	}
}

// SendPing sends a ping frame to the server to keep the connection alive.
func (c *Client) SendPing() error {
	if c.state.Load() != StateConnected {
		return c.closedError()
	}
	return c.conn.WritePing(nil)
}

func (c *Client) closedError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeErr != nil {
		return fmt.Errorf("%w: %w", ErrClosed, c.closeErr)
	}
	return ErrClosed
}

// Close sends a close frame, tears down the connection and waits for the read loop.
// It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		wasConnected := c.state.Load() == StateConnected
		c.state.Store(StateClosed)
		close(c.stopChan)

		if c.conn != nil {
			if wasConnected {
				_ = c.conn.WriteClose(1000, nil)
			}
			_ = c.conn.NetConn().Close()
		}
		c.wg.Wait()
	})
	return nil
}

// State returns the current connection state of the websocket.
func (c *Client) State() ConnState {
	return c.state.Load()
}

// IsConnected returns true if the websocket has an active connection.
func (c *Client) IsConnected() bool {
	return c.state.Load() == StateConnected
}
