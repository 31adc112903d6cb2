package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"xtb/internal/ratelimit"
	"xtb/pkg/core"
	"xtb/pkg/xapi"
)

// Session represents one logical connection to the xAPI server.
// It owns the transport, the login state and the correlation tag sequence.
// Commands are serialized: each send is followed by exactly one receive.
// Sessions are safe for concurrent use, but calls never overlap on the wire.
type Session struct {
	mu          sync.Mutex
	config      *core.Config
	dialer      Dialer
	rateLimiter *ratelimit.RateLimiter
	logger      zerolog.Logger

	transport       Transport
	state           State
	broken          error
	tag             string
	seq             uint64
	streamSessionID string

	createdAt time.Time
	lastUsed  time.Time
}

// New creates a disconnected Session with the provided configuration.
// The configuration is validated before the session is created.
func New(config *core.Config, opts ...Option) (*Session, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	options := Options{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Dialer == nil {
		options.Dialer = WebSocketDialer(config, options.Logger)
	}

	tag := config.CustomTag
	if tag == "" {
		tag = "xtb-go-" + uuid.NewString()[:8]
	}

	return &Session{
		config:      config,
		dialer:      options.Dialer,
		rateLimiter: ratelimit.New(config.RequestInterval, config.RequestBurst),
		logger:      options.Logger.With().Str("component", "session").Str("tag", tag).Logger(),
		state:       StateDisconnected,
		tag:         tag,
		createdAt:   time.Now(),
		lastUsed:    time.Now(),
	}, nil
}

// Connect opens the transport. Connecting an open session is a no-op.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(ctx)
}

func (s *Session) connectLocked(ctx context.Context) error {
	if s.transport != nil {
		return nil
	}

	dctx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	defer cancel()

	endpoint := s.config.Endpoint()
	transport, err := s.dialer(dctx, endpoint)
	if err != nil {
		return core.NewAPIError(core.ErrorTypeNetwork, "connect "+endpoint, err).WithCode(core.ErrCodeNetwork)
	}

	s.transport = transport
	s.state = StateConnected
	s.broken = nil
	s.seq = 0
	s.logger.Info().Str("endpoint", endpoint).Msg("session connected")
	return nil
}

// Login authenticates with the configured credentials and returns the stream session id.
// A disconnected session connects first. Logging in again replaces the stream session id.
func (s *Session) Login(ctx context.Context) (string, error) {
	creds := s.config.Credentials
	if creds == nil {
		return "", core.NewAPIError(core.ErrorTypeInvalidState, "", core.ErrNoCredentials).
			WithCode(core.ErrCodeNoCredentials).
			WithCommand(core.CmdLogin)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connectLocked(ctx); err != nil {
		return "", withCommand(err, core.CmdLogin)
	}

	id, err := callLocked[string](ctx, s, core.CmdLogin, core.NewLoginRequest(creds))
	if err != nil {
		return "", err
	}

	s.state = StateLoggedIn
	s.streamSessionID = id
	s.logger.Info().Str("user_id", creds.UserID).Msg("logged in")
	return id, nil
}

// Logout ends the authenticated session. The transport stays open.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logoutLocked(ctx)
}

func (s *Session) logoutLocked(ctx context.Context) error {
	if _, err := callLocked[struct{}](ctx, s, core.CmdLogout, nil); err != nil {
		return err
	}
	s.state = StateLoggedOut
	s.streamSessionID = ""
	s.logger.Info().Msg("logged out")
	return nil
}

// Close logs out when configured to, then closes the transport.
// It is safe to call more than once; the transport is closed exactly once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport == nil {
		s.state = StateDisconnected
		return nil
	}

	var logoutErr error
	if s.state == StateLoggedIn && s.config.AutomaticLogout && s.broken == nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.RequestTimeout)
		logoutErr = s.logoutLocked(ctx)
		cancel()
		if logoutErr != nil {
			s.logger.Warn().Err(logoutErr).Msg("automatic logout failed")
		}
	}

	closeErr := s.transport.Close()
	if closeErr != nil {
		closeErr = core.NewAPIError(core.ErrorTypeNetwork, "close transport", closeErr).WithCode(core.ErrCodeNetwork)
	}

	s.transport = nil
	s.state = StateDisconnected
	s.streamSessionID = ""
	s.broken = nil
	s.logger.Info().Msg("session closed")

	return errors.Join(logoutErr, closeErr)
}

// roundTrip sends one command and reads its reply. The caller holds s.mu.
// Any failure that may leave a reply in flight breaks the session.
func (s *Session) roundTrip(ctx context.Context, cmd core.Command, args any) (*xapi.Response, error) {
	if s.broken != nil {
		return nil, s.brokenError(cmd)
	}
	if s.transport == nil {
		return nil, core.NewAPIError(core.ErrorTypeInvalidState, "", core.ErrNotConnected).
			WithCode(core.ErrCodeNotConnected).
			WithCommand(cmd)
	}

	s.seq++
	tag := s.tag + ":" + strconv.FormatUint(s.seq, 10)

	data, err := xapi.EncodeCommand(cmd, tag, args, s.config.PrettyPrint)
	if err != nil {
		return nil, err
	}

	if err := s.rateLimiter.Wait(ctx); err != nil {
		return nil, core.NewAPIError(core.ErrorTypeTimeout, "rate limit wait", err).
			WithCode(core.ErrCodeTimeout).
			WithCommand(cmd)
	}

	s.lastUsed = time.Now()
	start := time.Now()
	s.logger.Debug().Str("command", cmd.String()).Str("custom_tag", tag).Msg("sending command")

	if err := s.transport.Send(ctx, data); err != nil {
		return nil, s.fail(core.NewAPIError(core.ErrorTypeNetwork, "send", err).WithCode(core.ErrCodeNetwork), cmd)
	}

	rctx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	reply, err := s.transport.Recv(rctx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, s.fail(core.NewAPIError(core.ErrorTypeTimeout, "no response", err).WithCode(core.ErrCodeTimeout), cmd)
		}
		return nil, s.fail(core.NewAPIError(core.ErrorTypeNetwork, "receive", err).WithCode(core.ErrCodeNetwork), cmd)
	}

	resp, err := xapi.ReadResponse(reply, tag)
	if err != nil {
		if core.IsProtocolError(err) {
			return nil, s.fail(err, cmd)
		}
		s.logger.Debug().Str("command", cmd.String()).Err(err).Msg("command rejected")
		return nil, withCommand(err, cmd)
	}

	s.logger.Debug().
		Str("command", cmd.String()).
		Dur("elapsed", time.Since(start)).
		Msg("command completed")
	return resp, nil
}

// fail marks the session broken and drops it to disconnected. The transport is
// kept so Close can release it. Later commands fail until Close and reconnect.
func (s *Session) fail(err error, cmd core.Command) error {
	err = withCommand(err, cmd)
	s.broken = err
	s.state = StateDisconnected
	s.streamSessionID = ""
	s.logger.Error().Err(err).Msg("session broken")
	return err
}

func (s *Session) brokenError(cmd core.Command) error {
	return core.NewAPIError(core.ErrorTypeNetwork, s.broken.Error(), core.ErrSessionBroken).
		WithCode(core.ErrCodeSessionBroken).
		WithCommand(cmd)
}

func withCommand(err error, cmd core.Command) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) && apiErr.Command == "" {
		apiErr.WithCommand(cmd)
	}
	return err
}

// WithSession logs in, runs fn and closes the session on every exit path,
// including a panic in fn. Close performs the automatic logout when configured.
func WithSession(ctx context.Context, config *core.Config, fn func(context.Context, *Session) error, opts ...Option) (err error) {
	s, err := New(config, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if _, err := s.Login(ctx); err != nil {
		return err
	}
	return fn(ctx, s)
}

// State returns the current lifecycle state of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StreamSessionID returns the id issued by the last login, or "" when not logged in.
func (s *Session) StreamSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamSessionID
}

// Broken reports whether the session needs Close and reconnect before further use.
func (s *Session) Broken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broken != nil
}

// Config returns the configuration used to create the session.
func (s *Session) Config() *core.Config {
	return s.config
}

// CreatedAt returns the timestamp when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// LastUsed returns the timestamp of the last command sent.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// RateLimitMetrics returns request pacing statistics.
func (s *Session) RateLimitMetrics() ratelimit.MetricsSnapshot {
	return s.rateLimiter.Metrics()
}
