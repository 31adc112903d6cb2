package ordermanager

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"xtb/pkg/core"
)

// Trader submits transactions and reports their status. *session.Session implements it.
type Trader interface {
	TradeTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	TransactionStatus(ctx context.Context, order int64) (*core.TransactionStatus, error)
}

// UpdateCallback receives a copy of a tracked transaction whenever its status changes.
type UpdateCallback func(Tracked)

// Tracked is a submitted transaction and its last known status.
type Tracked struct {
	Order       int64                  `json:"order"`
	Transaction core.Transaction       `json:"transaction"`
	Status      core.TransactionStatus `json:"status"`
	SubmittedAt time.Time              `json:"submitted_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ManagerConfig holds configuration options for the order manager.
type ManagerConfig struct {
	// PollInterval is the spacing between status checks in Wait. Defaults to 500ms.
	PollInterval time.Duration `json:"poll_interval"`
	// MaxOrders bounds how many transactions are tracked. Defaults to 10000.
	MaxOrders int `json:"max_orders"`
	// EnableValidation checks transactions before submission.
	EnableValidation bool `json:"enable_validation"`
}

// Manager submits transactions through a Trader and follows them until the
// server reports a terminal status.
type Manager struct {
	trader Trader
	config ManagerConfig
	logger zerolog.Logger

	mu     sync.Mutex
	orders map[int64]*Tracked

	callbacksMu sync.RWMutex
	callbacks   []UpdateCallback
}

// NewManager creates a new order manager for the given trader.
func NewManager(trader Trader, config ManagerConfig) *Manager {
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.MaxOrders <= 0 {
		config.MaxOrders = 10000
	}

	return &Manager{
		trader: trader,
		config: config,
		logger: zerolog.Nop(),
		orders: make(map[int64]*Tracked),
	}
}

// WithLogger sets the logger and returns the manager.
func (m *Manager) WithLogger(logger zerolog.Logger) *Manager {
	m.logger = logger.With().Str("component", "ordermanager").Logger()
	return m
}

// Submit sends tx and starts tracking it as pending.
func (m *Manager) Submit(ctx context.Context, tx core.Transaction) (Tracked, error) {
	if m.config.EnableValidation {
		if err := validateTransaction(tx); err != nil {
			return Tracked{}, fmt.Errorf("transaction validation: %w", err)
		}
	}

	m.mu.Lock()
	full := len(m.orders) >= m.config.MaxOrders
	m.mu.Unlock()
	if full {
		return Tracked{}, fmt.Errorf("order limit reached: %d", m.config.MaxOrders)
	}

	order, err := m.trader.TradeTransaction(ctx, tx)
	if err != nil {
		return Tracked{}, fmt.Errorf("submit transaction: %w", err)
	}

	now := time.Now()
	tracked := &Tracked{
		Order:       order,
		Transaction: tx,
		Status: core.TransactionStatus{
			Order:         order,
			CustomComment: tx.CustomComment,
			RequestStatus: core.RequestPending,
		},
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	m.orders[order] = tracked
	snapshot := *tracked
	m.mu.Unlock()

	m.logger.Info().
		Int64("order", order).
		Str("symbol", tx.Symbol).
		Stringer("cmd", tx.Cmd).
		Stringer("type", tx.Type).
		Msg("transaction submitted")
	m.notifyCallbacks(snapshot)
	return snapshot, nil
}

// Sync fetches the current status of a tracked transaction.
func (m *Manager) Sync(ctx context.Context, order int64) (Tracked, error) {
	if _, ok := m.Get(order); !ok {
		return Tracked{}, fmt.Errorf("order not found: %d", order)
	}

	status, err := m.trader.TransactionStatus(ctx, order)
	if err != nil {
		return Tracked{}, fmt.Errorf("sync order %d: %w", order, err)
	}

	m.mu.Lock()
	tracked := m.orders[order]
	from := tracked.Status.RequestStatus
	if !isValidTransition(from, status.RequestStatus) {
		m.mu.Unlock()
		return Tracked{}, fmt.Errorf("invalid status transition from server: %s -> %s", from, status.RequestStatus)
	}
	tracked.Status = *status
	tracked.UpdatedAt = time.Now()
	snapshot := *tracked
	m.mu.Unlock()

	if from != status.RequestStatus {
		m.logger.Info().
			Int64("order", order).
			Stringer("status", status.RequestStatus).
			Str("message", status.Message).
			Msg("transaction status changed")
		m.notifyCallbacks(snapshot)
	}
	return snapshot, nil
}

// Wait polls the status of order until it is terminal or ctx is done.
func (m *Manager) Wait(ctx context.Context, order int64) (Tracked, error) {
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		tracked, err := m.Sync(ctx, order)
		if err != nil {
			return Tracked{}, err
		}
		if tracked.Status.RequestStatus.IsTerminal() {
			return tracked, nil
		}

		select {
		case <-ctx.Done():
			return tracked, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Get returns a copy of the tracked transaction.
func (m *Manager) Get(order int64) (Tracked, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tracked, ok := m.orders[order]
	if !ok {
		return Tracked{}, false
	}
	return *tracked, true
}

// Pending returns the transactions still awaiting a terminal status, oldest first.
func (m *Manager) Pending() []Tracked {
	m.mu.Lock()
	var result []Tracked
	for _, tracked := range m.orders {
		if !tracked.Status.RequestStatus.IsTerminal() {
			result = append(result, *tracked)
		}
	}
	m.mu.Unlock()

	slices.SortFunc(result, func(a, b Tracked) int {
		return a.SubmittedAt.Compare(b.SubmittedAt)
	})
	return result
}

// Forget stops tracking a transaction.
func (m *Manager) Forget(order int64) {
	m.mu.Lock()
	delete(m.orders, order)
	m.mu.Unlock()
}

// OnUpdate registers a callback for status changes.
func (m *Manager) OnUpdate(callback UpdateCallback) {
	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

func (m *Manager) notifyCallbacks(tracked Tracked) {
	m.callbacksMu.RLock()
	callbacks := slices.Clone(m.callbacks)
	m.callbacksMu.RUnlock()

	for _, callback := range callbacks {
		callback(tracked)
	}
}

func isValidTransition(from, to core.RequestStatus) bool {
	if from == to {
		return true
	}

	validTransitions := map[core.RequestStatus][]core.RequestStatus{
		core.RequestPending: {
			core.RequestAccepted,
			core.RequestRejected,
			core.RequestError,
		},
	}

	return slices.Contains(validTransitions[from], to)
}
