package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"bento-order/internal/cart"
	"bento-order/internal/logger"
	"bento-order/internal/models"
)

const (
	defaultSinkTimeout   = 15 * time.Second
	defaultNotifyTimeout = 5 * time.Second
)

// State is the position of the submitter in its per-attempt state machine
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Ledger is the part of the cart the submitter needs.
type Ledger interface {
	Snapshot() cart.Snapshot
	Clear()
}

// Option customises a Submitter.
type Option func(*Submitter)

// WithSinkTimeout bounds the order sink call; a timeout is a transport failure.
func WithSinkTimeout(timeout time.Duration) Option {
	return func(s *Submitter) {
		if timeout > 0 {
			s.sinkTimeout = timeout
		}
	}
}

// WithNotifier sets the best-effort confirmation channel.
func WithNotifier(n Notifier) Option {
	return func(s *Submitter) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithNotifyTimeout bounds each confirmation attempt.
func WithNotifyTimeout(timeout time.Duration) Option {
	return func(s *Submitter) {
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

// WithClock overrides the time source used for createdAt and order ids.
func WithClock(now func() time.Time) Option {
	return func(s *Submitter) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOrderIDGenerator overrides order id generation.
func WithOrderIDGenerator(gen func(time.Time) string) Option {
	return func(s *Submitter) {
		if gen != nil {
			s.newOrderID = gen
		}
	}
}

// Submitter turns a cart snapshot and an identity into one order sink call per user action.
type Submitter struct {
	ledger        Ledger
	identity      IdentityProvider
	sink          Sink
	notifier      Notifier
	logger        *logger.Logger
	sinkTimeout   time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
	newOrderID    func(time.Time) string

	mu        sync.Mutex
	state     State
	lastState State

	pending sync.WaitGroup
}

// NewSubmitter wires a submitter to its collaborators.
func NewSubmitter(ledger Ledger, identity IdentityProvider, sink Sink, log *logger.Logger, opts ...Option) *Submitter {
	if log == nil {
		log = logger.Discard()
	}
	s := &Submitter{
		ledger:        ledger,
		identity:      identity,
		sink:          sink,
		notifier:      NopNotifier{},
		logger:        log,
		sinkTimeout:   defaultSinkTimeout,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
		newOrderID:    NewOrderID,
		state:         StateIdle,
		lastState:     StateIdle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// NewOrderID returns a ULID: a millisecond timestamp followed by a random suffix.
func NewOrderID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// State returns the current state.
func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastOutcome returns the terminal state of the most recent attempt that reached the sink.
func (s *Submitter) LastOutcome() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastState
}

// CanSubmit reports whether the submit control should be enabled.
func (s *Submitter) CanSubmit() bool {
	return s.State() == StateIdle
}

// Wait blocks until in-flight confirmations have finished.
func (s *Submitter) Wait() {
	s.pending.Wait()
}

// Submit runs one submission attempt. The returned order is nil when a guard failed
// before an order was built. On any failure after that the cart is left untouched.
func (s *Submitter) Submit(ctx context.Context) (*models.Order, error) {
	if !s.begin() {
		return nil, ErrSubmissionInProgress
	}
	defer s.transition(StateIdle)

	requestID := logger.GenerateRequestID()

	// The snapshot is captured once; the order is built from it and nothing else.
	snapshot := s.ledger.Snapshot()
	if len(snapshot.Lines) == 0 {
		s.logger.Debug("order_rejected", "Submit on empty cart", requestID, nil)
		return nil, &EmptyCartError{}
	}

	identity, err := s.resolveIdentity(ctx, requestID)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(snapshot, identity)
	fields := map[string]interface{}{
		"order_id":    order.OrderID,
		"user_id":     order.UserID,
		"lines":       len(order.Lines),
		"total_price": order.TotalPrice,
	}

	s.transition(StateSubmitting)
	s.logger.Info("order_submitting", "Submitting order", requestID, fields)

	sinkCtx, cancel := context.WithTimeout(ctx, s.sinkTimeout)
	result, err := s.sink.Submit(sinkCtx, order.Request())
	cancel()

	if err == nil && result == nil {
		err = &ParseError{Err: errors.New("sink returned no result")}
	}
	if err != nil {
		err = classify(err)
		s.fail(requestID, "order_failed", err, fields)
		return order, err
	}

	if !result.Succeeded() {
		err = &RejectedError{Message: result.Message}
		s.fail(requestID, "order_rejected", err, fields)
		return order, err
	}

	s.transition(StateSucceeded)
	s.ledger.Clear()
	fields["duplicate"] = result.Duplicate
	s.logger.Info("order_succeeded", "Order accepted by sink", requestID, fields)

	s.dispatchConfirmation(ctx, order, requestID)
	return order, nil
}

func (s *Submitter) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return false
	}
	s.state = StateValidating
	return true
}

func (s *Submitter) transition(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next == StateSucceeded || next == StateFailed {
		s.lastState = next
	}
	s.state = next
}

func (s *Submitter) fail(requestID, action string, err error, fields map[string]interface{}) {
	s.transition(StateFailed)
	s.logger.Error(action, "Order submission failed, cart kept for retry", requestID, err, fields)
}

func (s *Submitter) resolveIdentity(ctx context.Context, requestID string) (models.Identity, error) {
	if !s.identity.IsAuthenticated(ctx) {
		if err := s.identity.TriggerLogin(ctx); err != nil {
			s.logger.Error("login_trigger_failed", "Failed to start login", requestID, err, nil)
			return models.Identity{}, &IdentityError{Err: err}
		}
		s.logger.Info("login_triggered", "Not authenticated, attempt abandoned for login", requestID, nil)
		return models.Identity{}, &IdentityError{LoginTriggered: true}
	}

	identity, err := s.identity.CurrentIdentity(ctx)
	if err != nil {
		return models.Identity{}, &IdentityError{Err: err}
	}
	if identity.UserID == "" {
		return models.Identity{}, &IdentityError{Err: errors.New("identity has no user id")}
	}
	return identity, nil
}

func (s *Submitter) buildOrder(snapshot cart.Snapshot, identity models.Identity) *models.Order {
	createdAt := s.now().UTC()
	lines := make([]models.OrderLine, len(snapshot.Lines))
	for i, entry := range snapshot.Lines {
		lines[i] = models.OrderLine{
			ItemID:     entry.ItemID,
			Name:       entry.ItemName,
			Option:     entry.Option.Key,
			OptionName: entry.Option.DisplayName,
			Quantity:   entry.Quantity,
			UnitPrice:  entry.Option.UnitPrice,
			LineTotal:  entry.LineTotal(),
		}
	}
	return &models.Order{
		OrderID:     s.newOrderID(createdAt),
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		Lines:       lines,
		TotalPrice:  snapshot.Totals.TotalPrice,
		CreatedAt:   createdAt,
	}
}

func (s *Submitter) dispatchConfirmation(ctx context.Context, order *models.Order, requestID string) {
	if !s.notifier.Available() {
		s.logger.Debug("confirmation_skipped", "Notification channel unavailable", requestID, nil)
		return
	}

	msg := models.NewConfirmationMessage(order)
	notifyCtx := context.WithoutCancel(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("confirmation_failed", "Confirmation panicked", requestID, fmt.Errorf("panic: %v", r), nil)
			}
		}()

		c, cancel := context.WithTimeout(notifyCtx, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(c, msg); err != nil {
			s.logger.Error("confirmation_failed", "Failed to send confirmation, order already accepted", requestID, err, map[string]interface{}{
				"order_id": order.OrderID,
			})
			return
		}
		s.logger.Debug("confirmation_sent", "Confirmation sent", requestID, map[string]interface{}{
			"order_id": order.OrderID,
		})
	}()
}

// classify maps sink errors onto the submission taxonomy.
func classify(err error) error {
	var (
		transportErr *TransportError
		parseErr     *ParseError
		rejectedErr  *RejectedError
	)
	switch {
	case errors.As(err, &transportErr), errors.As(err, &parseErr), errors.As(err, &rejectedErr):
		return err
	default:
		return &TransportError{Err: err}
	}
}
