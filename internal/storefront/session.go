package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bento-order/internal/cart"
	"bento-order/internal/catalog"
	"bento-order/internal/checkout"
	"bento-order/internal/logger"
	"bento-order/internal/models"
)

var (
	ErrNoSelection = errors.New("no item is open")
	ErrMenuEmpty   = errors.New("menu not loaded")
)

// MenuSource loads the catalog, possibly degraded to a placeholder.
type MenuSource interface {
	LoadWithFallback(ctx context.Context) ([]models.MenuItem, bool, error)
}

// LineView is one rendered cart line. Views are rebuilt on every call so keys never go stale.
type LineView struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	LineTotal int64  `json:"lineTotal"`
}

// CartView is the rendered cart.
type CartView struct {
	Lines       []LineView `json:"lines"`
	TotalItems  int        `json:"totalItems"`
	TotalPrice  int64      `json:"totalPrice"`
	CanCheckout bool       `json:"canCheckout"`
}

// Session is one customer's storefront: the menu, the open item editor, the cart and checkout.
type Session struct {
	menu      MenuSource
	submitter *checkout.Submitter
	logger    *logger.Logger

	mu        sync.Mutex
	ledger    *cart.Ledger
	items     []models.MenuItem
	degraded  bool
	selection *cart.Selection
}

// NewSession builds a session with an empty cart.
func NewSession(menu MenuSource, identity checkout.IdentityProvider, sink checkout.Sink, log *logger.Logger, opts ...checkout.Option) *Session {
	if log == nil {
		log = logger.Discard()
	}
	s := &Session{
		menu:   menu,
		logger: log,
		ledger: cart.NewLedger(),
	}
	s.submitter = checkout.NewSubmitter(sessionLedger{s}, identity, sink, log, opts...)
	return s
}

// LoadMenu fetches the catalog. degraded reports that the placeholder menu is in use.
func (s *Session) LoadMenu(ctx context.Context) (degraded bool, err error) {
	items, degraded, err := s.menu.LoadWithFallback(ctx)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.degraded = degraded
	s.selection = nil
	return degraded, nil
}

// Menu returns the loaded items.
func (s *Session) Menu() []models.MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.MenuItem, len(s.items))
	copy(items, s.items)
	return items
}

// Degraded reports whether the placeholder menu is in use.
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// OpenItem opens the item editor on id with its default option and quantity 1.
func (s *Session) OpenItem(id string) (*cart.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return nil, ErrMenuEmpty
	}
	item, ok := catalog.Find(s.items, id)
	if !ok {
		return nil, &models.ValidationError{Field: "item", Message: fmt.Sprintf("unknown menu item: %s", id)}
	}
	sel, err := cart.NewSelection(item)
	if err != nil {
		return nil, err
	}
	s.selection = sel
	return sel, nil
}

// SelectOption changes the option of the open item.
func (s *Session) SelectOption(key models.OptionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return ErrNoSelection
	}
	return s.selection.SelectOption(key)
}

// StepQuantity moves the editor quantity, clamped at 1.
func (s *Session) StepQuantity(delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return 0, ErrNoSelection
	}
	return s.selection.Step(delta), nil
}

// CloseItem discards the open editor.
func (s *Session) CloseItem() {
	s.mu.Lock()
	s.selection = nil
	s.mu.Unlock()
}

// AddSelection adds the open item to the cart and closes the editor.
func (s *Session) AddSelection() error {
	return s.edit(func() error {
		if s.selection == nil {
			return ErrNoSelection
		}
		if err := s.selection.AddTo(s.ledger); err != nil {
			return err
		}
		s.logger.Debug("cart_line_added", "Added to cart", "", map[string]interface{}{
			"item_id": s.selection.Item().ID,
			"option":  string(s.selection.Option().Key),
			"qty":     s.selection.Quantity(),
		})
		s.selection = nil
		return nil
	})
}

// IncrementLine adds one to the line with key.
func (s *Session) IncrementLine(key string) error {
	return s.adjust(key, 1)
}

// DecrementLine takes one from the line with key, removing it at zero.
func (s *Session) DecrementLine(key string) error {
	return s.adjust(key, -1)
}

// RemoveLine drops the line with key. Unknown keys are ignored.
func (s *Session) RemoveLine(key string) error {
	return s.edit(func() error {
		s.ledger.RemoveLineByKey(key)
		return nil
	})
}

func (s *Session) adjust(key string, delta int) error {
	return s.edit(func() error {
		return s.ledger.AdjustQuantityByKey(key, delta)
	})
}

// edit runs fn under the session lock unless an order is in flight.
// Snapshot and Clear take the same lock, so an accepted edit is always in the next snapshot.
func (s *Session) edit(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.submitter.CanSubmit() {
		return checkout.ErrSubmissionInProgress
	}
	return fn()
}

// View renders the cart.
func (s *Session) View() CartView {
	s.mu.Lock()
	snapshot := s.ledger.Snapshot()
	s.mu.Unlock()

	lines := make([]LineView, len(snapshot.Lines))
	for i, entry := range snapshot.Lines {
		lines[i] = LineView{
			Key:       entry.Key(),
			Label:     fmt.Sprintf("%s (%s)", entry.ItemName, entry.Option.DisplayName),
			Quantity:  entry.Quantity,
			UnitPrice: entry.Option.UnitPrice,
			LineTotal: entry.LineTotal(),
		}
	}
	return CartView{
		Lines:       lines,
		TotalItems:  snapshot.Totals.TotalItems,
		TotalPrice:  snapshot.Totals.TotalPrice,
		CanCheckout: len(lines) > 0 && s.submitter.CanSubmit(),
	}
}

// Checkout submits the cart once.
func (s *Session) Checkout(ctx context.Context) (*models.Order, error) {
	return s.submitter.Submit(ctx)
}

// Submitter exposes the checkout state machine.
func (s *Session) Submitter() *checkout.Submitter {
	return s.submitter
}

// Reset empties the cart and closes the editor.
func (s *Session) Reset() error {
	return s.edit(func() error {
		s.ledger.Clear()
		s.selection = nil
		return nil
	})
}

// sessionLedger gives the submitter locked access to the session cart.
type sessionLedger struct {
	s *Session
}

func (l sessionLedger) Snapshot() cart.Snapshot {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return l.s.ledger.Snapshot()
}

func (l sessionLedger) Clear() {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.ledger.Clear()
}
