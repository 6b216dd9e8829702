package cart

import (
	"fmt"

	"bento-order/internal/models"
)

// Selection is the in-progress configuration of a single item before it is added.
// Its quantity stepper clamps to 1..MaxLineQuantity, unlike cart lines which are removed at 0.
type Selection struct {
	item     models.MenuItem
	option   models.OptionChoice
	quantity int
}

// NewSelection opens item with its default option and quantity 1
func NewSelection(item models.MenuItem) (*Selection, error) {
	option, ok := models.DefaultOption(item)
	if !ok {
		return nil, &models.ValidationError{
			Field:   "option",
			Message: fmt.Sprintf("item %s has no orderable option", item.ID),
		}
	}
	return &Selection{item: item, option: option, quantity: 1}, nil
}

// Item returns the item being configured
func (s *Selection) Item() models.MenuItem {
	return s.item
}

// Option returns the selected option
func (s *Selection) Option() models.OptionChoice {
	return s.option
}

// Quantity returns the selected quantity
func (s *Selection) Quantity() int {
	return s.quantity
}

// Options lists the choices the item offers
func (s *Selection) Options() []models.OptionChoice {
	return s.item.Options()
}

// SelectOption switches to key if the item prices it
func (s *Selection) SelectOption(key models.OptionKey) error {
	option, ok := s.item.Option(key)
	if !ok {
		return &models.ValidationError{
			Field:   "option",
			Message: fmt.Sprintf("option not orderable: %s", key),
		}
	}
	s.option = option
	return nil
}

// Step changes the quantity by delta, clamped to 1..MaxLineQuantity
func (s *Selection) Step(delta int) int {
	s.quantity += delta
	if s.quantity < 1 {
		s.quantity = 1
	}
	if s.quantity > models.MaxLineQuantity {
		s.quantity = models.MaxLineQuantity
	}
	return s.quantity
}

// Subtotal returns the price of the selection
func (s *Selection) Subtotal() int64 {
	return s.option.UnitPrice * int64(s.quantity)
}

// AddTo adds the selection to ledger
func (s *Selection) AddTo(ledger *Ledger) error {
	return ledger.AddLine(s.item, s.option.Key, s.quantity)
}
