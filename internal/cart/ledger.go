package cart

import (
	"errors"
	"fmt"

	"bento-order/internal/models"
)

// ErrLineNotFound is returned when a line index or key no longer exists
var ErrLineNotFound = errors.New("cart line not found")

// LineEntry is one distinguishable line in the cart
type LineEntry struct {
	ItemID   string
	ItemName string
	Option   models.OptionChoice
	Quantity int
}

// Key returns the merge key shared by mergeable entries
func (e LineEntry) Key() string {
	return LineKey(e.ItemID, e.Option.Key)
}

// LineTotal returns unit price times quantity
func (e LineEntry) LineTotal() int64 {
	return e.Option.UnitPrice * int64(e.Quantity)
}

// LineKey builds the stable identifier for an (item, option) pair
func LineKey(itemID string, option models.OptionKey) string {
	return fmt.Sprintf("%s/%s", itemID, option)
}

// Totals are derived from the current lines
type Totals struct {
	TotalItems int
	TotalPrice int64
}

// Snapshot is a detached copy of the cart
type Snapshot struct {
	Lines  []LineEntry
	Totals Totals
}

// Ledger holds the cart lines of one session in insertion order.
// It is not safe for concurrent use; a session owns exactly one.
type Ledger struct {
	lines []LineEntry
}

// NewLedger creates an empty cart
func NewLedger() *Ledger {
	return &Ledger{}
}

// AddLine adds quantity of the item's option, merging with an existing line for the same pair
func (l *Ledger) AddLine(item models.MenuItem, optionKey models.OptionKey, quantity int) error {
	if err := models.ValidateQuantity(quantity); err != nil {
		return err
	}

	option, ok := item.Option(optionKey)
	if !ok {
		return &models.ValidationError{
			Field:   "option",
			Message: fmt.Sprintf("option not orderable: %s", optionKey),
		}
	}

	key := LineKey(item.ID, option.Key)
	if i := l.IndexOf(key); i >= 0 {
		merged := l.lines[i].Quantity + quantity
		if merged > models.MaxLineQuantity {
			return &models.ValidationError{
				Field:   "quantity",
				Message: fmt.Sprintf("line %s would hold %d, the limit is %d", key, merged, models.MaxLineQuantity),
			}
		}
		l.lines[i].Quantity = merged
		return nil
	}

	if len(l.lines) >= models.MaxOrderLines {
		return &models.ValidationError{
			Field:   "lines",
			Message: fmt.Sprintf("a maximum of %d lines is allowed", models.MaxOrderLines),
		}
	}

	l.lines = append(l.lines, LineEntry{
		ItemID:   item.ID,
		ItemName: item.Name,
		Option:   option,
		Quantity: quantity,
	})
	return nil
}

// AdjustQuantity changes the quantity of the line at index; lines reaching zero are removed.
// A change past MaxLineQuantity is rejected and leaves the line as it was.
func (l *Ledger) AdjustQuantity(index, delta int) error {
	if index < 0 || index >= len(l.lines) {
		return fmt.Errorf("adjust line %d: %w", index, ErrLineNotFound)
	}

	quantity := l.lines[index].Quantity + delta
	if quantity > models.MaxLineQuantity {
		return &models.ValidationError{
			Field:   "quantity",
			Message: fmt.Sprintf("line %s would hold %d, the limit is %d", l.lines[index].Key(), quantity, models.MaxLineQuantity),
		}
	}
	if quantity <= 0 {
		l.RemoveLine(index)
		return nil
	}
	l.lines[index].Quantity = quantity
	return nil
}

// AdjustQuantityByKey is AdjustQuantity addressed by line key
func (l *Ledger) AdjustQuantityByKey(key string, delta int) error {
	i := l.IndexOf(key)
	if i < 0 {
		return fmt.Errorf("adjust line %q: %w", key, ErrLineNotFound)
	}
	return l.AdjustQuantity(i, delta)
}

// RemoveLine removes the line at index; stale indices are ignored
func (l *Ledger) RemoveLine(index int) {
	if index < 0 || index >= len(l.lines) {
		return
	}
	l.lines = append(l.lines[:index], l.lines[index+1:]...)
}

// RemoveLineByKey removes the line with key if it is still present
func (l *Ledger) RemoveLineByKey(key string) {
	l.RemoveLine(l.IndexOf(key))
}

// IndexOf returns the current index of key, or -1
func (l *Ledger) IndexOf(key string) int {
	for i, line := range l.lines {
		if line.Key() == key {
			return i
		}
	}
	return -1
}

// Totals sums quantities and line totals
func (l *Ledger) Totals() Totals {
	return totalsOf(l.lines)
}

// Lines returns a copy of the lines in insertion order
func (l *Ledger) Lines() []LineEntry {
	lines := make([]LineEntry, len(l.lines))
	copy(lines, l.lines)
	return lines
}

// Snapshot captures lines and totals together
func (l *Ledger) Snapshot() Snapshot {
	lines := l.Lines()
	return Snapshot{Lines: lines, Totals: totalsOf(lines)}
}

// Len returns the number of lines
func (l *Ledger) Len() int {
	return len(l.lines)
}

// IsEmpty reports whether the cart has no lines
func (l *Ledger) IsEmpty() bool {
	return len(l.lines) == 0
}

// Clear empties the cart
func (l *Ledger) Clear() {
	l.lines = nil
}

func totalsOf(lines []LineEntry) Totals {
	var t Totals
	for _, line := range lines {
		t.TotalItems += line.Quantity
		t.TotalPrice += line.LineTotal()
	}
	return t
}
