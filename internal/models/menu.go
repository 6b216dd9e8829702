package models

// PlaceholderImageURL is shown for menu items without an image
const PlaceholderImageURL = "https://placehold.co/300x240/eee/ccc?text=No+Image"

// OptionKey identifies a priced serving option of a menu item
type OptionKey string

const (
	OptionRegular  OptionKey = "regular"
	OptionLarge    OptionKey = "large"
	OptionSmall    OptionKey = "small"
	OptionSideOnly OptionKey = "sideOnly"
)

// OptionKeys is the fixed enumeration order used for display and default selection
var OptionKeys = []OptionKey{OptionRegular, OptionLarge, OptionSmall, OptionSideOnly}

// DisplayName returns the label shown to customers for the option
func (k OptionKey) DisplayName() string {
	switch k {
	case OptionRegular:
		return "普通盛り"
	case OptionLarge:
		return "大盛り"
	case OptionSmall:
		return "小盛り"
	case OptionSideOnly:
		return "おかずのみ"
	default:
		return string(k)
	}
}

// Valid reports whether k belongs to the closed option set
func (k OptionKey) Valid() bool {
	for _, known := range OptionKeys {
		if k == known {
			return true
		}
	}
	return false
}

// MenuItem is a purchasable item loaded from the catalog source
type MenuItem struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	ImageURL    string              `json:"imageUrl,omitempty"`
	Prices      map[OptionKey]int64 `json:"prices"`
}

// OptionChoice is one option selected from an item's price table
type OptionChoice struct {
	Key         OptionKey `json:"key"`
	DisplayName string    `json:"name"`
	UnitPrice   int64     `json:"price"`
}

// ImageOrPlaceholder returns the item image, falling back to the placeholder
func (m MenuItem) ImageOrPlaceholder() string {
	if m.ImageURL == "" {
		return PlaceholderImageURL
	}
	return m.ImageURL
}

// Option returns the choice for key when the item prices it above zero
func (m MenuItem) Option(key OptionKey) (OptionChoice, bool) {
	price, ok := m.Prices[key]
	if !ok || price <= 0 || !key.Valid() {
		return OptionChoice{}, false
	}
	return OptionChoice{Key: key, DisplayName: key.DisplayName(), UnitPrice: price}, true
}

// Options returns every orderable option in enumeration order
func (m MenuItem) Options() []OptionChoice {
	var options []OptionChoice
	for _, key := range OptionKeys {
		if opt, ok := m.Option(key); ok {
			options = append(options, opt)
		}
	}
	return options
}

// Orderable reports whether at least one option has a positive price
func (m MenuItem) Orderable() bool {
	_, ok := DefaultOption(m)
	return ok
}

// DefaultOption selects the first option in enumeration order with a positive price
func DefaultOption(item MenuItem) (OptionChoice, bool) {
	for _, key := range OptionKeys {
		if opt, ok := item.Option(key); ok {
			return opt, true
		}
	}
	return OptionChoice{}, false
}
