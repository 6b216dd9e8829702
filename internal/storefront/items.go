package storefront

import (
	"fmt"
	"strconv"
	"strings"

	"bento-order/internal/models"
)

// LineRequest is one "id:option:qty" entry from the command line
type LineRequest struct {
	ItemID   string
	Option   models.OptionKey
	Quantity int
}

// ParseItems parses a comma separated list of "id[:option[:qty]]" entries.
// A missing option selects the item's default, a missing quantity means 1.
func ParseItems(entries string) ([]LineRequest, error) {
	var lines []LineRequest
	for _, raw := range strings.Split(entries, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		parts := strings.Split(raw, ":")
		if len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
			return nil, &models.ValidationError{Field: "items", Message: fmt.Sprintf("malformed entry %q", raw)}
		}

		line := LineRequest{ItemID: strings.TrimSpace(parts[0]), Quantity: 1}
		if len(parts) > 1 && parts[1] != "" {
			line.Option = models.OptionKey(strings.TrimSpace(parts[1]))
			if !line.Option.Valid() {
				return nil, &models.ValidationError{Field: "items", Message: fmt.Sprintf("unknown option %q", parts[1])}
			}
		}
		if len(parts) > 2 {
			qty, err := strconv.Atoi(strings.TrimSpace(parts[2]))
			if err != nil {
				return nil, &models.ValidationError{Field: "items", Message: fmt.Sprintf("bad quantity %q", parts[2])}
			}
			if err := models.ValidateQuantity(qty); err != nil {
				return nil, err
			}
			line.Quantity = qty
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, &models.ValidationError{Field: "items", Message: "at least one item is required"}
	}
	return lines, nil
}

// Add runs the item editor for each request: open, pick the option, step to the quantity, add.
func (s *Session) Add(lines []LineRequest) error {
	for _, line := range lines {
		if _, err := s.OpenItem(line.ItemID); err != nil {
			return err
		}
		if line.Option != "" {
			if err := s.SelectOption(line.Option); err != nil {
				s.CloseItem()
				return err
			}
		}
		if _, err := s.StepQuantity(line.Quantity - 1); err != nil {
			return err
		}
		if err := s.AddSelection(); err != nil {
			return err
		}
	}
	return nil
}
