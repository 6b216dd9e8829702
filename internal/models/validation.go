package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Order limits enforced by both the cart and the sink
const (
	MaxOrderLines    = 50
	MaxLineQuantity  = 99
	MaxDisplayName   = 100
	MaxItemName      = 100
	MaxOrderIDLength = 64
	MaxUserIDLength  = 128
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateQuantity rejects quantities outside 1..MaxLineQuantity
func ValidateQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return &ValidationError{
			Field:   "quantity",
			Message: fmt.Sprintf("quantity must be between 1 and %d", MaxLineQuantity),
		}
	}
	return nil
}

// ValidateMenuItem checks the shape of a catalog item
func ValidateMenuItem(item MenuItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return &ValidationError{
			Field:   "id",
			Message: "item id is required",
		}
	}

	if strings.TrimSpace(item.Name) == "" {
		return &ValidationError{
			Field:   "name",
			Message: "item name is required",
		}
	}

	for key, price := range item.Prices {
		if !key.Valid() {
			return &ValidationError{
				Field:   fmt.Sprintf("prices.%s", key),
				Message: "unknown option",
			}
		}
		if price < 0 {
			return &ValidationError{
				Field:   fmt.Sprintf("prices.%s", key),
				Message: "price must not be negative",
			}
		}
	}

	if !item.Orderable() {
		return &ValidationError{
			Field:   "prices",
			Message: "at least one option must have a positive price",
		}
	}
	return nil
}

// ValidateOrderRequest checks an order envelope received by the sink
func ValidateOrderRequest(req *OrderRequest) error {
	if err := validateOrderID(req.OrderID); err != nil {
		return err
	}

	if err := validateUserID(req.UserID); err != nil {
		return err
	}

	if utf8.RuneCountInString(req.DisplayName) > MaxDisplayName {
		return &ValidationError{
			Field:   "displayName",
			Message: fmt.Sprintf("display name must not exceed %d characters", MaxDisplayName),
		}
	}

	if err := validateLines(req.Lines); err != nil {
		return err
	}

	var total int64
	for _, line := range req.Lines {
		total += line.LineTotal
	}
	if total != req.TotalPrice {
		return &ValidationError{
			Field:   "totalPrice",
			Message: fmt.Sprintf("total price %d does not match line totals %d", req.TotalPrice, total),
		}
	}
	return nil
}

func validateOrderID(orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return &ValidationError{
			Field:   "orderId",
			Message: "order id is required",
		}
	}

	if len(orderID) > MaxOrderIDLength {
		return &ValidationError{
			Field:   "orderId",
			Message: fmt.Sprintf("order id must not exceed %d characters", MaxOrderIDLength),
		}
	}
	return nil
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &ValidationError{
			Field:   "userId",
			Message: "user id is required",
		}
	}

	if len(userID) > MaxUserIDLength {
		return &ValidationError{
			Field:   "userId",
			Message: fmt.Sprintf("user id must not exceed %d characters", MaxUserIDLength),
		}
	}
	return nil
}

func validateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return &ValidationError{
			Field:   "lines",
			Message: "lines cannot be empty",
		}
	}

	if len(lines) > MaxOrderLines {
		return &ValidationError{
			Field:   "lines",
			Message: fmt.Sprintf("a maximum of %d lines is allowed", MaxOrderLines),
		}
	}

	for i, line := range lines {
		if err := validateLine(line, i); err != nil {
			return err
		}
	}
	return nil
}

func validateLine(line OrderLine, index int) error {
	prefix := fmt.Sprintf("lines[%d]", index)

	if line.Name == "" {
		return &ValidationError{
			Field:   prefix + ".name",
			Message: "item name is required",
		}
	}

	if utf8.RuneCountInString(line.Name) > MaxItemName {
		return &ValidationError{
			Field:   prefix + ".name",
			Message: fmt.Sprintf("item name must not exceed %d characters", MaxItemName),
		}
	}

	if !line.Option.Valid() {
		return &ValidationError{
			Field:   prefix + ".option",
			Message: "unknown option",
		}
	}

	if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
		return &ValidationError{
			Field:   prefix + ".quantity",
			Message: fmt.Sprintf("quantity must be between 1 and %d", MaxLineQuantity),
		}
	}

	if line.UnitPrice <= 0 {
		return &ValidationError{
			Field:   prefix + ".unitPrice",
			Message: "unit price must be positive",
		}
	}

	if line.LineTotal != line.UnitPrice*int64(line.Quantity) {
		return &ValidationError{
			Field:   prefix + ".lineTotal",
			Message: "line total must equal unit price times quantity",
		}
	}
	return nil
}
