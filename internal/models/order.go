package models

import (
	"fmt"
	"strings"
	"time"
)

// Order status values carried in the sink response envelope
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Identity is the customer resolved from the identity provider
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// OrderLine is one priced line of a submitted order
type OrderLine struct {
	ItemID     string    `json:"itemId"`
	Name       string    `json:"name"`
	Option     OptionKey `json:"option"`
	OptionName string    `json:"optionName"`
	Quantity   int       `json:"quantity"`
	UnitPrice  int64     `json:"unitPrice"`
	LineTotal  int64     `json:"lineTotal"`
}

// Summary renders the line as "name (optionName) x quantity"
func (l OrderLine) Summary() string {
	return fmt.Sprintf("%s (%s) x %d", l.Name, l.OptionName, l.Quantity)
}

// Order is an immutable record of one submission attempt
type Order struct {
	OrderID     string
	UserID      string
	DisplayName string
	Lines       []OrderLine
	TotalPrice  int64
	CreatedAt   time.Time
}

// LineSummaries returns the human readable summary of every line
func (o *Order) LineSummaries() []string {
	summaries := make([]string, len(o.Lines))
	for i, line := range o.Lines {
		summaries[i] = line.Summary()
	}
	return summaries
}

// OrderDetails joins the line summaries with newlines
func (o *Order) OrderDetails() string {
	return strings.Join(o.LineSummaries(), "\n")
}

// Request converts the order into the canonical sink envelope
func (o *Order) Request() *OrderRequest {
	lines := make([]OrderLine, len(o.Lines))
	copy(lines, o.Lines)
	return &OrderRequest{
		OrderID:      o.OrderID,
		UserID:       o.UserID,
		DisplayName:  o.DisplayName,
		OrderDetails: o.OrderDetails(),
		Lines:        lines,
		TotalPrice:   o.TotalPrice,
		CreatedAt:    o.CreatedAt.UTC(),
	}
}

// OrderRequest is the JSON body posted to the order sink
type OrderRequest struct {
	OrderID      string      `json:"orderId"`
	UserID       string      `json:"userId"`
	DisplayName  string      `json:"displayName"`
	OrderDetails string      `json:"orderDetails"`
	Lines        []OrderLine `json:"lines"`
	TotalPrice   int64       `json:"totalPrice"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// OrderResult is the response envelope returned by the order sink
type OrderResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	OrderID   string `json:"orderId,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// Succeeded reports whether the sink accepted the order
func (r *OrderResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// RecordedOrder is an order as stored by the sink
type RecordedOrder struct {
	OrderID      string      `json:"orderId"`
	UserID       string      `json:"userId"`
	DisplayName  string      `json:"displayName"`
	OrderDetails string      `json:"orderDetails"`
	Lines        []OrderLine `json:"lines"`
	TotalPrice   int64       `json:"totalPrice"`
	CreatedAt    time.Time   `json:"createdAt"`
	ReceivedAt   time.Time   `json:"receivedAt"`
}
