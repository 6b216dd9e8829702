package models

import (
	"fmt"
	"time"
)

// ConfirmationMessage is the best-effort notification sent after a successful order
type ConfirmationMessage struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Text        string    `json:"text"`
	Receipt     Receipt   `json:"receipt"`
	Timestamp   time.Time `json:"timestamp"`
}

// Receipt is the structured rendition of a confirmation
type Receipt struct {
	AltText  string        `json:"alt_text"`
	Header   string        `json:"header"`
	Title    string        `json:"title"`
	Lines    []ReceiptLine `json:"lines"`
	TotalTag string        `json:"total_label"`
	Total    int64         `json:"total"`
}

// ReceiptLine is one row of a receipt
type ReceiptLine struct {
	Label    string `json:"label"`
	Quantity int    `json:"quantity"`
}

// NewConfirmationMessage builds the text and receipt forms of the confirmation for order
func NewConfirmationMessage(order *Order) *ConfirmationMessage {
	lines := make([]ReceiptLine, len(order.Lines))
	for i, line := range order.Lines {
		lines[i] = ReceiptLine{
			Label:    fmt.Sprintf("%s (%s)", line.Name, line.OptionName),
			Quantity: line.Quantity,
		}
	}

	return &ConfirmationMessage{
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		DisplayName: order.DisplayName,
		Text:        ConfirmationText(order.OrderDetails(), order.TotalPrice),
		Receipt: Receipt{
			AltText:  "ご注文内容の確認",
			Header:   "ご注文ありがとうございます！",
			Title:    "ご注文内容が確定しました",
			Lines:    lines,
			TotalTag: "合計金額",
			Total:    order.TotalPrice,
		},
		Timestamp: time.Now().UTC(),
	}
}

// ConfirmationText renders the plain text confirmation
func ConfirmationText(orderDetails string, totalPrice int64) string {
	return fmt.Sprintf("ご注文ありがとうございます。\n\n【注文内容】\n%s\n\n合計金額: %d円", orderDetails, totalPrice)
}

// FormatReceipt renders a receipt for console output
func FormatReceipt(r Receipt) string {
	out := r.Header + "\n" + r.Title + "\n"
	for _, line := range r.Lines {
		out += fmt.Sprintf("  %s  x %d\n", line.Label, line.Quantity)
	}
	out += fmt.Sprintf("%s: ¥%d", r.TotalTag, r.Total)
	return out
}
