package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validRequest() *OrderRequest {
	return &OrderRequest{
		OrderID:     "01J9ZQ3V5X0000000000000000",
		UserID:      "U1234",
		DisplayName: "Taro",
		Lines: []OrderLine{
			{ItemID: "A", Name: "唐揚げ弁当", Option: OptionRegular, OptionName: "普通盛り", Quantity: 1, UnitPrice: 500, LineTotal: 500},
			{ItemID: "B", Name: "のり弁", Option: OptionLarge, OptionName: "大盛り", Quantity: 2, UnitPrice: 700, LineTotal: 1400},
		},
		TotalPrice: 1900,
		CreatedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestValidateOrderRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OrderRequest)
		wantErr bool
	}{
		{
			name:    "valid request",
			mutate:  func(*OrderRequest) {},
			wantErr: false,
		},
		{
			name:    "missing order id",
			mutate:  func(r *OrderRequest) { r.OrderID = "" },
			wantErr: true,
		},
		{
			name:    "order id too long",
			mutate:  func(r *OrderRequest) { r.OrderID = strings.Repeat("x", MaxOrderIDLength+1) },
			wantErr: true,
		},
		{
			name:    "missing user id",
			mutate:  func(r *OrderRequest) { r.UserID = " " },
			wantErr: true,
		},
		{
			name:    "user id at limit",
			mutate:  func(r *OrderRequest) { r.UserID = strings.Repeat("U", MaxUserIDLength) },
			wantErr: false,
		},
		{
			name:    "user id too long",
			mutate:  func(r *OrderRequest) { r.UserID = strings.Repeat("U", MaxUserIDLength+1) },
			wantErr: true,
		},
		{
			name:    "quantity at limit",
			mutate:  func(r *OrderRequest) { r.Lines[0].Quantity = MaxLineQuantity; r.Lines[0].LineTotal = 500 * MaxLineQuantity; r.TotalPrice = 500*MaxLineQuantity + 1400 },
			wantErr: false,
		},
		{
			name:    "quantity over limit",
			mutate:  func(r *OrderRequest) { r.Lines[0].Quantity = MaxLineQuantity + 1; r.Lines[0].LineTotal = 500 * (MaxLineQuantity + 1); r.TotalPrice = 500*(MaxLineQuantity+1) + 1400 },
			wantErr: true,
		},
		{
			name:    "no lines",
			mutate:  func(r *OrderRequest) { r.Lines = nil; r.TotalPrice = 0 },
			wantErr: true,
		},
		{
			name:    "unknown option",
			mutate:  func(r *OrderRequest) { r.Lines[0].Option = "jumbo" },
			wantErr: true,
		},
		{
			name:    "zero quantity",
			mutate:  func(r *OrderRequest) { r.Lines[0].Quantity = 0; r.Lines[0].LineTotal = 0; r.TotalPrice = 1400 },
			wantErr: true,
		},
		{
			name:    "line total mismatch",
			mutate:  func(r *OrderRequest) { r.Lines[1].LineTotal = 700; r.TotalPrice = 1200 },
			wantErr: true,
		},
		{
			name:    "order total mismatch",
			mutate:  func(r *OrderRequest) { r.TotalPrice = 2000 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := ValidateOrderRequest(req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOrderRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			var vErr *ValidationError
			if err != nil && !errors.As(err, &vErr) {
				t.Errorf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateMenuItem(t *testing.T) {
	tests := []struct {
		name    string
		item    MenuItem
		wantErr bool
	}{
		{
			name:    "valid item",
			item:    MenuItem{ID: "1", Name: "唐揚げ弁当", Prices: map[OptionKey]int64{OptionRegular: 500}},
			wantErr: false,
		},
		{
			name:    "missing name",
			item:    MenuItem{ID: "1", Prices: map[OptionKey]int64{OptionRegular: 500}},
			wantErr: true,
		},
		{
			name:    "all prices zero",
			item:    MenuItem{ID: "1", Name: "x", Prices: map[OptionKey]int64{OptionRegular: 0, OptionLarge: 0}},
			wantErr: true,
		},
		{
			name:    "negative price",
			item:    MenuItem{ID: "1", Name: "x", Prices: map[OptionKey]int64{OptionRegular: 500, OptionLarge: -1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMenuItem(tt.item)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMenuItem() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultOption(t *testing.T) {
	tests := []struct {
		name   string
		prices map[OptionKey]int64
		want   OptionKey
		wantOK bool
	}{
		{"regular first", map[OptionKey]int64{OptionSideOnly: 300, OptionRegular: 500}, OptionRegular, true},
		{"skips zero regular", map[OptionKey]int64{OptionRegular: 0, OptionSmall: 450, OptionLarge: 600}, OptionLarge, true},
		{"side only", map[OptionKey]int64{OptionSideOnly: 300}, OptionSideOnly, true},
		{"nothing orderable", map[OptionKey]int64{OptionRegular: 0}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DefaultOption(MenuItem{ID: "1", Name: "x", Prices: tt.prices})
			if ok != tt.wantOK || got.Key != tt.want {
				t.Errorf("DefaultOption() = (%v, %v), want (%v, %v)", got.Key, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestOrderDetails(t *testing.T) {
	req := validRequest()
	order := &Order{OrderID: req.OrderID, Lines: req.Lines, TotalPrice: req.TotalPrice}
	want := "唐揚げ弁当 (普通盛り) x 1\nのり弁 (大盛り) x 2"
	if got := order.OrderDetails(); got != want {
		t.Errorf("OrderDetails() = %q, want %q", got, want)
	}
	if got := order.Request().OrderDetails; got != want {
		t.Errorf("Request().OrderDetails = %q, want %q", got, want)
	}
}
