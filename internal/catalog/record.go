package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bento-order/internal/models"
)

// record accepts both catalog shapes: nested prices and the flat price_* columns
type record struct {
	ID          flexibleID `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ImageURL    string     `json:"imageUrl"`
	Prices      *struct {
		Regular  *flexiblePrice `json:"regular"`
		Large    *flexiblePrice `json:"large"`
		Small    *flexiblePrice `json:"small"`
		SideOnly *flexiblePrice `json:"sideOnly"`
	} `json:"prices"`
	PriceRegular  *flexiblePrice `json:"price_regular"`
	PriceLarge    *flexiblePrice `json:"price_large"`
	PriceSmall    *flexiblePrice `json:"price_small"`
	PriceSideOnly *flexiblePrice `json:"price_side_only"`
}

func (r record) toMenuItem() models.MenuItem {
	prices := make(map[models.OptionKey]int64)
	set := func(key models.OptionKey, p *flexiblePrice) {
		if p != nil {
			prices[key] = int64(*p)
		}
	}

	set(models.OptionRegular, r.PriceRegular)
	set(models.OptionLarge, r.PriceLarge)
	set(models.OptionSmall, r.PriceSmall)
	set(models.OptionSideOnly, r.PriceSideOnly)
	if r.Prices != nil {
		set(models.OptionRegular, r.Prices.Regular)
		set(models.OptionLarge, r.Prices.Large)
		set(models.OptionSmall, r.Prices.Small)
		set(models.OptionSideOnly, r.Prices.SideOnly)
	}

	return models.MenuItem{
		ID:          string(r.ID),
		Name:        strings.TrimSpace(r.Name),
		Description: r.Description,
		ImageURL:    strings.TrimSpace(r.ImageURL),
		Prices:      prices,
	}
}

// flexibleID decodes ids sent either as strings or numbers
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = flexibleID(n.String())
	return nil
}

// flexiblePrice decodes integer prices sent as numbers, numeric strings or blanks
type flexiblePrice int64

func (p *flexiblePrice) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*p = 0
			return nil
		}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("price must be an integer: %q", raw)
	}
	*p = flexiblePrice(v)
	return nil
}
