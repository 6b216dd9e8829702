package cart

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"bento-order/internal/models"
)

var (
	itemA = models.MenuItem{
		ID:     "A",
		Name:   "唐揚げ弁当",
		Prices: map[models.OptionKey]int64{models.OptionRegular: 500, models.OptionLarge: 600, models.OptionSideOnly: 0},
	}
	itemB = models.MenuItem{
		ID:     "B",
		Name:   "のり弁",
		Prices: map[models.OptionKey]int64{models.OptionRegular: 450, models.OptionLarge: 700},
	}
)

func TestAddLine_MergesSameItemAndOption(t *testing.T) {
	l := NewLedger()
	if err := l.AddLine(itemA, models.OptionRegular, 1); err != nil {
		t.Fatalf("AddLine returned error: %v", err)
	}
	if err := l.AddLine(itemA, models.OptionRegular, 2); err != nil {
		t.Fatalf("AddLine returned error: %v", err)
	}

	if l.Len() != 1 {
		t.Fatalf("expected 1 line, got %d", l.Len())
	}
	if q := l.Lines()[0].Quantity; q != 3 {
		t.Errorf("expected quantity 3, got %d", q)
	}
	totals := l.Totals()
	if totals.TotalPrice != 1500 || totals.TotalItems != 3 {
		t.Errorf("unexpected totals %+v", totals)
	}
}

func TestAddLine_DistinctOptionsStaySeparate(t *testing.T) {
	l := NewLedger()
	_ = l.AddLine(itemA, models.OptionRegular, 1)
	_ = l.AddLine(itemB, models.OptionLarge, 2)
	_ = l.AddLine(itemA, models.OptionLarge, 1)

	lines := l.Lines()
	want := []string{"A/regular", "B/large", "A/large"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i, key := range want {
		if lines[i].Key() != key {
			t.Errorf("line %d: expected key %s, got %s", i, key, lines[i].Key())
		}
	}
}

func TestAddLine_Validation(t *testing.T) {
	tests := []struct {
		name     string
		item     models.MenuItem
		option   models.OptionKey
		quantity int
		wantErr  bool
	}{
		{"valid", itemA, models.OptionRegular, 1, false},
		{"at line limit", itemA, models.OptionRegular, models.MaxLineQuantity, false},
		{"over line limit", itemA, models.OptionRegular, models.MaxLineQuantity + 1, true},
		{"zero quantity", itemA, models.OptionRegular, 0, true},
		{"negative quantity", itemA, models.OptionRegular, -2, true},
		{"zero priced option", itemA, models.OptionSideOnly, 1, true},
		{"missing option", itemB, models.OptionSmall, 1, true},
		{"unknown option", itemA, "jumbo", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			err := l.AddLine(tt.item, tt.option, tt.quantity)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AddLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var vErr *models.ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("expected *models.ValidationError, got %T", err)
				}
				if !l.IsEmpty() {
					t.Errorf("rejected add must not change the cart")
				}
			}
		})
	}
}

func TestAddLine_MergeRespectsLineLimit(t *testing.T) {
	l := NewLedger()
	if err := l.AddLine(itemA, models.OptionRegular, 60); err != nil {
		t.Fatalf("AddLine returned error: %v", err)
	}
	if err := l.AddLine(itemA, models.OptionRegular, 39); err != nil {
		t.Fatalf("merge to %d returned error: %v", models.MaxLineQuantity, err)
	}

	err := l.AddLine(itemA, models.OptionRegular, 1)
	var vErr *models.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *models.ValidationError, got %v", err)
	}
	if q := l.Lines()[0].Quantity; q != models.MaxLineQuantity {
		t.Errorf("rejected merge changed quantity to %d", q)
	}

	if err := l.AdjustQuantity(0, 1); !errors.As(err, &vErr) {
		t.Fatalf("expected *models.ValidationError from AdjustQuantity, got %v", err)
	}
	if q := l.Lines()[0].Quantity; q != models.MaxLineQuantity {
		t.Errorf("rejected adjust changed quantity to %d", q)
	}
	if err := l.AdjustQuantity(0, -1); err != nil {
		t.Fatalf("AdjustQuantity returned error: %v", err)
	}
}

func TestAddLine_LineCountLimit(t *testing.T) {
	l := NewLedger()
	for i := 0; i < models.MaxOrderLines; i++ {
		item := models.MenuItem{
			ID:     fmt.Sprintf("item-%d", i),
			Name:   "弁当",
			Prices: map[models.OptionKey]int64{models.OptionRegular: 500},
		}
		if err := l.AddLine(item, models.OptionRegular, 1); err != nil {
			t.Fatalf("line %d: AddLine returned error: %v", i, err)
		}
	}

	extra := models.MenuItem{ID: "extra", Name: "弁当", Prices: map[models.OptionKey]int64{models.OptionRegular: 500}}
	var vErr *models.ValidationError
	if err := l.AddLine(extra, models.OptionRegular, 1); !errors.As(err, &vErr) {
		t.Fatalf("expected *models.ValidationError, got %v", err)
	}
	if err := l.AddLine(models.MenuItem{ID: "item-0", Name: "弁当", Prices: map[models.OptionKey]int64{models.OptionRegular: 500}}, models.OptionRegular, 1); err != nil {
		t.Fatalf("merge into existing line returned error: %v", err)
	}
	if l.Len() != models.MaxOrderLines {
		t.Errorf("expected %d lines, got %d", models.MaxOrderLines, l.Len())
	}
}

func TestAdjustQuantity(t *testing.T) {
	l := NewLedger()
	_ = l.AddLine(itemA, models.OptionRegular, 1)
	_ = l.AddLine(itemB, models.OptionLarge, 2)

	if err := l.AdjustQuantity(1, 3); err != nil {
		t.Fatalf("AdjustQuantity returned error: %v", err)
	}
	if q := l.Lines()[1].Quantity; q != 5 {
		t.Errorf("expected quantity 5, got %d", q)
	}

	if err := l.AdjustQuantity(0, -1); err != nil {
		t.Fatalf("AdjustQuantity returned error: %v", err)
	}
	if l.Len() != 1 || l.Lines()[0].ItemID != "B" {
		t.Fatalf("expected line A removed, got %+v", l.Lines())
	}

	if err := l.AdjustQuantity(4, 1); !errors.Is(err, ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}
}

func TestAdjustQuantity_RemovesWhenDeltaCancelsQuantity(t *testing.T) {
	for qty := 1; qty <= 5; qty++ {
		l := NewLedger()
		_ = l.AddLine(itemA, models.OptionRegular, qty)
		_ = l.AddLine(itemB, models.OptionRegular, 1)

		if err := l.AdjustQuantity(0, -qty); err != nil {
			t.Fatalf("AdjustQuantity returned error: %v", err)
		}
		for _, line := range l.Lines() {
			if line.Quantity <= 0 {
				t.Fatalf("line %s retained with quantity %d", line.Key(), line.Quantity)
			}
			if line.ItemID == "A" {
				t.Fatalf("expected line A removed for qty %d", qty)
			}
		}
	}
}

func TestRemoveLine_StaleIndexIsNoop(t *testing.T) {
	l := NewLedger()
	_ = l.AddLine(itemA, models.OptionRegular, 1)
	_ = l.AddLine(itemB, models.OptionRegular, 1)

	l.RemoveLine(1)
	l.RemoveLine(1)
	l.RemoveLine(-1)

	if l.Len() != 1 || l.Lines()[0].ItemID != "A" {
		t.Fatalf("unexpected lines %+v", l.Lines())
	}
}

func TestByKeyOperations(t *testing.T) {
	l := NewLedger()
	_ = l.AddLine(itemA, models.OptionRegular, 1)
	_ = l.AddLine(itemB, models.OptionLarge, 1)
	keyB := LineKey("B", models.OptionLarge)

	l.RemoveLineByKey(LineKey("A", models.OptionRegular))
	if err := l.AdjustQuantityByKey(keyB, 2); err != nil {
		t.Fatalf("AdjustQuantityByKey returned error: %v", err)
	}
	if q := l.Lines()[0].Quantity; q != 3 {
		t.Errorf("expected quantity 3, got %d", q)
	}

	l.RemoveLineByKey(LineKey("A", models.OptionRegular))
	if err := l.AdjustQuantityByKey("A/regular", 1); !errors.Is(err, ErrLineNotFound) {
		t.Errorf("expected ErrLineNotFound, got %v", err)
	}
}

func TestTotalsMatchLineSums(t *testing.T) {
	items := []models.MenuItem{itemA, itemB}
	options := []models.OptionKey{models.OptionRegular, models.OptionLarge}
	rng := rand.New(rand.NewSource(42))
	l := NewLedger()

	for step := 0; step < 500; step++ {
		switch rng.Intn(4) {
		case 0, 1:
			_ = l.AddLine(items[rng.Intn(len(items))], options[rng.Intn(len(options))], 1+rng.Intn(3))
		case 2:
			if l.Len() > 0 {
				_ = l.AdjustQuantity(rng.Intn(l.Len()), rng.Intn(5)-3)
			}
		case 3:
			l.RemoveLine(rng.Intn(4))
		}

		var wantItems int
		var wantPrice int64
		seen := map[string]bool{}
		for _, line := range l.Lines() {
			if line.Quantity < 1 {
				t.Fatalf("step %d: line %s has quantity %d", step, line.Key(), line.Quantity)
			}
			if seen[line.Key()] {
				t.Fatalf("step %d: duplicate line %s", step, line.Key())
			}
			seen[line.Key()] = true
			wantItems += line.Quantity
			wantPrice += line.Option.UnitPrice * int64(line.Quantity)
		}
		got := l.Totals()
		if got.TotalItems != wantItems || got.TotalPrice != wantPrice {
			t.Fatalf("step %d: totals %+v, want items=%d price=%d", step, got, wantItems, wantPrice)
		}
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	l := NewLedger()
	_ = l.AddLine(itemA, models.OptionRegular, 1)
	snap := l.Snapshot()

	_ = l.AddLine(itemA, models.OptionRegular, 4)
	l.Clear()

	if len(snap.Lines) != 1 || snap.Lines[0].Quantity != 1 || snap.Totals.TotalPrice != 500 {
		t.Fatalf("snapshot changed after ledger mutation: %+v", snap)
	}
	if !l.IsEmpty() || l.Totals() != (Totals{}) {
		t.Fatalf("expected empty ledger after Clear")
	}
}
