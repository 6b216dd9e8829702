package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"bento-order/internal/cart"
	"bento-order/internal/checkout"
	"bento-order/internal/models"
)

type checkoutTestContext struct {
	menu      map[string]models.MenuItem
	ledger    *cart.Ledger
	identity  *fakeIdentity
	sink      *fakeSink
	submitter *checkout.Submitter
	order     *models.Order
	err       error
}

func (c *checkoutTestContext) reset() {
	c.menu = make(map[string]models.MenuItem)
	c.ledger = cart.NewLedger()
	c.identity = &fakeIdentity{}
	c.sink = &fakeSink{}
	c.submitter = nil
	c.order = nil
	c.err = nil
}

func (c *checkoutTestContext) aMenuItemPricedAs(id, name string, price int, option string) error {
	item, ok := c.menu[id]
	if !ok {
		item = models.MenuItem{ID: id, Name: name, Prices: make(map[models.OptionKey]int64)}
	}
	item.Prices[models.OptionKey(option)] = int64(price)
	c.menu[id] = item
	return nil
}

func (c *checkoutTestContext) theUserIsLoggedIn(userID, displayName string) error {
	c.identity.authenticated = true
	c.identity.identity = models.Identity{UserID: userID, DisplayName: displayName}
	return nil
}

func (c *checkoutTestContext) addLine(qty int, id, option string) error {
	item, ok := c.menu[id]
	if !ok {
		return fmt.Errorf("unknown menu item %q", id)
	}
	return c.ledger.AddLine(item, models.OptionKey(option), qty)
}

func (c *checkoutTestContext) adjustLine(line, delta int) error {
	return c.ledger.AdjustQuantity(line-1, delta)
}

func (c *checkoutTestContext) theOrderSinkAnswers(status string) error {
	c.sink.result = &models.OrderResult{Status: status}
	return nil
}

func (c *checkoutTestContext) theOrderSinkAnswersWithMessage(status, message string) error {
	c.sink.result = &models.OrderResult{Status: status, Message: message}
	return nil
}

func (c *checkoutTestContext) theOrderSinkIsUnreachable() error {
	c.sink.err = errNetwork
	return nil
}

func (c *checkoutTestContext) iSubmitTheOrder() error {
	c.submitter = checkout.NewSubmitter(c.ledger, c.identity, c.sink, nil)
	c.order, c.err = c.submitter.Submit(context.Background())
	c.submitter.Wait()
	return nil
}

func (c *checkoutTestContext) theCartHasLines(n int) error {
	if got := c.ledger.Len(); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) lineHasQuantity(line, qty int) error {
	lines := c.ledger.Lines()
	if line < 1 || line > len(lines) {
		return fmt.Errorf("no line %d in a cart of %d", line, len(lines))
	}
	if got := lines[line-1].Quantity; got != qty {
		return fmt.Errorf("expected quantity %d, got %d", qty, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartTotalIs(price, items int) error {
	totals := c.ledger.Totals()
	if totals.TotalPrice != int64(price) {
		return fmt.Errorf("expected total price %d, got %d", price, totals.TotalPrice)
	}
	if totals.TotalItems != items {
		return fmt.Errorf("expected %d items, got %d", items, totals.TotalItems)
	}
	return nil
}

func (c *checkoutTestContext) theCartIsEmpty() error {
	if !c.ledger.IsEmpty() {
		return fmt.Errorf("expected empty cart, got %d lines", c.ledger.Len())
	}
	return nil
}

func (c *checkoutTestContext) theSubmissionSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got %v", c.err)
	}
	return nil
}

func (c *checkoutTestContext) theOrderTotalIs(price int) error {
	if c.order == nil {
		return errors.New("no order was built")
	}
	if c.order.TotalPrice != int64(price) {
		return fmt.Errorf("expected order total %d, got %d", price, c.order.TotalPrice)
	}
	return nil
}

func (c *checkoutTestContext) theOrderHasLineSummaries(n int) error {
	if c.order == nil {
		return errors.New("no order was built")
	}
	if got := len(c.order.LineSummaries()); got != n {
		return fmt.Errorf("expected %d line summaries, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) theOrderHasAnOrderID() error {
	if c.order == nil || c.order.OrderID == "" {
		return errors.New("order id missing")
	}
	return nil
}

func (c *checkoutTestContext) theSinkReceived(n int) error {
	if got := c.sink.calls(); got != n {
		return fmt.Errorf("expected %d sink calls, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) theSubmissionIsRejectedWith(message string) error {
	var rejected *checkout.RejectedError
	if !errors.As(c.err, &rejected) {
		return fmt.Errorf("expected rejection, got %v", c.err)
	}
	if rejected.Message != message {
		return fmt.Errorf("expected message %q, got %q", message, rejected.Message)
	}
	return nil
}

func (c *checkoutTestContext) theSubmissionFailsBecauseTheCartIsEmpty() error {
	if !errors.Is(c.err, checkout.ErrEmptyCart) {
		return fmt.Errorf("expected empty cart error, got %v", c.err)
	}
	return nil
}

func (c *checkoutTestContext) theSubmissionFailsWithATransportError() error {
	var transport *checkout.TransportError
	if !errors.As(c.err, &transport) {
		return fmt.Errorf("expected transport error, got %v", c.err)
	}
	return nil
}

func (c *checkoutTestContext) theLastOutcomeIs(state string) error {
	if got := c.submitter.LastOutcome().String(); got != state {
		return fmt.Errorf("expected outcome %q, got %q", state, got)
	}
	return nil
}

func (c *checkoutTestContext) theSubmitControlIsEnabled() error {
	if !c.submitter.CanSubmit() {
		return fmt.Errorf("submit control disabled in state %s", c.submitter.State())
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a menu item "([^"]*)" named "([^"]*)" priced (\d+) as "([^"]*)"$`, tc.aMenuItemPricedAs)
	ctx.Step(`^the user "([^"]*)" named "([^"]*)" is logged in$`, tc.theUserIsLoggedIn)
	ctx.Step(`^the cart holds (\d+) of "([^"]*)" as "([^"]*)"$`, tc.addLine)
	ctx.Step(`^the order sink answers "([^"]*)"$`, tc.theOrderSinkAnswers)
	ctx.Step(`^the order sink answers "([^"]*)" with message "([^"]*)"$`, tc.theOrderSinkAnswersWithMessage)
	ctx.Step(`^the order sink is unreachable$`, tc.theOrderSinkIsUnreachable)

	// When steps
	ctx.Step(`^I add (\d+) of "([^"]*)" as "([^"]*)"$`, tc.addLine)
	ctx.Step(`^I adjust line (\d+) by (-?\d+)$`, tc.adjustLine)
	ctx.Step(`^I submit the order$`, tc.iSubmitTheOrder)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^line (\d+) has quantity (\d+)$`, tc.lineHasQuantity)
	ctx.Step(`^the cart total is (\d+) yen for (\d+) items$`, tc.theCartTotalIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^the submission succeeds$`, tc.theSubmissionSucceeds)
	ctx.Step(`^the order total is (\d+) yen$`, tc.theOrderTotalIs)
	ctx.Step(`^the order has (\d+) line summaries$`, tc.theOrderHasLineSummaries)
	ctx.Step(`^the order has an order id$`, tc.theOrderHasAnOrderID)
	ctx.Step(`^the sink received (\d+) orders?$`, tc.theSinkReceived)
	ctx.Step(`^the submission is rejected with "([^"]*)"$`, tc.theSubmissionIsRejectedWith)
	ctx.Step(`^the submission fails because the cart is empty$`, tc.theSubmissionFailsBecauseTheCartIsEmpty)
	ctx.Step(`^the submission fails with a transport error$`, tc.theSubmissionFailsWithATransportError)
	ctx.Step(`^the last outcome is "([^"]*)"$`, tc.theLastOutcomeIs)
	ctx.Step(`^the submit control is enabled$`, tc.theSubmitControlIsEnabled)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
