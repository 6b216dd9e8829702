package checkout_test

import (
	"context"
	"errors"
	"sync"

	"bento-order/internal/models"
)

type fakeIdentity struct {
	authenticated bool
	identity      models.Identity
	err           error
	loginCalls    int
}

func (f *fakeIdentity) IsAuthenticated(context.Context) bool { return f.authenticated }

func (f *fakeIdentity) CurrentIdentity(context.Context) (models.Identity, error) {
	return f.identity, f.err
}

func (f *fakeIdentity) TriggerLogin(context.Context) error {
	f.loginCalls++
	return nil
}

type fakeSink struct {
	mu       sync.Mutex
	result   *models.OrderResult
	err      error
	block    chan struct{}
	requests []*models.OrderRequest
}

func (f *fakeSink) Submit(ctx context.Context, req *models.OrderRequest) (*models.OrderResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeSink) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeNotifier struct {
	mu        sync.Mutex
	available bool
	err       error
	panics    bool
	messages  []*models.ConfirmationMessage
}

func (f *fakeNotifier) Available() bool { return f.available }

func (f *fakeNotifier) Notify(_ context.Context, msg *models.ConfirmationMessage) error {
	if f.panics {
		panic("liff unavailable")
	}
	f.mu.Lock()
	f.messages = append(f.messages, msg)
	f.mu.Unlock()
	return f.err
}

func (f *fakeNotifier) sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

var errNetwork = errors.New("connection reset by peer")
