package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"bento-order/internal/models"
)

const maxResponseBytes = 1 << 20

// Sink records orders. Implementations return *TransportError or *ParseError;
// an explicit error status is returned as a result for the caller to interpret.
type Sink interface {
	Submit(ctx context.Context, req *models.OrderRequest) (*models.OrderResult, error)
}

// HTTPClient matches the subset of http.Client used by HTTPSink.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPSink posts orders as JSON to the order endpoint.
type HTTPSink struct {
	endpoint *url.URL
	client   HTTPClient
}

// NewHTTPSink constructs a Sink for endpoint.
func NewHTTPSink(endpoint string, client HTTPClient) (*HTTPSink, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("checkout: sink endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("checkout: parse sink endpoint: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{endpoint: parsed, client: client}, nil
}

// Submit sends exactly one POST carrying req.
func (s *HTTPSink) Submit(ctx context.Context, req *models.OrderRequest) (*models.OrderResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("checkout: encode order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.OrderID)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: errorFromBody(resp.Status, body)}
	}

	var result models.OrderResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ParseError{Err: err}
	}
	switch result.Status {
	case models.StatusSuccess, models.StatusError:
		return &result, nil
	case "":
		return nil, &ParseError{Err: errors.New("response has no status field")}
	default:
		return nil, &ParseError{Err: fmt.Errorf("unknown status %q", result.Status)}
	}
}

func errorFromBody(status string, body []byte) error {
	var envelope models.OrderResult
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return fmt.Errorf("%s: %s", status, envelope.Message)
	}
	return errors.New(status)
}
