package catalog

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
	"time"

	"bento-order/internal/logger"
	"bento-order/internal/models"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// HTTPClient matches the subset of http.Client used by Loader.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Option customises a Loader.
type Option func(*Loader)

// WithTimeout bounds each fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithFallback enables the placeholder catalog when the source is empty.
func WithFallback(enabled bool) Option {
	return func(l *Loader) {
		l.fallback = enabled
	}
}

// Loader fetches the menu from the catalog source.
type Loader struct {
	endpoint *url.URL
	client   HTTPClient
	logger   *logger.Logger
	timeout  time.Duration
	fallback bool
}

// NewLoader constructs a Loader for endpoint.
func NewLoader(endpoint string, client HTTPClient, log *logger.Logger, opts ...Option) (*Loader, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("catalog: endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse endpoint: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = logger.Discard()
	}
	l := &Loader{
		endpoint: parsed,
		client:   client,
		logger:   log,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// Load fetches and validates the catalog. Errors are *FetchError, *ParseError or *EmptyError.
func (l *Loader) Load(ctx context.Context) ([]models.MenuItem, error) {
	requestID := logger.GenerateRequestID()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint.String(), nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Error("catalog_fetch_failed", "Failed to fetch catalog", requestID, err, map[string]interface{}{
			"endpoint": l.endpoint.String(),
		})
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		l.logger.Warn("catalog_fetch_failed", "Catalog source returned non-success status", requestID, map[string]interface{}{
			"status_code": resp.StatusCode,
		})
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("read body: %w", err)}
	}

	items, err := l.decode(body, requestID)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("catalog_loaded", "Catalog loaded", requestID, map[string]interface{}{
		"items": len(items),
	})
	return items, nil
}

// LoadWithFallback loads the catalog, substituting the placeholder catalog for an empty source
// when fallback is enabled. degraded reports whether the placeholder is in use.
func (l *Loader) LoadWithFallback(ctx context.Context) (items []models.MenuItem, degraded bool, err error) {
	items, err = l.Load(ctx)
	if err == nil {
		return items, false, nil
	}
	if l.fallback && IsEmpty(err) {
		l.logger.Warn("catalog_degraded", "Using placeholder catalog", "", map[string]interface{}{
			"reason": err.Error(),
		})
		return Placeholder(), true, nil
	}
	return nil, false, err
}

func (l *Loader) decode(body []byte, requestID string) ([]models.MenuItem, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &EmptyError{Reason: "empty body"}
	}
	if !json.Valid(trimmed) {
		return nil, &ParseError{Err: errors.New("body is not valid JSON")}
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Error   string `json:"error"`
			Details string `json:"details"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Error != "" {
			msg := envelope.Error
			if envelope.Details != "" {
				msg = envelope.Details
			} else if envelope.Message != "" {
				msg = envelope.Message
			}
			return nil, &ParseError{Err: fmt.Errorf("catalog source error: %s", msg)}
		}
		return nil, &EmptyError{Reason: "response is not an array"}
	}
	if trimmed[0] != '[' {
		return nil, &EmptyError{Reason: "response is not an array"}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, &ParseError{Err: err}
	}

	items := make([]models.MenuItem, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, raw := range records {
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			l.logger.Warn("catalog_item_skipped", "Skipping undecodable catalog item", requestID, map[string]interface{}{
				"index": i,
				"error": err.Error(),
			})
			continue
		}
		item := rec.toMenuItem()
		if err := models.ValidateMenuItem(item); err != nil {
			l.logger.Warn("catalog_item_skipped", "Skipping invalid catalog item", requestID, map[string]interface{}{
				"index": i,
				"id":    item.ID,
				"error": err.Error(),
			})
			continue
		}
		if seen[item.ID] {
			l.logger.Warn("catalog_item_skipped", "Skipping duplicate catalog item", requestID, map[string]interface{}{
				"index": i,
				"id":    item.ID,
			})
			continue
		}
		seen[item.ID] = true
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, &EmptyError{Reason: fmt.Sprintf("%d records, none orderable", len(records))}
	}
	return items, nil
}

// Find returns the item with id
func Find(items []models.MenuItem, id string) (models.MenuItem, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.MenuItem{}, false
}
