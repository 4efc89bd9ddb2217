// Package stripe is a minimal client for the two pieces of the Stripe API
// this platform uses: hosted Checkout Session creation and webhook event
// verification. Amounts are integers in minor currency units throughout.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const defaultBaseURL = "https://api.stripe.com"

// Client creates hosted checkout sessions
type Client interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (CheckoutSession, error)
}

// CheckoutSessionParams describes a single-item donation checkout
type CheckoutSessionParams struct {
	Currency    string
	ProductName string
	Description string
	UnitAmount  int64
	SuccessURL  string
	CancelURL   string

	CustomerEmail string

	// Metadata is attached to the session so the webhook can recover the
	// donation context without a second lookup.
	Metadata map[string]string
}

// CheckoutSession is the subset of the session object the platform needs
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type httpClient struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewClient returns a Client authenticated with the given secret key
func NewClient(secretKey string) Client {
	return &httpClient{
		secretKey: secretKey,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithBaseURL returns a Client pointed at a non-default API host
// (used in tests against an httptest server).
func NewClientWithBaseURL(secretKey, baseURL string) Client {
	return &httpClient{
		secretKey: secretKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateCheckoutSession creates a hosted payment page for a single donation.
// Transient failures (429, 5xx, network errors) are retried with
// exponential backoff; 4xx responses are permanent.
func (c *httpClient) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price_data][currency]", params.Currency)
	form.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	if params.Description != "" {
		form.Set("line_items[0][price_data][product_data][description]", params.Description)
	}
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.UnitAmount, 10))
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}
	for k, v := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	operation := func() (CheckoutSession, error) {
		return c.postSession(ctx, form)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3))
}

func (c *httpClient) postSession(ctx context.Context, form url.Values) (CheckoutSession, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return CheckoutSession{}, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = fmt.Sprintf("%s (%s)", apiErr.Error.Message, apiErr.Error.Type)
		}
		err := fmt.Errorf("stripe API error: %d %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return CheckoutSession{}, err
		}
		return CheckoutSession{}, backoff.Permanent(err)
	}

	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return CheckoutSession{}, backoff.Permanent(fmt.Errorf("failed to unmarshal session: %w", err))
	}
	if session.ID == "" {
		return CheckoutSession{}, backoff.Permanent(fmt.Errorf("stripe returned session without id"))
	}

	return session, nil
}
