// Package client talks to the temple-services API the way the web frontend
// does and drives the payment flows on top of it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"temple-services/internal/domain/bookings"
	"temple-services/internal/domain/subscriptions"
)

const (
	msgNoResponse = "No response from server. Please check your connection and try again."
	msgUnexpected = "An unexpected error occurred"
)

// APIError is a response the server sent with a non-2xx status.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// TransportError means no response arrived at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "no response: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// ErrorMessage picks the text to show the user for err.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("Request failed with status %d", apiErr.Status)
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return msgNoResponse
	}
	if err != nil && errors.Is(err, ErrCheckoutDismissed) {
		return err.Error()
	}
	return msgUnexpected
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type RazorpayOrder struct {
	OrderID string `json:"order_id"`
	KeyID   string `json:"key_id"`
}

// RazorpayResult is what the checkout widget hands back on success.
type RazorpayResult struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type PhonePeOrder struct {
	RedirectURL           string `json:"redirectUrl"`
	MerchantTransactionID string `json:"merchantTransactionId"`
}

type PhonePeVerification struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Type    string          `json:"type,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type BookingRequest struct {
	ID string `json:"id"`
	bookings.Input
}

type SubscriptionRequest struct {
	ID string `json:"id"`
	subscriptions.Input
}

// CreateRazorpayOrder asks for an order of amount paise.
func (c *Client) CreateRazorpayOrder(ctx context.Context, amount int64) (*RazorpayOrder, error) {
	var out RazorpayOrder
	if err := c.do(ctx, http.MethodPost, "/payments/create-order", map[string]int64{"amount": amount}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyRazorpayPayment(ctx context.Context, res RazorpayResult) error {
	return c.do(ctx, http.MethodPost, "/payments/verify-payment", res, nil)
}

func (c *Client) CreatePhonePeOrder(ctx context.Context, amount float64, details any, typ string) (*PhonePeOrder, error) {
	body := map[string]any{"amount": amount, "details": details, "type": typ}
	var out PhonePeOrder
	if err := c.do(ctx, http.MethodPost, "/payments/phonepe/create-order", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPhonePePayment reports a declined payment as Success false rather
// than an error.
func (c *Client) VerifyPhonePePayment(ctx context.Context, txnID string) (*PhonePeVerification, error) {
	var out PhonePeVerification
	err := c.do(ctx, http.MethodPost, "/payments/phonepe/verify-payment", map[string]string{"merchantTransactionId": txnID}, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
		return &PhonePeVerification{Success: false, Message: apiErr.Message}, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*bookings.Booking, error) {
	var out bookings.Booking
	if err := c.do(ctx, http.MethodPost, "/bookings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*subscriptions.Subscription, error) {
	var out subscriptions.Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	if resp.StatusCode >= 300 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &e)
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
