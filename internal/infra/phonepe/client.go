package phonepe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrChecksumMismatch  = errors.New("phonepe: checksum mismatch")
	ErrMalformedCallback = errors.New("phonepe: malformed callback body")
)

type Config struct {
	BaseURL    string
	MerchantID string
	SaltKey    string
	SaltIndex  int
	Timeout    time.Duration
}

// APIError is a rejected call, carrying the provider's code and message.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("phonepe %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("phonepe %d: %s", e.Status, e.Message)
}

func (e *APIError) StatusCode() int { return e.Status }

func (e *APIError) ProviderMessage() string { return e.Message }

type PayRequest struct {
	MerchantTransactionID string
	MerchantUserID        string
	Amount                int64 // paise
	RedirectURL           string
	CallbackURL           string
	MobileNumber          string
	Notes                 string
}

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber,omitempty"`
	PaymentInstrument     map[string]string `json:"paymentInstrument"`
	Notes                 string            `json:"notes,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// TransactionData is the data block of status and callback responses.
type TransactionData struct {
	MerchantID            string `json:"merchantId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId"`
	Amount                int64  `json:"amount"`
	State                 string `json:"state"`
	ResponseCode          string `json:"responseCode"`
}

type StatusResult struct {
	Success bool
	Code    string
	Message string
	Data    TransactionData
}

// Outcome treats a payment as settled only when both the envelope and the
// data block say so.
func (r *StatusResult) Outcome() Outcome {
	if r.Success && NormalizeResponseCode(r.Data.ResponseCode) == OutcomeSuccess {
		return OutcomeSuccess
	}
	if NormalizeResponseCode(r.Code) == OutcomePending || strings.EqualFold(r.Data.State, "PENDING") {
		return OutcomePending
	}
	return OutcomeFailed
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Client) MerchantID() string { return c.cfg.MerchantID }

// Pay opens a PAY_PAGE transaction and returns the page to send the user to.
func (c *Client) Pay(ctx context.Context, req PayRequest) (string, error) {
	ctx, span := c.span(ctx, "phonepe.Pay", req.MerchantTransactionID)
	defer span.End()

	raw, err := json.Marshal(payPayload{
		MerchantID:            c.cfg.MerchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		MerchantUserID:        req.MerchantUserID,
		Amount:                req.Amount,
		RedirectURL:           req.RedirectURL,
		RedirectMode:          "REDIRECT",
		CallbackURL:           req.CallbackURL,
		MobileNumber:          req.MobileNumber,
		PaymentInstrument:     map[string]string{"type": "PAY_PAGE"},
		Notes:                 req.Notes,
	})
	if err != nil {
		return "", fmt.Errorf("marshal pay payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	body, _ := json.Marshal(map[string]string{"request": encoded})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+payPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build pay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", PayChecksum(encoded, c.cfg.SaltKey, c.cfg.SaltIndex))

	status, env, err := c.do(httpReq)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if status >= 300 || !env.Success {
		apiErr := &APIError{Status: status, Code: env.Code, Message: messageOr(env.Message, "PhonePe payment initiation failed")}
		span.RecordError(apiErr)
		return "", apiErr
	}

	var data struct {
		InstrumentResponse struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.InstrumentResponse.RedirectInfo.URL == "" {
		return "", &APIError{Status: http.StatusBadGateway, Code: env.Code, Message: "PhonePe response carried no redirect URL"}
	}
	return data.InstrumentResponse.RedirectInfo.URL, nil
}

// Status asks PhonePe for the current state of a transaction. Declined and
// pending payments come back as a result, not an error.
func (c *Client) Status(ctx context.Context, txnID string) (*StatusResult, error) {
	ctx, span := c.span(ctx, "phonepe.Status", txnID)
	defer span.End()

	path := statusURLPath(c.cfg.MerchantID, txnID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", StatusChecksum(c.cfg.MerchantID, txnID, c.cfg.SaltKey, c.cfg.SaltIndex))
	httpReq.Header.Set("X-MERCHANT-ID", c.cfg.MerchantID)

	status, env, err := c.do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if status >= 500 || (status >= 300 && env.Code == "") {
		apiErr := &APIError{Status: status, Code: env.Code, Message: messageOr(env.Message, "PhonePe status check failed")}
		span.RecordError(apiErr)
		return nil, apiErr
	}

	res := &StatusResult{Success: env.Success, Code: env.Code, Message: env.Message}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &res.Data); err != nil {
			return nil, fmt.Errorf("decode status data: %w", err)
		}
	}
	span.SetAttributes(attribute.String("phonepe.response_code", res.Data.ResponseCode))
	return res, nil
}

// VerifyCallback authenticates a server-to-server callback body of the form
// {"response": base64} and decodes the payload it carries.
func (c *Client) VerifyCallback(xVerify string, body []byte) (*StatusResult, error) {
	var req struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Response == "" {
		return nil, ErrMalformedCallback
	}
	if !verifyChecksum(xVerify, req.Response, c.cfg.SaltKey, c.cfg.SaltIndex) {
		return nil, ErrChecksumMismatch
	}

	raw, err := base64.StdEncoding.DecodeString(req.Response)
	if err != nil {
		return nil, fmt.Errorf("phonepe callback: decode response: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("phonepe callback: unmarshal response: %w", err)
	}
	res := &StatusResult{Success: env.Success, Code: env.Code, Message: env.Message}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &res.Data); err != nil {
			return nil, fmt.Errorf("phonepe callback: decode data: %w", err)
		}
	}
	return res, nil
}

func (c *Client) do(req *http.Request) (int, envelope, error) {
	var env envelope
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, env, fmt.Errorf("phonepe request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, env, fmt.Errorf("read phonepe response: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return resp.StatusCode, env, &APIError{Status: resp.StatusCode, Message: "PhonePe returned an unreadable response"}
		}
	}
	return resp.StatusCode, env, nil
}

func (c *Client) span(ctx context.Context, name, txnID string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("phonepe").Start(ctx, name)
	span.SetAttributes(attribute.String("phonepe.merchant_transaction_id", txnID))
	return ctx, span
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
