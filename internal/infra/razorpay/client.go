package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	rzp "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// orderAPI is the slice of the SDK's order resource we use.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// OrderError carries the provider's description of a rejected order and
// the HTTP status it maps to. Status 0 means unknown.
type OrderError struct {
	Status      int
	Description string
	Err         error
}

func (e *OrderError) Error() string { return e.Description }
func (e *OrderError) Unwrap() error { return e.Err }

func (e *OrderError) StatusCode() int { return e.Status }

func (e *OrderError) ProviderMessage() string { return e.Description }

type Client struct {
	keyID     string
	keySecret string
	currency  string
	orders    orderAPI
	now       func() time.Time
}

func New(keyID, keySecret, currency string) *Client {
	sdk := rzp.NewClient(keyID, keySecret)
	return newClient(keyID, keySecret, currency, sdk.Order)
}

func newClient(keyID, keySecret, currency string, orders orderAPI) *Client {
	if currency == "" {
		currency = "INR"
	}
	return &Client{
		keyID:     keyID,
		keySecret: keySecret,
		currency:  currency,
		orders:    orders,
		now:       time.Now,
	}
}

// KeyID is the public key the checkout widget needs.
func (c *Client) KeyID() string { return c.keyID }

// CreateOrder opens an order for amount paise and returns its id.
func (c *Client) CreateOrder(ctx context.Context, amount int64) (string, error) {
	_, span := otel.Tracer("razorpay").Start(ctx, "razorpay.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.Int64("payment.amount", amount))

	if err := ctx.Err(); err != nil {
		return "", err
	}

	order, err := c.orders.Create(map[string]interface{}{
		"amount":   amount,
		"currency": c.currency,
		"receipt":  fmt.Sprintf("receipt_%d", c.now().Unix()),
	}, nil)
	if err != nil {
		span.RecordError(err)
		return "", &OrderError{Status: sdkStatus(err), Description: err.Error(), Err: err}
	}

	id, _ := order["id"].(string)
	if id == "" {
		return "", &OrderError{Description: "Razorpay returned an order without an id", Err: errors.New("missing order id")}
	}
	return id, nil
}

// sdkStatus maps the SDK's typed errors back to the status Razorpay sent.
func sdkStatus(err error) int {
	var (
		badRequest *rzperrors.BadRequestError
		gateway    *rzperrors.GatewayError
		server     *rzperrors.ServerError
	)
	switch {
	case errors.As(err, &badRequest):
		return http.StatusBadRequest
	case errors.As(err, &gateway):
		return http.StatusBadGateway
	case errors.As(err, &server):
		return http.StatusInternalServerError
	}
	return 0
}

// VerifySignature checks the signature the checkout handed back to the browser.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	expected := Signature(c.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Signature is the hex HMAC-SHA256 of "order_id|payment_id".
func Signature(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}
