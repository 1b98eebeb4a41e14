// Package payments opens provider orders, verifies their outcome and turns
// a verified payment into a booking or subscription.
package payments

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"temple-services/internal/apperr"
	"temple-services/internal/domain/billing"
	"temple-services/internal/domain/bookings"
	"temple-services/internal/domain/subscriptions"
	"temple-services/internal/infra/phonepe"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	CreatePending(ctx context.Context, p *billing.PendingPayment) error
	FindPending(ctx context.Context, id string) (*billing.PendingPayment, error)
	MarkPending(ctx context.Context, id string, status billing.PaymentStatus, providerState string) error
	SettleBooking(ctx context.Context, b *bookings.Booking, providerState string) error
	SettleSubscription(ctx context.Context, sub *subscriptions.Subscription, providerState string) error
	FindBooking(ctx context.Context, id string) (*bookings.Booking, error)
	FindSubscription(ctx context.Context, id string) (*subscriptions.Subscription, error)
}

type RazorpayGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, amount int64) (string, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

type PhonePeGateway interface {
	Pay(ctx context.Context, req phonepe.PayRequest) (string, error)
	Status(ctx context.Context, txnID string) (*phonepe.StatusResult, error)
	VerifyCallback(xVerify string, body []byte) (*phonepe.StatusResult, error)
}

type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type Options struct {
	FrontendURL string
	BackendURL  string
}

type Service struct {
	store     Store
	razorpay  RazorpayGateway
	phonepe   PhonePeGateway
	publisher Publisher
	log       *zap.Logger
	opts      Options

	now      func() time.Time
	newTxnID func() string
}

// NewService wires the gateways. publisher may be nil when no broker is
// configured.
func NewService(store Store, rz RazorpayGateway, pp PhonePeGateway, publisher Publisher, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")
	opts.BackendURL = strings.TrimRight(opts.BackendURL, "/")
	return &Service{
		store:     store,
		razorpay:  rz,
		phonepe:   pp,
		publisher: publisher,
		log:       log,
		opts:      opts,
		now:       time.Now,
		newTxnID:  newMerchantTransactionID,
	}
}

func newMerchantTransactionID() string {
	return "MT" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// providerFailure is implemented by the gateway error types.
type providerFailure interface {
	StatusCode() int
	ProviderMessage() string
}

func providerErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Provider(http.StatusGatewayTimeout, "Payment provider timed out", err)
	}
	var pf providerFailure
	if errors.As(err, &pf) {
		return apperr.Provider(pf.StatusCode(), pf.ProviderMessage(), err)
	}
	return apperr.Provider(0, "", err)
}

func (s *Service) publish(ctx context.Context, key string, v any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(ctx, key, v); err != nil {
		s.log.Warn("Failed to publish payment event", zap.String("key", key), zap.Error(err))
	}
}
