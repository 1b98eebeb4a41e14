package payments

import (
	"context"
	"math"

	"temple-services/internal/apperr"
	"temple-services/internal/domain/billing"
	"temple-services/internal/infra/metrics"

	"go.uber.org/zap"
)

type RazorpayOrder struct {
	OrderID string `json:"order_id"`
	KeyID   string `json:"key_id"`
}

// maxOrderPaise keeps the float to int64 conversion exact.
const maxOrderPaise = 1 << 53

// CreateRazorpayOrder opens an order for amount paise. Nothing is stored;
// the booking is created by the client once the payment is verified.
func (s *Service) CreateRazorpayOrder(ctx context.Context, amount float64) (*RazorpayOrder, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 || amount != math.Trunc(amount) || amount > maxOrderPaise {
		return nil, apperr.Validation("Amount must be a positive whole number of paise")
	}

	orderID, err := s.razorpay.CreateOrder(ctx, int64(amount))
	if err != nil {
		metrics.RecordPayment(billing.ProviderRazorpay, "create_order", "error")
		s.log.Error("Razorpay order creation failed", zap.Float64("amount", amount), zap.Error(err))
		return nil, providerErr(err)
	}

	metrics.RecordPayment(billing.ProviderRazorpay, "create_order", "success")
	return &RazorpayOrder{OrderID: orderID, KeyID: s.razorpay.KeyID()}, nil
}

// VerifyRazorpayPayment checks the checkout signature. It persists nothing.
func (s *Service) VerifyRazorpayPayment(orderID, paymentID, signature string) error {
	if orderID == "" || paymentID == "" || signature == "" {
		return apperr.Validation("razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}
	if !s.razorpay.VerifySignature(orderID, paymentID, signature) {
		metrics.RecordPayment(billing.ProviderRazorpay, "verify", "signature_mismatch")
		s.log.Warn("Razorpay signature mismatch", zap.String("order_id", orderID), zap.String("payment_id", paymentID))
		return apperr.SignatureMismatch()
	}
	metrics.RecordPayment(billing.ProviderRazorpay, "verify", "success")
	return nil
}
