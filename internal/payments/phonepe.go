package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/url"

	"temple-services/internal/apperr"
	"temple-services/internal/domain/billing"
	"temple-services/internal/domain/bookings"
	"temple-services/internal/domain/subscriptions"
	"temple-services/internal/infra/metrics"
	"temple-services/internal/infra/mq"
	"temple-services/internal/infra/phonepe"
	"temple-services/internal/repository"

	"go.uber.org/zap"
)

// Payer identifies the authenticated user starting a payment.
type Payer struct {
	ID    string
	Email string
}

type PhonePeOrderRequest struct {
	Amount  float64         `json:"amount"` // rupees
	Details json.RawMessage `json:"details"`
	Type    string          `json:"type"`
}

type PhonePeOrder struct {
	RedirectURL           string `json:"redirectUrl"`
	MerchantTransactionID string `json:"merchantTransactionId"`
}

// Verification is the outcome of a PhonePe status check. A declined payment
// is a normal outcome with Success false, not an error.
type Verification struct {
	Success      bool                        `json:"success"`
	Message      string                      `json:"message"`
	Type         billing.PaymentType         `json:"type,omitempty"`
	Booking      *bookings.Booking           `json:"-"`
	Subscription *subscriptions.Subscription `json:"-"`
}

// Record is whichever of Booking or Subscription was persisted.
func (v *Verification) Record() any {
	switch {
	case v.Booking != nil:
		return v.Booking
	case v.Subscription != nil:
		return v.Subscription
	}
	return nil
}

// CreatePhonePeOrder stores a pending payment for the validated details and
// opens a PhonePe pay page for it.
func (s *Service) CreatePhonePeOrder(ctx context.Context, payer Payer, req PhonePeOrderRequest) (*PhonePeOrder, error) {
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount*100 > maxOrderPaise {
		return nil, apperr.Validation("Amount must be greater than zero")
	}
	paise := int64(math.Round(req.Amount * 100))
	if paise <= 0 {
		return nil, apperr.Validation("Amount must be greater than zero")
	}
	typ, ok := billing.ParsePaymentType(req.Type)
	if !ok {
		return nil, apperr.Validation("type must be booking or subscription")
	}
	mobile, err := validateDetails(typ, req.Details)
	if err != nil {
		return nil, err
	}

	txnID := s.newTxnID()
	notes, err := billing.EncodeNotes(billing.Notes{Details: req.Details, Type: typ})
	if err != nil {
		return nil, apperr.Validation("details must be a JSON object")
	}

	pending := &billing.PendingPayment{
		ID:        txnID,
		Provider:  billing.ProviderPhonePe,
		Type:      typ,
		UserID:    payer.ID,
		UserEmail: payer.Email,
		Amount:    paise,
		Details:   compactJSON(req.Details),
		Status:    billing.StatusPending,
	}
	if err := s.store.CreatePending(ctx, pending); err != nil {
		return nil, apperr.Persistence(err)
	}

	redirectURL, err := s.phonepe.Pay(ctx, phonepe.PayRequest{
		MerchantTransactionID: txnID,
		MerchantUserID:        "MUID" + payer.ID,
		Amount:                paise,
		RedirectURL:           s.opts.FrontendURL + "/#/payment/status?merchantTransactionId=" + url.QueryEscape(txnID),
		CallbackURL:           s.opts.BackendURL + "/payments/phonepe/callback",
		MobileNumber:          mobile,
		Notes:                 notes,
	})
	if err != nil {
		metrics.RecordPayment(billing.ProviderPhonePe, "create_order", "error")
		s.log.Error("PhonePe order creation failed", zap.String("merchant_transaction_id", txnID), zap.Error(err))
		if markErr := s.store.MarkPending(ctx, txnID, billing.StatusFailed, "PAY_REJECTED"); markErr != nil {
			s.log.Error("Failed to mark pending payment", zap.String("merchant_transaction_id", txnID), zap.Error(markErr))
		}
		return nil, providerErr(err)
	}

	metrics.RecordPayment(billing.ProviderPhonePe, "create_order", "success")
	return &PhonePeOrder{RedirectURL: redirectURL, MerchantTransactionID: txnID}, nil
}

// VerifyPhonePePayment settles the user's transaction if PhonePe reports it
// paid. Verifying an already settled transaction returns the stored record.
func (s *Service) VerifyPhonePePayment(ctx context.Context, txnID, userID string) (*Verification, error) {
	if txnID == "" {
		return nil, apperr.Validation("merchantTransactionId is required")
	}
	pending, err := s.store.FindPending(ctx, txnID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && pending.UserID != userID) {
		return nil, apperr.NotFound("Payment not found")
	}
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return s.settle(ctx, pending)
}

// HandlePhonePeCallback authenticates PhonePe's server-to-server callback
// and settles the payment when it reports success.
func (s *Service) HandlePhonePeCallback(ctx context.Context, xVerify string, body []byte) error {
	res, err := s.phonepe.VerifyCallback(xVerify, body)
	switch {
	case errors.Is(err, phonepe.ErrChecksumMismatch):
		metrics.RecordPayment(billing.ProviderPhonePe, "callback", "checksum_mismatch")
		return apperr.Validation("Invalid callback checksum")
	case err != nil:
		return apperr.Validation("Malformed callback")
	}

	txnID := res.Data.MerchantTransactionID
	if txnID == "" {
		return apperr.Validation("Callback carries no merchantTransactionId")
	}
	pending, err := s.store.FindPending(ctx, txnID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("Payment not found")
	}
	if err != nil {
		return apperr.Persistence(err)
	}

	metrics.RecordPayment(billing.ProviderPhonePe, "callback", string(res.Outcome()))
	if res.Outcome() == phonepe.OutcomeSuccess {
		// The callback only signals; the status API stays the source of truth.
		_, err := s.settle(ctx, pending)
		return err
	}
	if res.Outcome() == phonepe.OutcomeFailed && pending.Status == billing.StatusPending {
		if err := s.store.MarkPending(ctx, txnID, billing.StatusFailed, res.Code); err != nil {
			return apperr.Persistence(err)
		}
	}
	return nil
}

func (s *Service) settle(ctx context.Context, pending *billing.PendingPayment) (*Verification, error) {
	log := s.log.With(zap.String("merchant_transaction_id", pending.ID), zap.String("type", string(pending.Type)))

	if pending.Status == billing.StatusSettled {
		return s.existing(ctx, pending)
	}

	res, err := s.phonepe.Status(ctx, pending.ID)
	if err != nil {
		metrics.RecordPayment(billing.ProviderPhonePe, "verify", "error")
		log.Error("PhonePe status check failed", zap.Error(err))
		return nil, providerErr(err)
	}

	outcome := res.Outcome()
	if outcome == phonepe.OutcomeSuccess && res.Data.Amount != 0 && res.Data.Amount != pending.Amount {
		log.Error("PhonePe amount mismatch", zap.Int64("expected", pending.Amount), zap.Int64("reported", res.Data.Amount))
		outcome = phonepe.OutcomeFailed
		res.Message = "Paid amount does not match the order"
	}

	if outcome != phonepe.OutcomeSuccess {
		metrics.RecordPayment(billing.ProviderPhonePe, "verify", string(outcome))
		state := res.Data.ResponseCode
		if state == "" {
			state = res.Code
		}
		status := billing.StatusFailed
		if outcome == phonepe.OutcomePending {
			status = billing.StatusPending
		}
		if err := s.store.MarkPending(ctx, pending.ID, status, state); err != nil {
			log.Error("Failed to record payment state", zap.Error(err))
		}
		if status == billing.StatusFailed {
			s.publish(ctx, mq.KeyPaymentFailed, map[string]any{
				"merchantTransactionId": pending.ID,
				"userId":                pending.UserID,
				"type":                  pending.Type,
				"responseCode":          state,
			})
		}
		msg := res.Message
		if msg == "" {
			msg = "Payment failed"
		}
		log.Info("PhonePe payment not successful", zap.String("response_code", state))
		return &Verification{Success: false, Message: msg, Type: pending.Type}, nil
	}

	v, err := s.persist(ctx, pending, res.Data.ResponseCode)
	if err != nil {
		return nil, err
	}
	metrics.RecordPayment(billing.ProviderPhonePe, "verify", "success")
	log.Info("PhonePe payment settled")
	return v, nil
}

func (s *Service) persist(ctx context.Context, pending *billing.PendingPayment, providerState string) (*Verification, error) {
	switch pending.Type {
	case billing.TypeBooking:
		var in bookings.Input
		if err := json.Unmarshal(pending.Details, &in); err != nil {
			return nil, apperr.Persistence(err)
		}
		b := in.Booking(pending.ID, pending.UserID, pending.UserEmail)
		b.Price = pending.AmountRupees()
		err := s.store.SettleBooking(ctx, b, providerState)
		if errors.Is(err, repository.ErrDuplicate) {
			return s.existing(ctx, pending)
		}
		if err != nil {
			return nil, apperr.Persistence(err)
		}
		s.publish(ctx, mq.KeyBookingConfirmed, b)
		return &Verification{Success: true, Message: "Payment verified and booking confirmed", Type: pending.Type, Booking: b}, nil

	case billing.TypeSubscription:
		var in subscriptions.Input
		if err := json.Unmarshal(pending.Details, &in); err != nil {
			return nil, apperr.Persistence(err)
		}
		sub := in.Subscription(pending.ID, pending.UserID, s.now())
		sub.Price = pending.AmountRupees()
		err := s.store.SettleSubscription(ctx, sub, providerState)
		if errors.Is(err, repository.ErrDuplicate) {
			return s.existing(ctx, pending)
		}
		if err != nil {
			return nil, apperr.Persistence(err)
		}
		s.publish(ctx, mq.KeySubscriptionActivated, sub)
		return &Verification{Success: true, Message: "Payment verified and subscription activated", Type: pending.Type, Subscription: sub}, nil
	}
	return nil, apperr.Persistence(errors.New("unknown payment type " + string(pending.Type)))
}

// existing loads the record a previous verification already persisted.
func (s *Service) existing(ctx context.Context, pending *billing.PendingPayment) (*Verification, error) {
	v := &Verification{Success: true, Message: "Payment already verified", Type: pending.Type}
	var err error
	switch pending.Type {
	case billing.TypeBooking:
		v.Booking, err = s.store.FindBooking(ctx, pending.ID)
	case billing.TypeSubscription:
		v.Subscription, err = s.store.FindSubscription(ctx, pending.ID)
	default:
		err = errors.New("unknown payment type " + string(pending.Type))
	}
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return v, nil
}

// validateDetails checks details against the input schema of typ and
// returns the phone number PhonePe should prefill.
func validateDetails(typ billing.PaymentType, details json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(details)) == 0 {
		return "", apperr.Validation("details are required")
	}
	switch typ {
	case billing.TypeBooking:
		var in bookings.Input
		if err := json.Unmarshal(details, &in); err != nil {
			return "", apperr.Validation("Invalid booking details")
		}
		if err := in.Validate(); err != nil {
			return "", apperr.Validation(err.Error())
		}
		return in.PhoneNumber, nil
	default:
		var in subscriptions.Input
		if err := json.Unmarshal(details, &in); err != nil {
			return "", apperr.Validation("Invalid subscription details")
		}
		if err := in.Validate(); err != nil {
			return "", apperr.Validation(err.Error())
		}
		return in.PhoneNumber, nil
	}
}

func compactJSON(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
