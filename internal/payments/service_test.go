package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"temple-services/internal/apperr"
	"temple-services/internal/domain/billing"
	"temple-services/internal/domain/bookings"
	"temple-services/internal/domain/subscriptions"
	"temple-services/internal/infra/mq"
	"temple-services/internal/infra/phonepe"
	"temple-services/internal/infra/razorpay"

	rzperrors "github.com/razorpay/razorpay-go/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

const bookingDetails = `{"pujaNameKey":"puja.satyanarayan","templeNameKey":"temple.iskcon","date":"2026-11-02","price":1500,"isEPuja":true,"numDevotees":2,"fullName":"Kiran Rao","phoneNumber":"9812345678","addOns":{"guideLanguage":"kn","pickup":false,"poojaItems":true,"notifications":true}}`

const subscriptionDetails = `{"templeNameKey":"temple.tirupati","prasadNameKey":"prasad.laddu","frequency":"Monthly","price":499,"fullName":"Anita Das","phoneNumber":"9000000001","address":"22 Park Street, Kolkata"}`

type harness struct {
	svc   *Service
	store *memStore
	rzp   *fakeRazorpay
	pp    *fakePhonePe
	pub   *fakePublisher
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		store: newMemStore(),
		rzp:   &fakeRazorpay{orderID: "order_Q1", valid: true},
		pp:    &fakePhonePe{payURL: "https://mercury-uat.phonepe.com/transact/pay"},
		pub:   &fakePublisher{},
	}
	h.svc = NewService(h.store, h.rzp, h.pp, h.pub, Options{
		FrontendURL: "https://temples.example/",
		BackendURL:  "https://api.temples.example",
	}, zaptest.NewLogger(t))
	h.svc.now = func() time.Time { return fixedNow }
	h.svc.newTxnID = func() string { return "MT0011" }
	return h
}

func successStatus(amount int64) *phonepe.StatusResult {
	return &phonepe.StatusResult{
		Success: true,
		Code:    "PAYMENT_SUCCESS",
		Message: "Your payment is successful.",
		Data:    phonepe.TransactionData{MerchantTransactionID: "MT0011", Amount: amount, State: "COMPLETED", ResponseCode: "SUCCESS"},
	}
}

func (h *harness) createOrder(t *testing.T, typ, details string, amount float64) *PhonePeOrder {
	t.Helper()
	order, err := h.svc.CreatePhonePeOrder(context.Background(), Payer{ID: "u42", Email: "kiran@example.com"}, PhonePeOrderRequest{
		Amount:  amount,
		Details: json.RawMessage(details),
		Type:    typ,
	})
	require.NoError(t, err)
	return order
}

func TestCreateRazorpayOrder(t *testing.T) {
	h := newHarness(t)

	order, err := h.svc.CreateRazorpayOrder(context.Background(), 50000)
	require.NoError(t, err)
	assert.Equal(t, "order_Q1", order.OrderID)
	assert.Equal(t, "rzp_test_key", order.KeyID)

	assert.Empty(t, h.store.bookings)
	assert.Empty(t, h.store.subscriptions)
	assert.Empty(t, h.store.pending)
}

func TestCreateRazorpayOrder_InvalidAmount(t *testing.T) {
	for _, amount := range []float64{0, -100, 10.5, 1e19, 9223372036854775807} {
		h := newHarness(t)
		_, err := h.svc.CreateRazorpayOrder(context.Background(), amount)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), "amount %v", amount)
		assert.Zero(t, h.rzp.calls, "provider must not be called for %v", amount)
	}
}

func TestCreateRazorpayOrder_ProviderError(t *testing.T) {
	h := newHarness(t)
	h.rzp.err = &razorpay.OrderError{Description: "The amount must be atleast INR 1.00", Err: errors.New("bad request")}

	_, err := h.svc.CreateRazorpayOrder(context.Background(), 50)
	status, msg := apperr.Describe(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "The amount must be atleast INR 1.00", msg)

	h = newHarness(t)
	sdkErr := &rzperrors.BadRequestError{Message: "Order amount less than minimum amount allowed"}
	h.rzp.err = &razorpay.OrderError{Status: http.StatusBadRequest, Description: sdkErr.Error(), Err: sdkErr}

	_, err = h.svc.CreateRazorpayOrder(context.Background(), 50)
	status, msg = apperr.Describe(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Order amount less than minimum amount allowed", msg)
}

func TestVerifyRazorpayPayment(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, h.svc.VerifyRazorpayPayment("order_Q1", "pay_Q1", "sig"))

	h.rzp.valid = false
	err := h.svc.VerifyRazorpayPayment("order_Q1", "pay_Q1", "sig")
	assert.True(t, apperr.IsKind(err, apperr.KindSignatureMismatch))

	err = h.svc.VerifyRazorpayPayment("order_Q1", "", "sig")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestVerifyRazorpayPayment_RealSignature(t *testing.T) {
	h := newHarness(t)
	h.svc.razorpay = razorpayWithSecret("s3cr3t")
	sig := razorpay.Signature("s3cr3t", "order_Q1", "pay_Q1")

	assert.NoError(t, h.svc.VerifyRazorpayPayment("order_Q1", "pay_Q1", sig))
	flipped := []byte(sig)
	flipped[0] ^= 1
	assert.Error(t, h.svc.VerifyRazorpayPayment("order_Q1", "pay_Q1", string(flipped)))
}

func razorpayWithSecret(secret string) RazorpayGateway {
	return razorpay.New("rzp_test_key", secret, "INR")
}

func TestCreatePhonePeOrder(t *testing.T) {
	h := newHarness(t)

	order := h.createOrder(t, "booking", bookingDetails, 1500)
	assert.Equal(t, "https://mercury-uat.phonepe.com/transact/pay", order.RedirectURL)
	assert.Equal(t, "MT0011", order.MerchantTransactionID)

	req := h.pp.payReq
	assert.Equal(t, "MUIDu42", req.MerchantUserID)
	assert.Equal(t, int64(150000), req.Amount)
	assert.Equal(t, "https://temples.example/#/payment/status?merchantTransactionId=MT0011", req.RedirectURL)
	assert.Equal(t, "https://api.temples.example/payments/phonepe/callback", req.CallbackURL)
	assert.Equal(t, "9812345678", req.MobileNumber)

	notes, err := billing.DecodeNotes(req.Notes)
	require.NoError(t, err)
	assert.Equal(t, billing.TypeBooking, notes.Type)
	assert.JSONEq(t, bookingDetails, string(notes.Details))

	p := h.store.pending["MT0011"]
	require.NotNil(t, p)
	assert.Equal(t, billing.StatusPending, p.Status)
	assert.Equal(t, int64(150000), p.Amount)
	assert.Equal(t, "u42", p.UserID)
	assert.Empty(t, h.store.bookings)
}

func TestCreatePhonePeOrder_Validation(t *testing.T) {
	cases := []struct {
		name    string
		amount  float64
		typ     string
		details string
	}{
		{"zero amount", 0, "booking", bookingDetails},
		{"oversized amount", 1e17, "booking", bookingDetails},
		{"unknown type", 100, "donation", bookingDetails},
		{"missing details", 100, "booking", ``},
		{"invalid booking", 100, "booking", `{"pujaNameKey":"p"}`},
		{"subscription without address", 100, "subscription", `{"templeNameKey":"t","prasadNameKey":"p","frequency":"Monthly","fullName":"A","phoneNumber":"1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.svc.CreatePhonePeOrder(context.Background(), Payer{ID: "u42"}, PhonePeOrderRequest{
				Amount: tc.amount, Details: json.RawMessage(tc.details), Type: tc.typ,
			})
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)
			assert.Empty(t, h.store.pending)
		})
	}
}

func TestCreatePhonePeOrder_ProviderRejects(t *testing.T) {
	h := newHarness(t)
	h.pp.payErr = &phonepe.APIError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: "Invalid mobile number"}

	_, err := h.svc.CreatePhonePeOrder(context.Background(), Payer{ID: "u42"}, PhonePeOrderRequest{
		Amount: 1500, Details: json.RawMessage(bookingDetails), Type: "booking",
	})
	status, msg := apperr.Describe(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid mobile number", msg)
	assert.Equal(t, billing.StatusFailed, h.store.pending["MT0011"].Status)
}

func TestVerifyPhonePe_BookingSuccess(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "booking", bookingDetails, 1200)
	h.pp.status = successStatus(120000)

	v, err := h.svc.VerifyPhonePePayment(context.Background(), "MT0011", "u42")
	require.NoError(t, err)
	require.True(t, v.Success)
	require.NotNil(t, v.Booking)

	b := v.Booking
	assert.Equal(t, "MT0011", b.ID)
	assert.Equal(t, bookings.StatusConfirmed, b.Status)
	assert.Equal(t, int64(1200), b.Price)
	assert.Equal(t, "kiran@example.com", b.UserEmail)
	assert.True(t, b.IsEPuja)
	assert.Equal(t, billing.StatusSettled, h.store.pending["MT0011"].Status)
	assert.Equal(t, []string{mq.KeyBookingConfirmed}, h.pub.keys())
}

// Subscription settles as Active with delivery a week out.
func TestVerifyPhonePe_SubscriptionSuccess(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "subscription", subscriptionDetails, 499)
	h.pp.status = successStatus(49900)

	v, err := h.svc.VerifyPhonePePayment(context.Background(), "MT0011", "u42")
	require.NoError(t, err)
	require.NotNil(t, v.Subscription)

	sub := v.Subscription
	assert.Equal(t, "MT0011", sub.ID)
	assert.Equal(t, subscriptions.StatusActive, sub.Status)
	assert.Equal(t, fixedNow.Add(7*24*time.Hour), sub.NextDeliveryDate)
	assert.Equal(t, int64(499), sub.Price)
	assert.Equal(t, []string{mq.KeySubscriptionActivated}, h.pub.keys())
	assert.Same(t, sub, v.Record())
}

// A declined payment is an answer, not an error, and leaves no record.
func TestVerifyPhonePe_Declined(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "booking", bookingDetails, 1200)
	h.pp.status = &phonepe.StatusResult{
		Success: false,
		Code:    "PAYMENT_ERROR",
		Message: "Payment Failed",
		Data:    phonepe.TransactionData{MerchantTransactionID: "MT0011", State: "FAILED", ResponseCode: "PAYMENT_DECLINED"},
	}

	v, err := h.svc.VerifyPhonePePayment(context.Background(), "MT0011", "u42")
	require.NoError(t, err)
	assert.False(t, v.Success)
	assert.Equal(t, "Payment Failed", v.Message)
	assert.Nil(t, v.Record())

	assert.Empty(t, h.store.bookings)
	assert.Equal(t, billing.StatusFailed, h.store.pending["MT0011"].Status)
	assert.Equal(t, "PAYMENT_DECLINED", h.store.pending["MT0011"].ProviderState)
	assert.Equal(t, []string{mq.KeyPaymentFailed}, h.pub.keys())
}

func TestVerifyPhonePe_StillPending(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "booking", bookingDetails, 1200)
	h.pp.status = &phonepe.StatusResult{Success: true, Code: "PAYMENT_PENDING", Data: phonepe.TransactionData{State: "PENDING", ResponseCode: "PAYMENT_PENDING"}}

	v, err := h.svc.VerifyPhonePePayment(context.Background(), "MT0011", "u42")
	require.NoError(t, err)
	assert.False(t, v.Success)
	assert.Equal(t, billing.StatusPending, h.store.pending["MT0011"].Status)
	assert.Empty(t, h.pub.keys())
}

func TestVerifyPhonePe_AmountMismatch(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "booking", bookingDetails, 1200)
	h.pp.status = successStatus(100)

	v, err := h.svc.VerifyPhonePePayment(context.Background(), "MT0011", "u42")
	require.NoError(t, err)
	assert.False(t, v.Success)
	assert.Empty(t, h.store.bookings)
}

func TestVerifyPhonePe_Idempotent(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "booking", bookingDetails, 1200)
	h.pp.status = successStatus(120000)

	first, err := h.svc.VerifyPhonePePayment(context.Background(), "MT0011", "u42")
	require.NoError(t, err)
	second, err := h.svc.VerifyPhonePePayment(context.Background(), "MT0011", "u42")
	require.NoError(t, err)

	assert.True(t, second.Success)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)
	assert.Len(t, h.store.bookings, 1)
	assert.Equal(t, 1, h.pp.statusCalls)
}

// Two verifications racing past the settled check both end up with the
// single stored booking.
func TestVerifyPhonePe_DuplicateInsertReturnsExisting(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "booking", bookingDetails, 1200)
	h.pp.status = successStatus(120000)
	h.store.bookings["MT0011"] = &bookings.Booking{ID: "MT0011", Status: bookings.StatusConfirmed, Price: 1200}

	v, err := h.svc.VerifyPhonePePayment(context.Background(), "MT0011", "u42")
	require.NoError(t, err)
	assert.True(t, v.Success)
	assert.Same(t, h.store.bookings["MT0011"], v.Booking)
}

func TestVerifyPhonePe_NotFound(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "booking", bookingDetails, 1200)

	_, err := h.svc.VerifyPhonePePayment(context.Background(), "MTunknown", "u42")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = h.svc.VerifyPhonePePayment(context.Background(), "MT0011", "someone-else")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = h.svc.VerifyPhonePePayment(context.Background(), "", "u42")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Zero(t, h.pp.statusCalls)
}

func TestVerifyPhonePe_ProviderTimeout(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "booking", bookingDetails, 1200)
	h.pp.statusErr = context.DeadlineExceeded

	_, err := h.svc.VerifyPhonePePayment(context.Background(), "MT0011", "u42")
	status, _ := apperr.Describe(err)
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, billing.StatusPending, h.store.pending["MT0011"].Status)
}

func TestHandlePhonePeCallback(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "booking", bookingDetails, 1200)
	h.pp.status = successStatus(120000)
	h.pp.callback = successStatus(120000)

	require.NoError(t, h.svc.HandlePhonePeCallback(context.Background(), "sum###1", []byte(`{}`)))
	assert.Len(t, h.store.bookings, 1)

	// PhonePe retries callbacks; the second one must not fail.
	require.NoError(t, h.svc.HandlePhonePeCallback(context.Background(), "sum###1", []byte(`{}`)))
	assert.Len(t, h.store.bookings, 1)
}

func TestHandlePhonePeCallback_Failed(t *testing.T) {
	h := newHarness(t)
	h.createOrder(t, "booking", bookingDetails, 1200)
	h.pp.callback = &phonepe.StatusResult{Code: "PAYMENT_ERROR", Data: phonepe.TransactionData{MerchantTransactionID: "MT0011", ResponseCode: "PAYMENT_DECLINED"}}

	require.NoError(t, h.svc.HandlePhonePeCallback(context.Background(), "sum###1", []byte(`{}`)))
	assert.Equal(t, billing.StatusFailed, h.store.pending["MT0011"].Status)
	assert.Zero(t, h.pp.statusCalls)
}

func TestHandlePhonePeCallback_BadChecksum(t *testing.T) {
	h := newHarness(t)
	h.pp.callbackErr = phonepe.ErrChecksumMismatch

	err := h.svc.HandlePhonePeCallback(context.Background(), "bad", []byte(`{}`))
	status, _ := apperr.Describe(err)
	assert.Equal(t, http.StatusBadRequest, status)
}
