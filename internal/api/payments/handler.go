package payments

import (
	"context"
	"io"
	"net/http"

	"temple-services/internal/apperr"
	svc "temple-services/internal/payments"

	"github.com/gin-gonic/gin"
)

type Service interface {
	CreateRazorpayOrder(ctx context.Context, amount float64) (*svc.RazorpayOrder, error)
	VerifyRazorpayPayment(orderID, paymentID, signature string) error
	CreatePhonePeOrder(ctx context.Context, payer svc.Payer, req svc.PhonePeOrderRequest) (*svc.PhonePeOrder, error)
	VerifyPhonePePayment(ctx context.Context, txnID, userID string) (*svc.Verification, error)
	HandlePhonePeCallback(ctx context.Context, xVerify string, body []byte) error
}

type Handler struct {
	svc Service
}

func NewHandler(s Service) *Handler {
	return &Handler{svc: s}
}

// CreateOrder handles POST /payments/create-order.
func (h *Handler) CreateOrder(c *gin.Context) {
	var body struct {
		Amount *float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Amount == nil {
		_ = c.Error(apperr.Validation("amount is required"))
		return
	}

	order, err := h.svc.CreateRazorpayOrder(c.Request.Context(), *body.Amount)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order_id": order.OrderID, "key_id": order.KeyID})
}

// VerifyPayment handles POST /payments/verify-payment.
func (h *Handler) VerifyPayment(c *gin.Context) {
	var body struct {
		OrderID   string `json:"razorpay_order_id"`
		PaymentID string `json:"razorpay_payment_id"`
		Signature string `json:"razorpay_signature"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperr.Validation("Invalid request body"))
		return
	}

	if err := h.svc.VerifyRazorpayPayment(body.OrderID, body.PaymentID, body.Signature); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Payment verified successfully"})
}

// PhonePeCreateOrder handles POST /payments/phonepe/create-order.
func (h *Handler) PhonePeCreateOrder(c *gin.Context) {
	var body svc.PhonePeOrderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperr.Validation("Invalid request body"))
		return
	}

	payer := svc.Payer{ID: c.GetString("user_id"), Email: c.GetString("email")}
	order, err := h.svc.CreatePhonePeOrder(c.Request.Context(), payer, body)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"redirectUrl":           order.RedirectURL,
		"merchantTransactionId": order.MerchantTransactionID,
	})
}

// PhonePeVerifyPayment handles POST /payments/phonepe/verify-payment. A
// declined payment answers 400 with success false.
func (h *Handler) PhonePeVerifyPayment(c *gin.Context) {
	var body struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperr.Validation("Invalid request body"))
		return
	}

	v, err := h.svc.VerifyPhonePePayment(c.Request.Context(), body.MerchantTransactionID, c.GetString("user_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !v.Success {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": v.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": v.Message,
		"type":    v.Type,
		"data":    v.Record(),
	})
}

// PhonePeCallback handles PhonePe's server-to-server notification. The raw
// body is checksummed, so it must reach the service unmodified.
func (h *Handler) PhonePeCallback(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		_ = c.Error(apperr.Validation("Invalid body"))
		return
	}

	if err := h.svc.HandlePhonePeCallback(c.Request.Context(), c.GetHeader("X-VERIFY"), raw); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
