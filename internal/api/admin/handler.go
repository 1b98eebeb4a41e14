package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"temple-services/internal/apperr"
	"temple-services/internal/domain/billing"
	"temple-services/internal/domain/bookings"
	"temple-services/internal/domain/subscriptions"
	"temple-services/internal/repository"

	"github.com/gin-gonic/gin"
)

type Store interface {
	DashboardStats(ctx context.Context, now time.Time) (*repository.Stats, error)
	ListBookings(ctx context.Context, status string) ([]bookings.Booking, error)
	TransitionBooking(ctx context.Context, id string, to bookings.Status) (*bookings.Booking, error)
	ListSubscriptions(ctx context.Context, status string) ([]subscriptions.Subscription, error)
	ListPending(ctx context.Context) ([]billing.PendingPayment, error)
}

type Handler struct {
	store Store
	now   func() time.Time
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store, now: time.Now}
}

type AdminPayment struct {
	ID          string  `json:"id"`
	Provider    string  `json:"provider"`
	Type        string  `json:"type"`
	UserID      string  `json:"user_id"`
	Email       string  `json:"email"`
	AmountINR   float64 `json:"amount_inr"`
	Status      string  `json:"status"`
	ProviderRef string  `json:"provider_state,omitempty"`
	CreatedAt   string  `json:"created_at"`
	SettledAt   *string `json:"settled_at,omitempty"`
}

func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.store.DashboardStats(c.Request.Context(), h.now())
	if err != nil {
		_ = c.Error(apperr.Persistence(err))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListBookings handles GET /admin/bookings?status=Confirmed.
func (h *Handler) ListBookings(c *gin.Context) {
	status := c.Query("status")
	if status != "" {
		if _, ok := bookings.ParseStatus(status); !ok {
			_ = c.Error(apperr.Validation("Unknown booking status"))
			return
		}
	}
	list, err := h.store.ListBookings(c.Request.Context(), status)
	if err != nil {
		_ = c.Error(apperr.Persistence(err))
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperr.Validation("Invalid request body"))
		return
	}
	to, ok := bookings.ParseStatus(body.Status)
	if !ok {
		_ = c.Error(apperr.Validation("status must be Confirmed, Completed or Cancelled"))
		return
	}

	b, err := h.store.TransitionBooking(c.Request.Context(), c.Param("id"), to)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		_ = c.Error(apperr.NotFound("Booking not found"))
		return
	case errors.Is(err, repository.ErrInvalidTransition):
		_ = c.Error(apperr.Conflict("Only confirmed bookings can be completed or cancelled"))
		return
	case err != nil:
		_ = c.Error(apperr.Persistence(err))
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) ListSubscriptions(c *gin.Context) {
	list, err := h.store.ListSubscriptions(c.Request.Context(), c.Query("status"))
	if err != nil {
		_ = c.Error(apperr.Persistence(err))
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.store.ListPending(c.Request.Context())
	if err != nil {
		_ = c.Error(apperr.Persistence(err))
		return
	}

	result := make([]AdminPayment, 0, len(payments))
	for _, p := range payments {
		var settledAt *string
		if p.SettledAt != nil {
			s := p.SettledAt.Format("2006-01-02 15:04")
			settledAt = &s
		}
		result = append(result, AdminPayment{
			ID:          p.ID,
			Provider:    p.Provider,
			Type:        string(p.Type),
			UserID:      p.UserID,
			Email:       p.UserEmail,
			AmountINR:   float64(p.Amount) / 100,
			Status:      string(p.Status),
			ProviderRef: p.ProviderState,
			CreatedAt:   p.CreatedAt.Format("2006-01-02 15:04"),
			SettledAt:   settledAt,
		})
	}

	c.JSON(http.StatusOK, result)
}
