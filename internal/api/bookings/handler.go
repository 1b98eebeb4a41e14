package bookings

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"temple-services/internal/apperr"
	"temple-services/internal/domain/bookings"
	"temple-services/internal/repository"

	"github.com/gin-gonic/gin"
)

type Store interface {
	CreateBooking(ctx context.Context, b *bookings.Booking) error
	FindBooking(ctx context.Context, id string) (*bookings.Booking, error)
	ListBookingsByUser(ctx context.Context, userID string) ([]bookings.Booking, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

type createRequest struct {
	ID string `json:"id"` // verified payment id
	bookings.Input
}

// Create stores the booking for a payment the client has already verified.
func (h *Handler) Create(c *gin.Context) {
	var body createRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(apperr.Validation("Invalid request body"))
		return
	}
	if strings.TrimSpace(body.ID) == "" {
		_ = c.Error(apperr.Validation("id is required"))
		return
	}
	if err := body.Validate(); err != nil {
		_ = c.Error(apperr.Validation(err.Error()))
		return
	}

	b := body.Booking(body.ID, c.GetString("user_id"), c.GetString("email"))
	err := h.store.CreateBooking(c.Request.Context(), b)
	if errors.Is(err, repository.ErrDuplicate) {
		_ = c.Error(apperr.Conflict("A booking already exists for this payment"))
		return
	}
	if err != nil {
		_ = c.Error(apperr.Persistence(err))
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.store.ListBookingsByUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		_ = c.Error(apperr.Persistence(err))
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get returns one of the caller's bookings; admins may read any.
func (h *Handler) Get(c *gin.Context) {
	b, err := h.store.FindBooking(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		_ = c.Error(apperr.NotFound("Booking not found"))
		return
	}
	if err != nil {
		_ = c.Error(apperr.Persistence(err))
		return
	}
	if b.UserID != c.GetString("user_id") && c.GetString("role") != "admin" {
		_ = c.Error(apperr.NotFound("Booking not found"))
		return
	}
	c.JSON(http.StatusOK, b)
}
