package subscriptions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"temple-services/internal/apperr"
	"temple-services/internal/domain/subscriptions"
	"temple-services/internal/repository"

	"github.com/gin-gonic/gin"
)

type Store interface {
	CreateSubscription(ctx context.Context, sub *subscriptions.Subscription) error
	ListSubscriptionsByUser(ctx context.Context, userID string) ([]subscriptions.Subscription, error)
	CancelSubscription(ctx context.Context, id, userID string) (*subscriptions.Subscription, error)
}

type Handler struct {
	store Store
	now   func() time.Time
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store, now: time.Now}
}

type createRequest struct {
	ID string `json:"id"` // verified payment id
	subscriptions.Input
}

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

	sub := body.Subscription(body.ID, c.GetString("user_id"), h.now())
	err := h.store.CreateSubscription(c.Request.Context(), sub)
	if errors.Is(err, repository.ErrDuplicate) {
		_ = c.Error(apperr.Conflict("A subscription already exists for this payment"))
		return
	}
	if err != nil {
		_ = c.Error(apperr.Persistence(err))
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.store.ListSubscriptionsByUser(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		_ = c.Error(apperr.Persistence(err))
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Cancel(c *gin.Context) {
	sub, err := h.store.CancelSubscription(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		_ = c.Error(apperr.NotFound("Subscription not found"))
		return
	case errors.Is(err, repository.ErrInvalidTransition):
		_ = c.Error(apperr.Conflict("Subscription is already cancelled"))
		return
	case err != nil:
		_ = c.Error(apperr.Persistence(err))
		return
	}
	c.JSON(http.StatusOK, sub)
}
