package billing

import (
	"context"
	"net/http"

	"temple-services/internal/apperr"
	"temple-services/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

type Store interface {
	ListPendingByUser(ctx context.Context, userID string) ([]billing.PendingPayment, error)
}

// GetPaymentHistory lists the caller's redirect-based payment attempts,
// newest first.
func GetPaymentHistory(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			_ = c.Error(apperr.Unauthorized("Unauthorized"))
			return
		}

		payments, err := store.ListPendingByUser(c.Request.Context(), userID)
		if err != nil {
			_ = c.Error(apperr.Persistence(err))
			return
		}

		c.JSON(http.StatusOK, payments)
	}
}
