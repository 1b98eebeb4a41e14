package repository

import (
	"context"
	"time"

	"temple-services/internal/domain/billing"
	"temple-services/internal/domain/bookings"
	"temple-services/internal/domain/subscriptions"

	"gorm.io/gorm"
)

func (s *Store) CreatePending(ctx context.Context, p *billing.PendingPayment) error {
	return translate(s.db.WithContext(ctx).Create(p).Error, "create pending payment")
}

func (s *Store) FindPending(ctx context.Context, id string) (*billing.PendingPayment, error) {
	var p billing.PendingPayment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err, "find pending payment")
	}
	return &p, nil
}

// MarkPending records the latest provider state. A settled payment is never
// moved back.
func (s *Store) MarkPending(ctx context.Context, id string, status billing.PaymentStatus, providerState string) error {
	err := s.db.WithContext(ctx).
		Model(&billing.PendingPayment{}).
		Where("id = ? AND status <> ?", id, billing.StatusSettled).
		Updates(map[string]interface{}{
			"status":         status,
			"provider_state": providerState,
		}).Error
	return translate(err, "mark pending payment")
}

func (s *Store) ListPendingByUser(ctx context.Context, userID string) ([]billing.PendingPayment, error) {
	list := []billing.PendingPayment{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, translate(err, "list payments")
}

func (s *Store) ListPending(ctx context.Context) ([]billing.PendingPayment, error) {
	list := []billing.PendingPayment{}
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error
	return list, translate(err, "list all payments")
}

// SettleBooking inserts the booking and marks its pending payment settled in
// one transaction.
func (s *Store) SettleBooking(ctx context.Context, b *bookings.Booking, providerState string) error {
	return s.settle(ctx, b.ID, providerState, func(tx *gorm.DB) error {
		return tx.Create(b).Error
	})
}

func (s *Store) SettleSubscription(ctx context.Context, sub *subscriptions.Subscription, providerState string) error {
	return s.settle(ctx, sub.ID, providerState, func(tx *gorm.DB) error {
		return tx.Create(sub).Error
	})
}

func (s *Store) settle(ctx context.Context, pendingID, providerState string, create func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := create(tx); err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Model(&billing.PendingPayment{}).
			Where("id = ?", pendingID).
			Updates(map[string]interface{}{
				"status":         billing.StatusSettled,
				"provider_state": providerState,
				"settled_at":     &now,
			}).Error
	})
	return translate(err, "settle payment")
}
