package repository

import (
	"context"
	"errors"

	"temple-services/internal/domain/subscriptions"

	"gorm.io/gorm"
)

func (s *Store) CreateSubscription(ctx context.Context, sub *subscriptions.Subscription) error {
	return translate(s.db.WithContext(ctx).Create(sub).Error, "create subscription")
}

func (s *Store) FindSubscription(ctx context.Context, id string) (*subscriptions.Subscription, error) {
	var sub subscriptions.Subscription
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		return nil, translate(err, "find subscription")
	}
	return &sub, nil
}

func (s *Store) ListSubscriptionsByUser(ctx context.Context, userID string) ([]subscriptions.Subscription, error) {
	list := []subscriptions.Subscription{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, translate(err, "list subscriptions")
}

func (s *Store) ListSubscriptions(ctx context.Context, status string) ([]subscriptions.Subscription, error) {
	list := []subscriptions.Subscription{}
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return list, translate(q.Find(&list).Error, "list all subscriptions")
}

// CancelSubscription cancels the user's own active subscription. A
// subscription owned by someone else reads as not found.
func (s *Store) CancelSubscription(ctx context.Context, id, userID string) (*subscriptions.Subscription, error) {
	var sub subscriptions.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&sub).Error; err != nil {
			return err
		}
		if sub.Status != subscriptions.StatusActive {
			return ErrInvalidTransition
		}
		res := tx.Model(&subscriptions.Subscription{}).
			Where("id = ? AND status = ?", id, subscriptions.StatusActive).
			Update("status", subscriptions.StatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		sub.Status = subscriptions.StatusCancelled
		return nil
	})
	if errors.Is(err, ErrInvalidTransition) {
		return nil, err
	}
	if err != nil {
		return nil, translate(err, "cancel subscription")
	}
	return &sub, nil
}
