package repository

import (
	"context"
	"errors"

	"temple-services/internal/domain/bookings"

	"gorm.io/gorm"
)

func (s *Store) CreateBooking(ctx context.Context, b *bookings.Booking) error {
	return translate(s.db.WithContext(ctx).Create(b).Error, "create booking")
}

func (s *Store) FindBooking(ctx context.Context, id string) (*bookings.Booking, error) {
	var b bookings.Booking
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, translate(err, "find booking")
	}
	return &b, nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, userID string) ([]bookings.Booking, error) {
	list := []bookings.Booking{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, translate(err, "list bookings")
}

func (s *Store) ListBookings(ctx context.Context, status string) ([]bookings.Booking, error) {
	list := []bookings.Booking{}
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return list, translate(q.Find(&list).Error, "list all bookings")
}

// TransitionBooking moves a booking to status to, rejecting moves out of a
// terminal state.
func (s *Store) TransitionBooking(ctx context.Context, id string, to bookings.Status) (*bookings.Booking, error) {
	var b bookings.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&b).Error; err != nil {
			return err
		}
		if !bookings.CanTransition(b.Status, to) {
			return ErrInvalidTransition
		}
		res := tx.Model(&bookings.Booking{}).
			Where("id = ? AND status = ?", id, b.Status).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		b.Status = to
		return nil
	})
	if errors.Is(err, ErrInvalidTransition) {
		return nil, err
	}
	if err != nil {
		return nil, translate(err, "transition booking")
	}
	return &b, nil
}
