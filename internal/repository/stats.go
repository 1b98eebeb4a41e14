package repository

import (
	"context"
	"time"

	"temple-services/internal/domain/bookings"
	"temple-services/internal/domain/subscriptions"
)

type Stats struct {
	TotalBookings       int64            `json:"totalBookings"`
	BookingsByStatus    map[string]int64 `json:"bookingsByStatus"`
	ActiveSubscriptions int64            `json:"activeSubscriptions"`
	BookingRevenue      int64            `json:"bookingRevenue"`
	SubscriptionRevenue int64            `json:"subscriptionRevenue"`
	RecentRevenue       int64            `json:"recentRevenue"` // bookings, last 30 days
}

// DashboardStats aggregates counts and revenue in rupees. Cancelled bookings
// do not count as revenue.
func (s *Store) DashboardStats(ctx context.Context, now time.Time) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{BookingsByStatus: map[string]int64{}}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := db.Model(&bookings.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, translate(err, "count bookings")
	}
	for _, c := range counts {
		stats.BookingsByStatus[c.Status] = c.Count
		stats.TotalBookings += c.Count
	}

	if err := db.Model(&subscriptions.Subscription{}).
		Where("status = ?", subscriptions.StatusActive).
		Count(&stats.ActiveSubscriptions).Error; err != nil {
		return nil, translate(err, "count subscriptions")
	}

	if err := db.Model(&bookings.Booking{}).
		Where("status <> ?", bookings.StatusCancelled).
		Select("COALESCE(SUM(price), 0)").
		Scan(&stats.BookingRevenue).Error; err != nil {
		return nil, translate(err, "sum booking revenue")
	}

	if err := db.Model(&subscriptions.Subscription{}).
		Select("COALESCE(SUM(price), 0)").
		Scan(&stats.SubscriptionRevenue).Error; err != nil {
		return nil, translate(err, "sum subscription revenue")
	}

	thirtyDaysAgo := now.AddDate(0, 0, -30)
	if err := db.Model(&bookings.Booking{}).
		Where("status <> ? AND created_at >= ?", bookings.StatusCancelled, thirtyDaysAgo).
		Select("COALESCE(SUM(price), 0)").
		Scan(&stats.RecentRevenue).Error; err != nil {
		return nil, translate(err, "sum recent revenue")
	}

	return stats, nil
}
