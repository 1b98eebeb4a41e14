package subscriptions

import (
	"errors"
	"strings"
	"time"
)

type Input struct {
	TempleNameKey string    `json:"templeNameKey"`
	PrasadNameKey string    `json:"prasadNameKey"`
	Frequency     Frequency `json:"frequency"`
	Price         int64     `json:"price"`
	FullName      string    `json:"fullName"`
	PhoneNumber   string    `json:"phoneNumber"`
	Address       string    `json:"address"`
}

func (in Input) Validate() error {
	switch {
	case strings.TrimSpace(in.TempleNameKey) == "":
		return errors.New("templeNameKey is required")
	case strings.TrimSpace(in.PrasadNameKey) == "":
		return errors.New("prasadNameKey is required")
	case in.Frequency != FrequencyMonthly && in.Frequency != FrequencyQuarterly:
		return errors.New("frequency must be Monthly or Quarterly")
	case strings.TrimSpace(in.FullName) == "":
		return errors.New("fullName is required")
	case strings.TrimSpace(in.PhoneNumber) == "":
		return errors.New("phoneNumber is required")
	case strings.TrimSpace(in.Address) == "":
		return errors.New("address is required")
	case in.Price < 0:
		return errors.New("price cannot be negative")
	}
	return nil
}

// Subscription builds an active subscription created at now.
func (in Input) Subscription(id, userID string, now time.Time) *Subscription {
	return &Subscription{
		ID:               id,
		UserID:           userID,
		TempleNameKey:    in.TempleNameKey,
		PrasadNameKey:    in.PrasadNameKey,
		Frequency:        in.Frequency,
		Status:           StatusActive,
		Price:            in.Price,
		FullName:         in.FullName,
		PhoneNumber:      in.PhoneNumber,
		Address:          in.Address,
		NextDeliveryDate: NextDeliveryDate(now),
	}
}
