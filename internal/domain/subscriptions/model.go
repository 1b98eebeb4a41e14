package subscriptions

import "time"

type Frequency string

const (
	FrequencyMonthly   Frequency = "Monthly"
	FrequencyQuarterly Frequency = "Quarterly"
)

type Status string

const (
	StatusActive    Status = "Active"
	StatusCancelled Status = "Cancelled"
)

// FirstDeliveryDelay is the gap between subscribing and the first prasad delivery.
const FirstDeliveryDelay = 7 * 24 * time.Hour

type Subscription struct {
	ID               string    `gorm:"primaryKey;type:varchar(64)" json:"id"` // provider transaction id
	UserID           string    `gorm:"not null;index" json:"userId"`
	TempleNameKey    string    `gorm:"not null" json:"templeNameKey"`
	PrasadNameKey    string    `gorm:"not null" json:"prasadNameKey"`
	Frequency        Frequency `gorm:"type:varchar(20);not null" json:"frequency"`
	Status           Status    `gorm:"type:varchar(20);not null;index" json:"status"`
	Price            int64     `gorm:"not null" json:"price"`
	FullName         string    `json:"fullName"`
	PhoneNumber      string    `json:"phoneNumber"`
	Address          string    `json:"address"`
	NextDeliveryDate time.Time `json:"nextDeliveryDate"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func NextDeliveryDate(subscribedAt time.Time) time.Time {
	return subscribedAt.Add(FirstDeliveryDelay)
}
