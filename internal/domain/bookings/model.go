package bookings

import "time"

type Status string

const (
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// AddOns are optional extras chosen on the booking form.
type AddOns struct {
	GuideLanguage string `json:"guideLanguage,omitempty"`
	Pickup        bool   `json:"pickup"`
	PoojaItems    bool   `json:"poojaItems"`
	Notifications bool   `json:"notifications"`
}

type Booking struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"` // provider transaction id
	UserID         string    `gorm:"not null;index" json:"userId"`
	UserEmail      string    `json:"userEmail"`
	PujaNameKey    string    `gorm:"not null" json:"pujaNameKey"`
	TempleNameKey  string    `gorm:"not null" json:"templeNameKey"`
	Date           string    `gorm:"type:varchar(10);not null" json:"date"`
	Status         Status    `gorm:"type:varchar(20);not null;index" json:"status"`
	Price          int64     `gorm:"not null" json:"price"`
	IsEPuja        bool      `json:"isEPuja"`
	LiveStreamLink *string   `json:"liveStreamLink,omitempty"`
	NumDevotees    int       `json:"numDevotees"`
	FullName       string    `json:"fullName"`
	PhoneNumber    string    `json:"phoneNumber"`
	AddOns         *AddOns   `gorm:"serializer:json;type:jsonb" json:"addOns,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CanTransition reports whether a booking may move from one status to another.
// Completed and Cancelled are terminal.
func CanTransition(from, to Status) bool {
	if from != StatusConfirmed {
		return false
	}
	return to == StatusCompleted || to == StatusCancelled
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(s), true
	}
	return "", false
}
