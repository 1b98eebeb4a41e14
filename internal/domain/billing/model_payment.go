package billing

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ProviderRazorpay = "razorpay"
	ProviderPhonePe  = "phonepe"
)

type PaymentType string

const (
	TypeBooking      PaymentType = "booking"
	TypeSubscription PaymentType = "subscription"
)

func ParsePaymentType(s string) (PaymentType, bool) {
	switch PaymentType(s) {
	case TypeBooking, TypeSubscription:
		return PaymentType(s), true
	}
	return "", false
}

type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusSettled PaymentStatus = "settled"
	StatusFailed  PaymentStatus = "failed"
)

// PendingPayment is written when a redirect-based order is opened and read
// back when the user returns, so the order details never depend on the
// provider echoing them.
type PendingPayment struct {
	ID            string         `gorm:"primaryKey;type:varchar(64)" json:"id"` // merchant transaction id
	Provider      string         `gorm:"type:varchar(20);not null;index" json:"provider"`
	Type          PaymentType    `gorm:"type:varchar(20);not null" json:"type"`
	UserID        string         `gorm:"not null;index" json:"userId"`
	UserEmail     string         `json:"userEmail"`
	Amount        int64          `gorm:"not null" json:"amount"` // paise
	Details       datatypes.JSON `gorm:"type:jsonb" json:"details"`
	Status        PaymentStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	ProviderState string         `json:"providerState,omitempty"`
	SettledAt     *time.Time     `json:"settledAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// AmountRupees converts the stored paise amount back to whole rupees.
func (p *PendingPayment) AmountRupees() int64 {
	return p.Amount / 100
}
