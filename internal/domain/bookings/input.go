package bookings

import (
	"errors"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Input is the devotee-supplied part of a booking. It travels in the
// PhonePe order details and in the body of POST /bookings.
type Input struct {
	PujaNameKey    string  `json:"pujaNameKey"`
	TempleNameKey  string  `json:"templeNameKey"`
	Date           string  `json:"date"`
	Price          int64   `json:"price"`
	IsEPuja        bool    `json:"isEPuja"`
	LiveStreamLink *string `json:"liveStreamLink,omitempty"`
	NumDevotees    int     `json:"numDevotees"`
	FullName       string  `json:"fullName"`
	PhoneNumber    string  `json:"phoneNumber"`
	AddOns         *AddOns `json:"addOns,omitempty"`
}

func (in Input) Validate() error {
	switch {
	case strings.TrimSpace(in.PujaNameKey) == "":
		return errors.New("pujaNameKey is required")
	case strings.TrimSpace(in.TempleNameKey) == "":
		return errors.New("templeNameKey is required")
	case strings.TrimSpace(in.FullName) == "":
		return errors.New("fullName is required")
	case strings.TrimSpace(in.PhoneNumber) == "":
		return errors.New("phoneNumber is required")
	case in.NumDevotees < 1:
		return errors.New("numDevotees must be at least 1")
	case in.Price < 0:
		return errors.New("price cannot be negative")
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		return errors.New("date must be formatted as YYYY-MM-DD")
	}
	return nil
}

// Booking builds a confirmed booking keyed by the provider transaction id.
func (in Input) Booking(id, userID, userEmail string) *Booking {
	return &Booking{
		ID:             id,
		UserID:         userID,
		UserEmail:      userEmail,
		PujaNameKey:    in.PujaNameKey,
		TempleNameKey:  in.TempleNameKey,
		Date:           in.Date,
		Status:         StatusConfirmed,
		Price:          in.Price,
		IsEPuja:        in.IsEPuja,
		LiveStreamLink: in.LiveStreamLink,
		NumDevotees:    in.NumDevotees,
		FullName:       in.FullName,
		PhoneNumber:    in.PhoneNumber,
		AddOns:         in.AddOns,
	}
}
