package client

import (
	"context"
	"errors"
	"fmt"
	"math"

	"temple-services/internal/domain/billing"
	"temple-services/internal/domain/bookings"
	"temple-services/internal/domain/subscriptions"

	"go.uber.org/zap"
)

var ErrCheckoutDismissed = errors.New("Payment was cancelled")

type State int

const (
	StateForm State = iota
	StateProcessing
	StateRedirecting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateProcessing:
		return "processing"
	case StateRedirecting:
		return "redirecting"
	case StateDone:
		return "done"
	}
	return "form"
}

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type Navigator interface {
	// Navigate moves within the app.
	Navigate(path string)
	// Redirect leaves the app for an external page.
	Redirect(url string)
}

// RazorpayCheckout opens the provider's payment widget for order and blocks
// until the user pays or closes it.
type RazorpayCheckout interface {
	Open(ctx context.Context, order RazorpayOrder, amount int64) (RazorpayResult, error)
}

// Purchase is a filled-in booking or subscription form.
type Purchase struct {
	Type         billing.PaymentType
	TotalCost    float64
	Booking      *bookings.Input
	Subscription *subscriptions.Input
}

func (p Purchase) Validate() error {
	if math.IsNaN(p.TotalCost) || math.IsInf(p.TotalCost, 0) || p.TotalCost <= 0 {
		return errors.New("Total cost must be greater than zero")
	}
	switch p.Type {
	case billing.TypeBooking:
		if p.Booking == nil {
			return errors.New("Booking details are required")
		}
		return p.Booking.Validate()
	case billing.TypeSubscription:
		if p.Subscription == nil {
			return errors.New("Subscription details are required")
		}
		return p.Subscription.Validate()
	}
	return fmt.Errorf("unknown purchase type %q", p.Type)
}

func (p Purchase) details() any {
	if p.Type == billing.TypeBooking {
		return p.Booking
	}
	return p.Subscription
}

const dashboardPath = "/dashboard"

// Checkout drives one payment form. It is not safe for concurrent use.
type Checkout struct {
	api      *Client
	razorpay RazorpayCheckout
	notify   Notifier
	nav      Navigator
	log      *zap.Logger

	state State
}

func NewCheckout(api *Client, rz RazorpayCheckout, notify Notifier, nav Navigator, log *zap.Logger) *Checkout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Checkout{api: api, razorpay: rz, notify: notify, nav: nav, log: log}
}

func (c *Checkout) State() State { return c.state }

func (c *Checkout) fail(err error) error {
	c.state = StateForm
	c.log.Warn("checkout failed", zap.Error(err))
	c.notify.Error(ErrorMessage(err))
	return err
}

// PayWithRazorpay runs the in-page flow and saves the record once the
// server has verified the signature.
func (c *Checkout) PayWithRazorpay(ctx context.Context, p Purchase) error {
	if err := p.Validate(); err != nil {
		c.notify.Error(err.Error())
		return err
	}
	c.state = StateProcessing

	paise := int64(math.Round(p.TotalCost * 100))
	order, err := c.api.CreateRazorpayOrder(ctx, paise)
	if err != nil {
		return c.fail(err)
	}

	res, err := c.razorpay.Open(ctx, *order, paise)
	if err != nil {
		return c.fail(err)
	}

	if err := c.api.VerifyRazorpayPayment(ctx, res); err != nil {
		return c.fail(err)
	}

	price := int64(math.Round(p.TotalCost))
	switch p.Type {
	case billing.TypeBooking:
		in := *p.Booking
		in.Price = price
		_, err = c.api.CreateBooking(ctx, BookingRequest{ID: res.PaymentID, Input: in})
	case billing.TypeSubscription:
		in := *p.Subscription
		in.Price = price
		_, err = c.api.CreateSubscription(ctx, SubscriptionRequest{ID: res.PaymentID, Input: in})
	}
	if err != nil {
		return c.fail(err)
	}

	c.state = StateDone
	c.notify.Success(successMessage(p.Type))
	c.nav.Navigate(dashboardPath)
	return nil
}

// PayWithPhonePe creates the order and hands the browser to PhonePe. The
// record is written later by the status page or the server callback.
func (c *Checkout) PayWithPhonePe(ctx context.Context, p Purchase) error {
	if err := p.Validate(); err != nil {
		c.notify.Error(err.Error())
		return err
	}
	c.state = StateProcessing

	order, err := c.api.CreatePhonePeOrder(ctx, p.TotalCost, p.details(), string(p.Type))
	if err != nil {
		return c.fail(err)
	}

	c.state = StateRedirecting
	c.log.Info("redirecting to PhonePe", zap.String("merchant_transaction_id", order.MerchantTransactionID))
	c.nav.Redirect(order.RedirectURL)
	return nil
}

func successMessage(t billing.PaymentType) string {
	if t == billing.TypeSubscription {
		return "Subscription activated successfully!"
	}
	return "Booking confirmed successfully!"
}
