package client

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const txnParam = "merchantTransactionId"

var ErrMissingTransaction = errors.New("Missing transaction id")

// TransactionIDFromURL finds the merchant transaction id on the PhonePe
// return URL. Hash routing puts the query inside the fragment, so the
// fragment is checked before the regular query.
func TransactionIDFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if _, q, ok := strings.Cut(u.Fragment, "?"); ok {
		if vals, err := url.ParseQuery(q); err == nil {
			if id := vals.Get(txnParam); id != "" {
				return id, nil
			}
		}
	}
	if id := u.Query().Get(txnParam); id != "" {
		return id, nil
	}
	return "", ErrMissingTransaction
}

// ConfirmPhonePeReturn runs on the status page after PhonePe sends the user
// back.
func (c *Checkout) ConfirmPhonePeReturn(ctx context.Context, returnURL string) (*PhonePeVerification, error) {
	txnID, err := TransactionIDFromURL(returnURL)
	if err != nil {
		c.notify.Error(ErrMissingTransaction.Error())
		return nil, err
	}
	c.state = StateProcessing

	res, err := c.api.VerifyPhonePePayment(ctx, txnID)
	if err != nil {
		return nil, c.fail(err)
	}
	if !res.Success {
		c.state = StateForm
		c.log.Info("phonepe payment declined", zap.String("merchant_transaction_id", txnID), zap.String("message", res.Message))
		msg := res.Message
		if msg == "" {
			msg = "Payment failed"
		}
		c.notify.Error(msg)
		return res, nil
	}

	c.state = StateDone
	if res.Message != "" {
		c.notify.Success(res.Message)
	} else {
		c.notify.Success("Payment successful!")
	}
	c.nav.Navigate(dashboardPath)
	return res, nil
}
