package phonepe

import "strings"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

// NormalizeResponseCode folds PhonePe's data.responseCode / code values
// into the three outcomes settlement cares about.
func NormalizeResponseCode(code string) Outcome {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "SUCCESS", "PAYMENT_SUCCESS":
		return OutcomeSuccess
	case "PAYMENT_PENDING", "PENDING", "INTERNAL_SERVER_ERROR":
		return OutcomePending
	default:
		return OutcomeFailed
	}
}
