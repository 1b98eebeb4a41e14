package billing

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Notes is attached to a PhonePe order so the provider-side record carries
// what was bought.
type Notes struct {
	Details json.RawMessage `json:"details"`
	Type    PaymentType     `json:"type"`
}

func EncodeNotes(n Notes) (string, error) {
	raw, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("marshal notes: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func DecodeNotes(s string) (Notes, error) {
	var n Notes
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return n, fmt.Errorf("decode notes: %w", err)
	}
	if err := json.Unmarshal(raw, &n); err != nil {
		return n, fmt.Errorf("unmarshal notes: %w", err)
	}
	return n, nil
}
