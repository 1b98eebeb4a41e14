package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotesRoundTrip(t *testing.T) {
	details := []string{
		`{"pujaNameKey":"puja.ganesh","templeNameKey":"temple.siddhivinayak","date":"2026-12-01","numDevotees":3,"fullName":"Meera Iyer","phoneNumber":"9811111111","addOns":{"guideLanguage":"ta","pickup":false,"poojaItems":true,"notifications":true}}`,
		`{"address":"Flat 4, Shanti Niwas, Pune – 411001","fullName":"ज्योति"}`,
		`{}`,
	}

	for _, d := range details {
		in := Notes{Details: json.RawMessage(d), Type: TypeBooking}
		encoded, err := EncodeNotes(in)
		require.NoError(t, err)

		out, err := DecodeNotes(encoded)
		require.NoError(t, err)
		assert.Equal(t, in.Type, out.Type)
		assert.JSONEq(t, d, string(out.Details))
	}
}

func TestDecodeNotes_Invalid(t *testing.T) {
	_, err := DecodeNotes("%%%not-base64")
	assert.Error(t, err)

	_, err = DecodeNotes("bm90IGpzb24=") // "not json"
	assert.Error(t, err)
}

func TestParsePaymentType(t *testing.T) {
	typ, ok := ParsePaymentType("subscription")
	assert.True(t, ok)
	assert.Equal(t, TypeSubscription, typ)

	_, ok = ParsePaymentType("donation")
	assert.False(t, ok)
}
