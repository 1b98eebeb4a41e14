package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPayments_Defaults(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_secret")
	t.Setenv("PHONEPE_MERCHANT_ID", "MERCHANTUAT")
	t.Setenv("PHONEPE_SALT_KEY", "salt")
	t.Setenv("RABBIT_URL", "")

	c, err := loadPayments()
	require.NoError(t, err)

	assert.Equal(t, "INR", c.Currency)
	assert.Equal(t, 1, c.PhonePeSaltIndex)
	assert.Equal(t, 30*time.Second, c.ProviderTimeout)
	assert.Equal(t, "payments.exchange", c.EventsExchange)
	assert.Empty(t, c.RabbitURL)
}

func TestLoadPayments_MissingSecret(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "")
	os.Unsetenv("RAZORPAY_KEY_SECRET")
	t.Setenv("PHONEPE_MERCHANT_ID", "MERCHANTUAT")
	t.Setenv("PHONEPE_SALT_KEY", "salt")

	_, err := loadPayments()
	assert.Error(t, err)
}

func TestGetEnv_Fallback(t *testing.T) {
	assert.Equal(t, "fallback", getEnv("TEMPLE_SERVICES_UNSET_KEY", "fallback"))
	t.Setenv("TEMPLE_SERVICES_SET_KEY", "value")
	assert.Equal(t, "value", getEnv("TEMPLE_SERVICES_SET_KEY", "fallback"))
}
