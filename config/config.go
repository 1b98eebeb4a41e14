package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	PORT        string
	DB_URL      string
	JWT_SECRET  string
	CORS_ORIGIN string
	APP_ENV     string

	Payments PaymentsConfig
)

// PaymentsConfig holds provider credentials and the URLs PhonePe redirects to.
type PaymentsConfig struct {
	Currency    string `envconfig:"PAYMENT_CURRENCY" default:"INR"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
	BackendURL  string `envconfig:"BACKEND_URL" default:"http://localhost:8080"`

	RazorpayKeyID     string `envconfig:"RAZORPAY_KEY_ID" required:"true"`
	RazorpayKeySecret string `envconfig:"RAZORPAY_KEY_SECRET" required:"true"`

	PhonePeMerchantID string `envconfig:"PHONEPE_MERCHANT_ID" required:"true"`
	PhonePeSaltKey    string `envconfig:"PHONEPE_SALT_KEY" required:"true"`
	PhonePeSaltIndex  int    `envconfig:"PHONEPE_SALT_INDEX" default:"1"`
	PhonePeBaseURL    string `envconfig:"PHONEPE_BASE_URL" default:"https://api-preprod.phonepe.com/apis/pg-sandbox"`

	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"payments.exchange"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")
	CORS_ORIGIN = getEnv("CORS_ORIGIN", "http://localhost:5173")
	APP_ENV = getEnv("APP_ENV", "development")

	Payments, err = loadPayments()
	if err != nil {
		log.Fatalf("Invalid payment configuration: %v", err)
	}
}

func loadPayments() (PaymentsConfig, error) {
	var c PaymentsConfig
	err := envconfig.Process("", &c)
	return c, err
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
