package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"temple-services/config"
	"temple-services/database"
	routes "temple-services/internal/app/http"
	"temple-services/internal/infra/logger"
	"temple-services/internal/infra/mq"
	"temple-services/internal/infra/phonepe"
	"temple-services/internal/infra/razorpay"
	"temple-services/internal/infra/tracing"
	"temple-services/internal/payments"
	"temple-services/internal/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	log := logger.New(config.APP_ENV)
	defer func() { _ = log.Sync() }()

	if config.APP_ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.Init(ctx, "temple-services", config.Payments.OTLPEndpoint, config.APP_ENV)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	if err := database.InitDB(config.DB_URL, log); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	var publisher payments.Publisher
	if config.Payments.RabbitURL != "" {
		p, err := mq.NewPublisher(config.Payments.RabbitURL, config.Payments.EventsExchange)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer p.Close()
		publisher = p
	}

	pc := config.Payments
	svc := payments.NewService(
		repository.New(database.DB),
		razorpay.New(pc.RazorpayKeyID, pc.RazorpayKeySecret, pc.Currency),
		phonepe.New(phonepe.Config{
			BaseURL:    pc.PhonePeBaseURL,
			MerchantID: pc.PhonePeMerchantID,
			SaltKey:    pc.PhonePeSaltKey,
			SaltIndex:  pc.PhonePeSaltIndex,
			Timeout:    pc.ProviderTimeout,
		}),
		publisher,
		payments.Options{FrontendURL: pc.FrontendURL, BackendURL: pc.BackendURL},
		log,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Store:    repository.New(database.DB),
		Payments: svc,
		Log:      log,
	})

	srv := &http.Server{
		Addr:              ":" + config.PORT,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
