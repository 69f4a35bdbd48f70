package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/es"
	"github.com/Skotchmaster/marketplace/internal/handlers"
	"github.com/Skotchmaster/marketplace/internal/imagestore"
	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/mykafka"
	"github.com/Skotchmaster/marketplace/internal/notify"
	"github.com/Skotchmaster/marketplace/internal/payments"
	cartsvc "github.com/Skotchmaster/marketplace/internal/service/cart"
	messagesvc "github.com/Skotchmaster/marketplace/internal/service/message"
	ordersvc "github.com/Skotchmaster/marketplace/internal/service/order"
	reviewsvc "github.com/Skotchmaster/marketplace/internal/service/review"
	"github.com/Skotchmaster/marketplace/internal/service/token"
	httpserver "github.com/Skotchmaster/marketplace/internal/transport/http"
	requestlog "github.com/Skotchmaster/marketplace/pkg/middleware/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	prod, err := mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		log.Fatal(err)
	}

	var images *imagestore.Store
	if cfg.CLOUDINARY_URL != "" {
		images, err = imagestore.New(cfg.CLOUDINARY_URL, logger)
		if err != nil {
			log.Fatalf("cloudinary init: %v", err)
		}
	}

	stripeClient := payments.New(cfg.STRIPE_SECRET_KEY, cfg.CLIENT_URL)

	mailer := &notify.SMTPMailer{
		Host: cfg.SMTP_HOST,
		Port: cfg.SMTP_PORT,
		From: cfg.SMTP_FROM,
		User: cfg.SMTP_USER,
		Pass: cfg.SMTP_PASS,
	}
	sms := notify.NewSMSSender(
		cfg.TWILIO_ACCOUNT_SID,
		cfg.TWILIO_AUTH_TOKEN,
		cfg.TWILIO_FROM,
		cfg.DEFAULT_COUNTRY_CODE,
		cfg.SMS_ENABLED,
	)
	fanout := &notify.Fanout{DB: db, Mailer: mailer, SMS: sms, Events: prod, Log: logger}

	jwtSecret := []byte(cfg.JWT_SECRET)
	tokens := &token.Service{DB: db, JWTSecret: jwtSecret, RefreshSecret: []byte(cfg.REFRESH_SECRET)}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), requestlog.RequestLogger(logger))
	e.Validator = handlers.NewValidator()

	deps := httpserver.Deps{
		JWTSecret: jwtSecret,
		Auth:      &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod, Log: logger},
		Product:   &handlers.ProductHandler{DB: db, ES: esClient, Images: images, Producer: prod, Log: logger},
		Search:    handlers.NewSearchHandler(esClient, es.ProductIndex),
		Cart:      &handlers.CartHandler{Svc: &cartsvc.Service{DB: db, Log: logger}, Producer: prod, Log: logger},
		Order:     &handlers.OrderHandler{Svc: &ordersvc.Service{DB: db, Notifier: fanout, Log: logger}},
		Review:    &handlers.ReviewHandler{Svc: &reviewsvc.Service{DB: db, Log: logger}},
		Message:   &handlers.MessageHandler{Svc: &messagesvc.Service{DB: db, Log: logger}},
		Payment:   &handlers.PaymentHandler{Stripe: stripeClient},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
