package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mykeysuk/handyelite/internal/account"
	"github.com/mykeysuk/handyelite/internal/auth"
	"github.com/mykeysuk/handyelite/internal/booking"
	"github.com/mykeysuk/handyelite/internal/cache"
	"github.com/mykeysuk/handyelite/internal/catalog"
	"github.com/mykeysuk/handyelite/internal/config"
	"github.com/mykeysuk/handyelite/internal/contact"
	"github.com/mykeysuk/handyelite/internal/db"
	"github.com/mykeysuk/handyelite/internal/events"
	"github.com/mykeysuk/handyelite/internal/metrics"
	"github.com/mykeysuk/handyelite/internal/middleware"
	"github.com/mykeysuk/handyelite/internal/mirror"
	"github.com/mykeysuk/handyelite/internal/notifications"
	"github.com/mykeysuk/handyelite/internal/reviews"
	"github.com/mykeysuk/handyelite/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisClient, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		logger.Error("redis connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	var mirrorStore interface {
		booking.MirrorStore
		booking.Feed
	} = mirror.NewNoop()
	var otpStore *auth.OTPStore
	if redisClient != nil {
		cacheStore = cache.NewRedis(redisClient)
		mirrorStore = mirror.NewRedis(redisClient)
		otpStore = auth.NewOTPStore(redisClient, time.Duration(cfg.OTPCodeTTLSeconds)*time.Second, cfg.OTPMaxRequests)
		defer redisClient.Close()
	} else {
		logger.Info("redis not configured; mirror, cache and phone sign-in disabled")
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	jwtManager := &auth.Manager{
		Secret:    []byte(cfg.JWTSecret),
		AccessTTL: time.Duration(cfg.AccessTTLMinutes) * time.Minute,
		Issuer:    "handyelite",
	}

	mailer := notifications.NewBrevoClient(cfg.BrevoAPIKey, cfg.BrevoSenderEmail, cfg.BrevoSenderName, cfg.OperatorEmail, cfg.OperatorName, cfg.BrevoSandbox)
	if mailer == nil {
		logger.Info("brevo mailer disabled")
	} else {
		logger.Info("brevo mailer enabled", slog.String("operator", cfg.OperatorEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	}

	var publisher events.Publisher = events.NewNoop()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Error("kafka publisher setup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info("kafka publisher enabled", slog.String("topic", cfg.KafkaTopic))
	}

	m := metrics.New()
	val := validation.New()
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second

	accountRepo := account.NewRepository(cols.Users)
	var codes account.CodeStore
	if otpStore != nil {
		codes = otpStore
	}
	accountService := account.NewService(accountRepo, jwtManager, codes, m, cfg.Timezone, logger)
	accountHandler := account.NewHandler(accountService, val, logger, cfg.CookieSecure)

	bookingRepo := booking.NewRepository(cols.Bookings)
	var notifier booking.Notifier
	if mailer != nil {
		notifier = mailer
	}
	bookingService := booking.NewService(bookingRepo, mirrorStore, accountService, notifier, publisher, mirrorStore, m, cfg.Timezone, logger)
	bookingBroker := booking.NewBroker(bookingRepo, mirrorStore, mirrorStore, m, logger)
	bookingHandler := booking.NewHandler(bookingService, bookingBroker, val, logger)

	var contactNotifier contact.Notifier
	if mailer != nil {
		contactNotifier = mailer
	}
	contactHandler := contact.NewHandler(cols.ContactMessages, val, contactNotifier, cfg.Timezone, logger)
	reviewsHandler := reviews.NewHandler(cols.Reviews, val, cacheStore, cacheTTL, cfg.Timezone, logger)
	catalogHandler := catalog.NewHandler(cols.Services, cacheStore, cacheTTL, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	window := time.Duration(cfg.RateLimitWindowSec) * time.Second
	bookingsLimiter := middleware.NewRateLimiter(cfg.RateLimitBookings, window)
	contactLimiter := middleware.NewRateLimiter(cfg.RateLimitContact, window)
	reviewsLimiter := middleware.NewRateLimiter(cfg.RateLimitReviews, window)
	otpLimiter := middleware.NewRateLimiter(cfg.RateLimitOTP, window)

	userAuth := middleware.UserAuth(jwtManager)
	adminAuth := middleware.AdminAuth(cfg.AdminAPIKey, jwtManager)

	registerRoutes := func(api chi.Router) {
		api.Get("/services", catalogHandler.List)
		api.Get("/reviews", reviewsHandler.List)
		api.With(reviewsLimiter.Middleware).Post("/reviews", reviewsHandler.Create)
		api.With(contactLimiter.Middleware).Post("/contact", contactHandler.Create)

		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", accountHandler.Register)
			ar.Post("/login", accountHandler.Login)
			ar.Post("/logout", accountHandler.Logout)
			ar.With(otpLimiter.Middleware).Post("/phone/request", accountHandler.RequestPhoneCode)
			ar.With(otpLimiter.Middleware).Post("/phone/verify", accountHandler.VerifyPhoneCode)
		})

		api.Group(func(protected chi.Router) {
			protected.Use(userAuth)
			protected.Get("/me", accountHandler.Me)
			protected.Put("/me", accountHandler.UpdateMe)

			protected.With(bookingsLimiter.Middleware).Post("/bookings", bookingHandler.Create)
			protected.Get("/bookings", bookingHandler.List)
			protected.Get("/bookings/stream", bookingHandler.Stream)
			protected.Get("/bookings/history", bookingHandler.History)
			protected.Get("/bookings/history/stream", bookingHandler.StreamHistory)
			protected.Post("/bookings/history/{id}/toggle", bookingHandler.ToggleHistory)
			protected.Get("/bookings/{id}", bookingHandler.Get)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(adminAuth)
			admin.Get("/bookings", bookingHandler.AdminList)
			admin.Patch("/bookings/{id}/status", bookingHandler.AdminToggleStatus)
		})
	}

	r.Route("/api", registerRoutes)
	r.Route("/api/v1", registerRoutes)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}

func connectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" && cfg.RedisAddr == "" {
		return nil, nil
	}

	var client *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		client = redis.NewClient(opts)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	if cfg.RedisURL != "" {
		logger.Info("redis connected (url)")
	} else {
		logger.Info("redis connected", slog.String("addr", cfg.RedisAddr))
	}
	return client, nil
}
