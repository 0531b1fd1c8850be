package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/email"
	"github.com/Zachkp/portfolio/internal/logging"
	"github.com/Zachkp/portfolio/internal/ratelimit"
	"github.com/Zachkp/portfolio/internal/server"
	"github.com/Zachkp/portfolio/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Server.Production(), cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.Server.DatabasePath, cfg.Server.IPHashSalt)
	if err != nil {
		return err
	}
	defer db.Close()

	limiterStore, closeStore, err := newLimiterStore(cfg.RateLimit)
	if err != nil {
		return err
	}
	defer closeStore()

	limiter, err := ratelimit.NewLimiter(limiterStore, ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	})
	if err != nil {
		return err
	}
	limiter.StartCleanup(ctx, cfg.RateLimit.CleanupInterval, logger.Named("ratelimit"))

	rules, err := contact.LoadRulesFile(cfg.Contact.RulesFile)
	if err != nil {
		return err
	}
	validator := contact.NewValidator(contact.ValidatorConfig{
		Rules:         rules,
		MinFillTime:   cfg.Contact.MinFillTime,
		MaxFormAge:    cfg.Contact.MaxFormAge,
		SpamThreshold: cfg.Contact.SpamThreshold,
	})

	notifier, err := newNotifier(cfg.Email, logger)
	if err != nil {
		return err
	}

	svc, err := contact.NewService(contact.ServiceConfig{
		Limiter:    limiter,
		Validator:  validator,
		Dispatcher: notifier,
		Recorder:   db,
		HashClient: db.HashIP,
		Logger:     logger.Named("contact"),
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Production:       cfg.Server.Production(),
		CORSAllowOrigin:  cfg.Server.CORSAllowOrigin,
		TrustedProxies:   cfg.Server.TrustedProxies,
		Admin:            cfg.Admin,
		VisitorRetention: cfg.Server.VisitorRetention,
	}, svc, db, logger)
	if err != nil {
		return err
	}

	logger.Info("starting portfolio",
		zap.String("env", cfg.Server.Env),
		zap.String("rate_limit_store", cfg.RateLimit.Store),
		zap.String("email_driver", cfg.Email.Driver),
		zap.Bool("admin", cfg.Admin.Enabled()))

	return srv.Run(ctx, ":"+strconv.Itoa(cfg.Server.Port))
}

func newLimiterStore(cfg config.RateLimitConfig) (ratelimit.Store, func(), error) {
	switch cfg.Store {
	case "cache":
		return ratelimit.NewCacheStore(cfg.CleanupInterval), func() {}, nil
	case "redis":
		rs, err := ratelimit.NewRedisStore(ratelimit.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		return rs, func() { rs.Close() }, nil
	default:
		return ratelimit.NewMemoryStore(), func() {}, nil
	}
}

func newNotifier(cfg config.EmailConfig, logger *zap.Logger) (*email.ContactNotifier, error) {
	mailer, err := email.New(cfg.Driver, email.MailerConfig{
		From:         cfg.From,
		FromName:     cfg.FromName,
		BrevoAPIKey:  cfg.BrevoAPIKey,
		ResendAPIKey: cfg.ResendAPIKey,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUser:     cfg.SMTPUser,
		SMTPPass:     cfg.SMTPPass,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
	}, logger.Named("email"))
	if err != nil {
		return nil, err
	}

	owner := cfg.OwnerEmail
	if owner == "" {
		// Only reachable with the log driver.
		owner = "owner@localhost"
	}
	return email.NewContactNotifier(mailer, email.NotifierConfig{
		OwnerEmail: owner,
		OwnerName:  cfg.OwnerName,
		Site:       cfg.FromName,
		AutoReply:  cfg.AutoReply,
	}, logger.Named("notifier"))
}
