// Package server exposes the portfolio API, the contact endpoint and the
// admin dashboard API over gin.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/logging"
	"github.com/Zachkp/portfolio/internal/ratelimit"
	"github.com/Zachkp/portfolio/internal/store"
)

// Store is the persistence the server needs for visitor tracking and the
// admin dashboard.
type Store interface {
	HashIP(ip string) string
	RecordVisit(ctx context.Context, ip, userAgent, path string) error
	Stats(ctx context.Context) (*store.Stats, error)
	RecentVisitors(ctx context.Context, limit int) ([]store.Visitor, error)
	RecentSubmissions(ctx context.Context, limit int) ([]store.Submission, error)
	CleanupVisitors(ctx context.Context, retention time.Duration) (int64, error)
}

type Submitter interface {
	Submit(ctx context.Context, clientID string, decode func() (contact.Input, error)) contact.Outcome
}

type Config struct {
	Production      bool
	CORSAllowOrigin string
	// TrustedProxies lists the proxies allowed to set X-Forwarded-For. Empty
	// means c.ClientIP() is always the socket peer.
	TrustedProxies   []string
	Admin            config.AdminConfig
	VisitorRetention time.Duration
}

type Server struct {
	cfg     Config
	contact Submitter
	store   Store
	log     *zap.Logger
	engine  *gin.Engine

	adminToken   string
	loginLimiter *ratelimit.Limiter

	// tracking counts in-flight visitor writes.
	tracking sync.WaitGroup
}

const (
	loginAttempts = 10
	loginWindow   = 15 * time.Minute
)

func New(cfg Config, submitter Submitter, st Store, log *zap.Logger) (*Server, error) {
	if submitter == nil {
		return nil, fmt.Errorf("contact submitter is required")
	}
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.CORSAllowOrigin == "" {
		cfg.CORSAllowOrigin = "*"
	}
	if cfg.VisitorRetention <= 0 {
		cfg.VisitorRetention = 365 * 24 * time.Hour
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("admin token: %w", err)
	}
	loginLimiter, err := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), ratelimit.Config{
		MaxRequests: loginAttempts,
		Window:      loginWindow,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:          cfg,
		contact:      submitter,
		store:        st,
		log:          log,
		adminToken:   token,
		loginLimiter: loginLimiter,
	}
	s.engine, err = s.routes()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(s.cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(logging.GinLogger(s.log, s.store.HashIP))
	r.Use(s.trackVisitors())

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/profile", s.profile)
		api.GET("/projects", s.projects)
		api.GET("/projects/:slug", s.project)
		api.POST("/contact", s.submitContact)
		api.OPTIONS("/contact", s.contactPreflight)
	}

	if s.cfg.Admin.Enabled() {
		s.adminRoutes(r)
	} else {
		s.log.Info("admin area disabled, set ADMIN_PASSWORD or ADMIN_PASSWORD_HASH to enable it")
	}
	return r, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// and pending visitor writes.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.loginLimiter.StartCleanup(ctx, loginWindow, s.log)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.tracking.Wait()
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
