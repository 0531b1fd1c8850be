package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/ratelimit"
)

// State is the terminal state of one pipeline run.
type State string

const (
	StateSent           State = "sent"
	StateRateLimited    State = "rate_limited"
	StateMalformed      State = "malformed"
	StateBotDetected    State = "bot_detected"
	StateInvalid        State = "invalid"
	StateDispatchFailed State = "dispatch_failed"
)

const MsgMalformed = "Invalid request body"

type RateLimiter interface {
	Check(ctx context.Context, identifier string) (ratelimit.Result, error)
	Now() time.Time
}

// Dispatcher hands a clean submission to the email provider and returns the
// provider's message id.
type Dispatcher interface {
	Dispatch(ctx context.Context, s Submission) (string, error)
}

// Recorder stores one row per pipeline run for the admin dashboard.
type Recorder interface {
	RecordSubmission(ctx context.Context, r Record) error
}

type Record struct {
	ID         string
	ClientID   string
	State      State
	Submission Submission
	SpamScore  int
	MessageID  string
	CreatedAt  time.Time
}

// Outcome tells the transport layer how to answer.
type Outcome struct {
	State State
	// RateLimit is nil when the limiter could not be consulted.
	RateLimit  *ratelimit.Result
	RetryAfter int
	Errors     []string
	MessageID  string
	// Details carries the provider's own error message, if it sent one.
	Details string
}

// detailer is implemented by dispatch errors that carry a provider message.
type detailer interface {
	Details() string
}

type ServiceConfig struct {
	Limiter    RateLimiter
	Validator  *Validator
	Dispatcher Dispatcher
	Recorder   Recorder
	// HashClient anonymises client identifiers before they reach the logs.
	HashClient func(string) string
	Logger     *zap.Logger
}

type Service struct {
	limiter    RateLimiter
	validator  *Validator
	dispatcher Dispatcher
	recorder   Recorder
	hashClient func(string) string
	log        *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Limiter == nil {
		return nil, fmt.Errorf("limiter is required")
	}
	if cfg.Validator == nil {
		return nil, fmt.Errorf("validator is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	s := &Service{
		limiter:    cfg.Limiter,
		validator:  cfg.Validator,
		dispatcher: cfg.Dispatcher,
		recorder:   cfg.Recorder,
		hashClient: cfg.HashClient,
		log:        cfg.Logger,
	}
	if s.hashClient == nil {
		s.hashClient = func(id string) string { return id }
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s, nil
}

// Submit runs one submission through the pipeline. decode is called only after
// the client has passed the rate limiter, so malformed bodies still count
// against the quota.
func (s *Service) Submit(ctx context.Context, clientID string, decode func() (Input, error)) Outcome {
	log := s.log.With(zap.String("client", s.hashClient(clientID)))

	var out Outcome
	limit, err := s.limiter.Check(ctx, clientID)
	if err != nil {
		// Fail open: throttling is a deterrent and must not take the form down.
		log.Error("rate limiter unavailable", zap.Error(err))
	} else {
		out.RateLimit = &limit
		if !limit.Allowed {
			out.State = StateRateLimited
			out.RetryAfter = limit.RetryAfter(s.limiter.Now())
			log.Info("contact submission rate limited", zap.Int("retry_after", out.RetryAfter))
			s.record(ctx, log, clientID, out, Result{})
			return out
		}
	}

	in, err := decode()
	if err != nil {
		out.State = StateMalformed
		out.Errors = []string{MsgMalformed}
		log.Info("malformed contact submission", zap.Error(err))
		s.record(ctx, log, clientID, out, Result{})
		return out
	}

	res := s.validator.Validate(in)
	switch {
	case res.Bot:
		// Answer exactly like a success so the bot learns nothing.
		out.State = StateBotDetected
		out.MessageID = uuid.NewString()
		log.Warn("honeypot triggered")
		s.record(ctx, log, clientID, out, res)
		return out
	case !res.Valid:
		out.State = StateInvalid
		out.Errors = res.Errors
		log.Info("contact submission rejected",
			zap.Strings("errors", res.Errors),
			zap.Int("spam_score", res.SpamScore))
		s.record(ctx, log, clientID, out, res)
		return out
	}

	id, err := s.dispatcher.Dispatch(ctx, res.Sanitized)
	if err != nil {
		out.State = StateDispatchFailed
		var d detailer
		if errors.As(err, &d) {
			out.Details = d.Details()
		}
		log.Error("contact email dispatch failed", zap.Error(err))
		s.record(ctx, log, clientID, out, res)
		return out
	}

	out.State = StateSent
	out.MessageID = id
	log.Info("contact submission sent", zap.String("message_id", id))
	s.record(ctx, log, clientID, out, res)
	return out
}

func (s *Service) record(ctx context.Context, log *zap.Logger, clientID string, out Outcome, res Result) {
	if s.recorder == nil {
		return
	}
	r := Record{
		ID:         uuid.NewString(),
		ClientID:   clientID,
		State:      out.State,
		Submission: res.Sanitized,
		SpamScore:  res.SpamScore,
		CreatedAt:  time.Now().UTC(),
	}
	if out.State == StateSent {
		r.MessageID = out.MessageID
	}
	if err := s.recorder.RecordSubmission(ctx, r); err != nil {
		log.Warn("recording contact submission failed", zap.Error(err))
	}
}
