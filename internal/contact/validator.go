// Package contact classifies contact form submissions and runs them through
// rate limiting, validation and email hand-off.
package contact

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Messages returned to the visitor. MsgInvalidSubmission is only ever produced
// by the honeypot check.
const (
	MsgInvalidSubmission = "Invalid submission"
	MsgSpam              = "Message appears to be spam"
	MsgDisposableEmail   = "Disposable email addresses are not allowed"
	MsgTooFast           = "Form submitted too quickly. Please try again"
	MsgExpired           = "Form session expired. Please refresh the page and try again"
)

// Field bounds, counted in characters after trimming.
const (
	NameMin     = 2
	NameMax     = 100
	EmailMax    = 255
	SubjectMin  = 3
	SubjectMax  = 200
	MessageMin  = 10
	MessageMax  = 5000
	defaultSpam = 3
)

var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z\x{00C0}-\x{024F}\s'.\-]+$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Input is one raw submission. Timestamp is when the client rendered the form;
// nil skips the timing check.
type Input struct {
	Name      string
	Email     string
	Subject   string
	Message   string
	Honeypot  string
	Timestamp *time.Time
}

// Submission holds trimmed, length-capped field values.
type Submission struct {
	Name    string
	Email   string
	Subject string
	Message string
}

type Result struct {
	Valid     bool
	Errors    []string
	Sanitized Submission
	// Bot is set when the honeypot field was filled in.
	Bot       bool
	SpamScore int
}

type ValidatorConfig struct {
	Rules         Rules
	MinFillTime   time.Duration
	MaxFormAge    time.Duration
	SpamThreshold int
	Now           func() time.Time
}

type Validator struct {
	rules         compiledRules
	minFillTime   time.Duration
	maxFormAge    time.Duration
	spamThreshold int
	now           func() time.Time
}

// NewValidator fills zero config values with the defaults: 2s minimum fill
// time, 24h maximum form age and a spam threshold of 3.
func NewValidator(cfg ValidatorConfig) *Validator {
	v := &Validator{
		rules:         compileRules(cfg.Rules),
		minFillTime:   cfg.MinFillTime,
		maxFormAge:    cfg.MaxFormAge,
		spamThreshold: cfg.SpamThreshold,
		now:           cfg.Now,
	}
	if v.minFillTime <= 0 {
		v.minFillTime = 2 * time.Second
	}
	if v.maxFormAge <= 0 {
		v.maxFormAge = 24 * time.Hour
	}
	if v.spamThreshold <= 0 {
		v.spamThreshold = defaultSpam
	}
	if v.now == nil {
		v.now = time.Now
	}
	return v
}

// Validate runs every check and collects all failures in check order: name,
// email, subject, message, timing. A filled honeypot short-circuits.
func (v *Validator) Validate(in Input) Result {
	if strings.TrimSpace(in.Honeypot) != "" {
		return Result{Errors: []string{MsgInvalidSubmission}, Bot: true}
	}

	var errs []string
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	subject := strings.TrimSpace(in.Subject)
	message := strings.TrimSpace(in.Message)

	errs = append(errs, lengthErrors("Name", name, NameMin, NameMax)...)
	if name != "" && !nameRe.MatchString(name) {
		errs = append(errs, "Name contains invalid characters")
	}

	if !emailRe.MatchString(email) {
		errs = append(errs, "Please provide a valid email address")
	} else if v.disposable(email) {
		errs = append(errs, MsgDisposableEmail)
	}
	if utf8.RuneCountInString(email) > EmailMax {
		errs = append(errs, "Email address is too long")
	}

	errs = append(errs, lengthErrors("Subject", subject, SubjectMin, SubjectMax)...)

	errs = append(errs, lengthErrors("Message", message, MessageMin, MessageMax)...)
	score := v.SpamScore(message)
	if score >= v.spamThreshold {
		errs = append(errs, MsgSpam)
	}

	if in.Timestamp != nil {
		elapsed := v.now().Sub(*in.Timestamp)
		switch {
		case elapsed < v.minFillTime:
			errs = append(errs, MsgTooFast)
		case elapsed > v.maxFormAge:
			errs = append(errs, MsgExpired)
		}
	}

	return Result{
		Valid:     len(errs) == 0,
		Errors:    errs,
		Sanitized: Sanitize(Submission{Name: name, Email: email, Subject: subject, Message: message}),
		SpamScore: score,
	}
}

func (v *Validator) disposable(email string) bool {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	_, found := v.rules.disposable[email[at+1:]]
	return found
}

func lengthErrors(field, value string, min, max int) []string {
	n := utf8.RuneCountInString(value)
	switch {
	case n < min:
		return []string{fmt.Sprintf("%s must be at least %d characters", field, min)}
	case n > max:
		return []string{fmt.Sprintf("%s must be at most %d characters", field, max)}
	}
	return nil
}

// Sanitize trims every field and caps it at its maximum length. The email is
// lowercased. Applying it twice gives the same result as once.
func Sanitize(s Submission) Submission {
	return Submission{
		Name:    clip(s.Name, NameMax),
		Email:   clip(strings.ToLower(s.Email), EmailMax),
		Subject: clip(s.Subject, SubjectMax),
		Message: clip(s.Message, MessageMax),
	}
}

func clip(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}
