package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/ratelimit"
)

const (
	msgSent         = "Thank you for your message! I'll get back to you soon."
	msgRateLimited  = "Too many requests. Please try again later."
	msgDispatchFail = "Sorry, there was an error sending your message. Please try again later."

	resetFormat = "2006-01-02T15:04:05.000Z"

	// maxContactBody comfortably fits every field at its maximum length.
	maxContactBody = 64 << 10
)

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	// Website is the honeypot field. Humans never see it. It is decoded raw
	// so a non-string value still trips the trap instead of failing binding.
	Website json.RawMessage `json:"website"`
	// Timestamp is when the form was rendered, in epoch milliseconds.
	Timestamp *float64 `json:"timestamp"`
}

func (r contactRequest) input() contact.Input {
	in := contact.Input{
		Name:     r.Name,
		Email:    r.Email,
		Subject:  r.Subject,
		Message:  r.Message,
		Honeypot: honeypotValue(r.Website),
	}
	if r.Timestamp != nil {
		ts := time.UnixMilli(int64(*r.Timestamp))
		in.Timestamp = &ts
	}
	return in
}

func honeypotValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v string
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}

func (s *Server) submitContact(c *gin.Context) {
	s.setCORS(c)

	clientID := ratelimit.ClientIdentifier(c.Request.Header)
	out := s.contact.Submit(c.Request.Context(), clientID, func() (contact.Input, error) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxContactBody)
		var req contactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return contact.Input{}, err
		}
		return req.input(), nil
	})

	if out.RateLimit != nil {
		setRateLimitHeaders(c, *out.RateLimit)
	}

	switch out.State {
	case contact.StateSent, contact.StateBotDetected:
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   msgSent,
			"messageId": out.MessageID,
		})
	case contact.StateRateLimited:
		c.Header("Retry-After", strconv.Itoa(out.RetryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"success":    false,
			"error":      msgRateLimited,
			"retryAfter": out.RetryAfter,
		})
	case contact.StateMalformed, contact.StateInvalid:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   strings.Join(out.Errors, ". "),
		})
	default:
		body := gin.H{
			"success": false,
			"error":   msgDispatchFail,
		}
		if out.Details != "" {
			body["details"] = out.Details
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func (s *Server) contactPreflight(c *gin.Context) {
	s.setCORS(c)
	c.Header("Access-Control-Max-Age", "86400")
	c.Status(http.StatusOK)
}

func (s *Server) setCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", s.cfg.CORSAllowOrigin)
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
}

func setRateLimitHeaders(c *gin.Context, r ratelimit.Result) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(r.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(r.Remaining))
	c.Header("X-RateLimit-Reset", r.ResetTime.UTC().Format(resetFormat))
}
