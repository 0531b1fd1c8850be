package email

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

type brevoMailer struct {
	client   *retryablehttp.Client
	baseURL  string
	apiKey   string
	from     string
	fromName string
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	ReplyTo     *brevoContact  `json:"replyTo,omitempty"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

func (m *brevoMailer) Send(ctx context.Context, msg Message) (string, error) {
	payload := brevoRequest{
		Sender:      brevoContact{Email: m.from, Name: m.fromName},
		To:          []brevoContact{{Email: msg.To, Name: msg.ToName}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTMLContent,
	}
	if msg.ReplyTo != "" {
		payload.ReplyTo = &brevoContact{Email: msg.ReplyTo, Name: msg.ReplyToName}
	}

	header := http.Header{}
	header.Set("api-key", m.apiKey)

	var out struct {
		MessageID string `json:"messageId"`
	}
	if err := postJSON(ctx, m.client, "brevo", m.baseURL+"/v3/smtp/email", header, payload, &out, brevoError); err != nil {
		return "", err
	}
	return out.MessageID, nil
}

func brevoError(body []byte) string {
	var e struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Message
}
