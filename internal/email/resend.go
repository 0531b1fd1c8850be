package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"

	"github.com/hashicorp/go-retryablehttp"
)

type resendMailer struct {
	client   *retryablehttp.Client
	baseURL  string
	apiKey   string
	from     string
	fromName string
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *resendMailer) Send(ctx context.Context, msg Message) (string, error) {
	payload := resendRequest{
		From:    address(m.fromName, m.from),
		To:      []string{address(msg.ToName, msg.To)},
		Subject: msg.Subject,
		HTML:    msg.HTMLContent,
	}
	if msg.ReplyTo != "" {
		payload.ReplyTo = address(msg.ReplyToName, msg.ReplyTo)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+m.apiKey)

	var out struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, m.client, "resend", m.baseURL+"/emails", header, payload, &out, resendError); err != nil {
		return "", err
	}
	return out.ID, nil
}

func resendError(body []byte) string {
	var e struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Message
}

// address formats a display-name address, quoting the name when needed.
func address(name, addr string) string {
	if name == "" {
		return addr
	}
	return (&mail.Address{Name: name, Address: addr}).String()
}
