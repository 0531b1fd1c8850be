package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Zachkp/portfolio/internal/contact"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type NotifierConfig struct {
	OwnerEmail string
	OwnerName  string
	// Site names the portfolio in subjects and footers.
	Site string
	// AutoReply sends the visitor a confirmation alongside the owner
	// notification.
	AutoReply bool
	Now       func() time.Time
}

// ContactNotifier turns an accepted contact submission into an owner
// notification and an optional confirmation to the visitor.
type ContactNotifier struct {
	mailer Mailer
	cfg    NotifierConfig
	log    *zap.Logger
}

func NewContactNotifier(m Mailer, cfg NotifierConfig, log *zap.Logger) (*ContactNotifier, error) {
	if m == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if cfg.OwnerEmail == "" {
		return nil, fmt.Errorf("owner email is required")
	}
	if cfg.Site == "" {
		cfg.Site = "portfolio"
	}
	if cfg.OwnerName == "" {
		cfg.OwnerName = cfg.Site
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactNotifier{mailer: m, cfg: cfg, log: log}, nil
}

type templateData struct {
	contact.Submission
	Site     string
	Owner    string
	Received string
}

// Dispatch sends both messages concurrently. The owner notification decides
// the result: its failure fails the dispatch, while a failed confirmation is
// only logged.
func (n *ContactNotifier) Dispatch(ctx context.Context, s contact.Submission) (string, error) {
	data := templateData{
		Submission: s,
		Site:       n.cfg.Site,
		Owner:      n.cfg.OwnerName,
		Received:   n.cfg.Now().UTC().Format("Jan 2, 2006 at 15:04 MST"),
	}

	notification, err := render("notification.html", data)
	if err != nil {
		return "", err
	}

	var g errgroup.Group
	var messageID string

	g.Go(func() error {
		id, err := n.mailer.Send(ctx, Message{
			To:          n.cfg.OwnerEmail,
			ToName:      n.cfg.OwnerName,
			Subject:     fmt.Sprintf("[%s] %s", n.cfg.Site, s.Subject),
			HTMLContent: notification,
			ReplyTo:     s.Email,
			ReplyToName: s.Name,
		})
		if err != nil {
			return fmt.Errorf("owner notification: %w", err)
		}
		messageID = id
		return nil
	})

	if n.cfg.AutoReply {
		g.Go(func() error {
			reply, err := render("autoreply.html", data)
			if err == nil {
				_, err = n.mailer.Send(ctx, Message{
					To:          s.Email,
					ToName:      s.Name,
					Subject:     "Thanks for reaching out",
					HTMLContent: reply,
					ReplyTo:     n.cfg.OwnerEmail,
					ReplyToName: n.cfg.OwnerName,
				})
			}
			if err != nil {
				n.log.Warn("auto-reply failed", zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}
	return messageID, nil
}

func render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
