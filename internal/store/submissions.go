package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Zachkp/portfolio/internal/contact"
)

// Submission is the stored outcome of one contact form run. Message bodies
// are never persisted.
type Submission struct {
	ID        string    `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	State     string    `json:"state"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	SpamScore int       `json:"spam_score"`
	MessageID string    `json:"message_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) RecordSubmission(ctx context.Context, r contact.Record) error {
	created := r.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_submissions
			(id, hashed_ip, state, name, email, subject, spam_score, message_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, s.HashIP(r.ClientID), string(r.State),
		r.Submission.Name, r.Submission.Email, r.Submission.Subject,
		r.SpamScore, r.MessageID, formatTime(created))
	if err != nil {
		return fmt.Errorf("store: record submission: %w", err)
	}
	return nil
}

func (s *Store) RecentSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, state, name, email, subject, spam_score, message_id, created_at
		FROM contact_submissions
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent submissions: %w", err)
	}
	defer rows.Close()

	subs := []Submission{}
	for rows.Next() {
		var sub Submission
		var created string
		if err := rows.Scan(&sub.ID, &sub.HashedIP, &sub.State, &sub.Name, &sub.Email,
			&sub.Subject, &sub.SpamScore, &sub.MessageID, &created); err != nil {
			return nil, fmt.Errorf("store: scan submission: %w", err)
		}
		if sub.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("store: submission %s created_at: %w", sub.ID, err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
