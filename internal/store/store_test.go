package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Zachkp/portfolio/internal/contact"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func openTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
	s, err := Open(filepath.Join(t.TempDir(), "nested", "portfolio.db"), "pepper", WithClock(c.now))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, c
}

func TestHashIP(t *testing.T) {
	s, _ := openTestStore(t)

	h := s.HashIP("203.0.113.7")
	if len(h) != 16 {
		t.Errorf("expected 16 hex characters, got %q", h)
	}
	if h != s.HashIP("203.0.113.7") {
		t.Errorf("expected stable hash")
	}
	if h == s.HashIP("203.0.113.8") {
		t.Errorf("expected different addresses to hash differently")
	}

	other, err := Open(filepath.Join(t.TempDir(), "other.db"), "salt")
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	if h == other.HashIP("203.0.113.7") {
		t.Errorf("expected salt to change the hash")
	}
}

func TestOpen_Reopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.db")
	s, err := Open(path, "pepper")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RecordVisit(context.Background(), "198.51.100.1", "curl", "/"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path, "pepper")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	visitors, err := s.RecentVisitors(context.Background(), 10)
	if err != nil || len(visitors) != 1 {
		t.Errorf("expected persisted visitor, got %v, %v", visitors, err)
	}
}

func TestRecordVisit_StoresOnlyHashedIP(t *testing.T) {
	s, c := openTestStore(t)
	ctx := context.Background()

	s.RecordVisit(ctx, "198.51.100.1", "Mozilla/5.0", "/")
	c.advance(time.Minute)
	s.RecordVisit(ctx, "198.51.100.2", "curl/8.0", "/api/projects")

	visitors, err := s.RecentVisitors(ctx, 10)
	if err != nil {
		t.Fatalf("RecentVisitors() error: %v", err)
	}
	if len(visitors) != 2 {
		t.Fatalf("expected 2 visitors, got %d", len(visitors))
	}
	latest := visitors[0]
	if latest.Path != "/api/projects" || latest.UserAgent != "curl/8.0" {
		t.Errorf("expected newest first, got %+v", latest)
	}
	if latest.HashedIP != s.HashIP("198.51.100.2") {
		t.Errorf("expected hashed address, got %q", latest.HashedIP)
	}
	if !latest.Timestamp.Equal(c.t) {
		t.Errorf("expected timestamp %s, got %s", c.t, latest.Timestamp)
	}

	if limited, _ := s.RecentVisitors(ctx, 1); len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestRecordSubmission(t *testing.T) {
	s, c := openTestStore(t)
	ctx := context.Background()

	sent := contact.Record{
		ID:       "0b6f4c1e-8d6e-4c38-9d3c-6f1d2b7f1a10",
		ClientID: "203.0.113.1",
		State:    contact.StateSent,
		Submission: contact.Submission{
			Name:    "Ada Lovelace",
			Email:   "ada@example.com",
			Subject: "Engines",
			Message: "never stored",
		},
		MessageID: "<msg@relay>",
		CreatedAt: c.t,
	}
	limited := contact.Record{
		ID:        "5a1c1f0e-3a27-4f7e-a1f5-0f3b4a9e2c55",
		ClientID:  "203.0.113.1",
		State:     contact.StateRateLimited,
		CreatedAt: c.t.Add(time.Second),
	}
	for _, r := range []contact.Record{sent, limited} {
		if err := s.RecordSubmission(ctx, r); err != nil {
			t.Fatalf("RecordSubmission() error: %v", err)
		}
	}

	subs, err := s.RecentSubmissions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentSubmissions() error: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	if subs[0].State != string(contact.StateRateLimited) || subs[0].Name != "" {
		t.Errorf("expected empty rate limited record first, got %+v", subs[0])
	}
	got := subs[1]
	if got.Email != "ada@example.com" || got.MessageID != "<msg@relay>" || got.HashedIP != s.HashIP("203.0.113.1") {
		t.Errorf("unexpected sent record %+v", got)
	}
}

func TestStats(t *testing.T) {
	s, c := openTestStore(t)
	ctx := context.Background()

	// Eight days ago, yesterday, and twice today from the same client.
	c.advance(-8 * 24 * time.Hour)
	s.RecordVisit(ctx, "198.51.100.1", "a", "/")
	c.advance(7 * 24 * time.Hour)
	s.RecordVisit(ctx, "198.51.100.2", "b", "/")
	c.advance(24 * time.Hour)
	s.RecordVisit(ctx, "198.51.100.3", "c", "/")
	s.RecordVisit(ctx, "198.51.100.3", "c", "/api/profile")

	for i, state := range []contact.State{contact.StateSent, contact.StateInvalid, contact.StateInvalid} {
		s.RecordSubmission(ctx, contact.Record{ID: string(rune('a' + i)), ClientID: "x", State: state, CreatedAt: c.t})
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalVisitors != 4 || stats.UniqueVisitors != 3 {
		t.Errorf("expected 4 visits from 3 clients, got %d/%d", stats.TotalVisitors, stats.UniqueVisitors)
	}
	if stats.VisitorsToday != 2 {
		t.Errorf("expected 2 visits today, got %d", stats.VisitorsToday)
	}
	if stats.VisitorsThisWeek != 3 {
		t.Errorf("expected 3 visits this week, got %d", stats.VisitorsThisWeek)
	}
	if stats.TotalSubmissions != 3 || stats.SubmissionsByState["invalid"] != 2 || stats.SubmissionsByState["sent"] != 1 {
		t.Errorf("unexpected submission stats %+v", stats.SubmissionsByState)
	}
	if len(stats.RecentVisitors) != 4 || len(stats.RecentSubmissions) != 3 {
		t.Errorf("expected recent lists to be filled")
	}
}

func TestCleanupVisitors(t *testing.T) {
	s, c := openTestStore(t)
	ctx := context.Background()

	s.RecordVisit(ctx, "198.51.100.1", "old", "/")
	s.RecordSubmission(ctx, contact.Record{ID: "old", ClientID: "x", State: contact.StateSent, CreatedAt: c.t})
	c.advance(400 * 24 * time.Hour)
	s.RecordVisit(ctx, "198.51.100.1", "new", "/")

	removed, err := s.CleanupVisitors(ctx, 365*24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupVisitors() error: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 rows removed, got %d", removed)
	}
	visitors, _ := s.RecentVisitors(ctx, 10)
	if len(visitors) != 1 || visitors[0].UserAgent != "new" {
		t.Errorf("expected only the recent visit to remain, got %+v", visitors)
	}
}
