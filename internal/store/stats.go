package store

import (
	"context"
	"fmt"
	"time"
)

type Stats struct {
	TotalVisitors      int64            `json:"total_visitors"`
	UniqueVisitors     int64            `json:"unique_visitors"`
	VisitorsToday      int64            `json:"visitors_today"`
	VisitorsThisWeek   int64            `json:"visitors_this_week"`
	TotalSubmissions   int64            `json:"total_submissions"`
	SubmissionsByState map[string]int64 `json:"submissions_by_state"`
	RecentVisitors     []Visitor        `json:"recent_visitors"`
	RecentSubmissions  []Submission     `json:"recent_submissions"`
}

const recentLimit = 10

// Stats aggregates dashboard figures. "Today" is the current UTC day.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	today := formatTime(now.Truncate(24 * time.Hour))
	week := formatTime(now.Add(-7 * 24 * time.Hour))

	stats := &Stats{SubmissionsByState: map[string]int64{}}

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{today}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{week}},
		{&stats.TotalSubmissions, `SELECT COUNT(*) FROM contact_submissions`, nil},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("store: stats: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM contact_submissions GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("store: stats by state: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var n int64
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("store: stats by state: %w", err)
		}
		stats.SubmissionsByState[state] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if stats.RecentVisitors, err = s.RecentVisitors(ctx, recentLimit); err != nil {
		return nil, err
	}
	if stats.RecentSubmissions, err = s.RecentSubmissions(ctx, recentLimit); err != nil {
		return nil, err
	}
	return stats, nil
}
