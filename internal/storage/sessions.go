package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateSession records a new collection run and returns its ID.
// Sessions are immutable once created.
func (s *Store) CreateSession(keyword, note string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO sessions (created_at, keyword, note) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), keyword, note,
	)
	if err != nil {
		return 0, mapBusy(err)
	}
	return res.LastInsertId()
}

// GetSession returns one session by ID.
func (s *Store) GetSession(id int64) (Session, error) {
	var sess Session
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, created_at, keyword, note FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &createdAt, &sess.Keyword, &sess.Note)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Session{}, fmt.Errorf("parsing created_at: %w", err)
	}
	sess.CreatedAt = t
	return sess, nil
}

// ListSessions returns sessions newest first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, created_at, keyword, note FROM sessions ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var createdAt string
		if err := rows.Scan(&sess.ID, &createdAt, &sess.Keyword, &sess.Note); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		sess.CreatedAt = t
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// LatestSessionID returns the most recently created session's ID,
// or ErrNotFound when the store is empty.
func (s *Store) LatestSessionID() (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM sessions ORDER BY id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return id, err
}

// SessionStats counts rows in every table for one session, plus the
// contact-type breakdown across all three contact tables.
func (s *Store) SessionStats(sessionID int64) (SessionStats, error) {
	var stats SessionStats
	counts := []struct {
		table string
		dst   *int64
	}{
		{"videos", &stats.Videos},
		{"channels", &stats.Channels},
		{"comments", &stats.Comments},
		{"video_contacts", &stats.VideoContacts},
		{"channel_contacts", &stats.ChannelContacts},
		{"comment_contacts", &stats.CommentContacts},
	}
	for _, c := range counts {
		q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE session_id = ?", c.table)
		if err := s.db.QueryRow(q, sessionID).Scan(c.dst); err != nil {
			return SessionStats{}, fmt.Errorf("counting %s: %w", c.table, err)
		}
	}

	rows, err := s.db.Query(`
		SELECT contact_type, COUNT(*) AS cnt FROM (
			SELECT contact_type FROM video_contacts WHERE session_id = ?
			UNION ALL
			SELECT contact_type FROM comment_contacts WHERE session_id = ?
			UNION ALL
			SELECT contact_type FROM channel_contacts WHERE session_id = ?
		)
		GROUP BY contact_type
		ORDER BY cnt DESC, contact_type ASC`,
		sessionID, sessionID, sessionID,
	)
	if err != nil {
		return SessionStats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.ContactType, &tc.Count); err != nil {
			return SessionStats{}, err
		}
		stats.ByType = append(stats.ByType, tc)
	}
	return stats, rows.Err()
}
