package storage

import (
	"sort"
	"strings"
)

// Read-only aggregations for reporting. Every query is scoped to one
// session; cross-session leakage here would be a correctness bug.

// ChannelsWithContacts groups a session's channels by identity, counts
// linked contact rows, and returns only channels with at least one contact,
// ordered by subscriber count descending.
func (s *Store) ChannelsWithContacts(sessionID int64) ([]ChannelContacts, error) {
	rows, err := s.db.Query(`
		SELECT c.channel_id, c.title, c.subscriber_count, COUNT(cc.id) AS contact_count
		FROM channels c
		LEFT JOIN channel_contacts cc
			ON cc.session_id = c.session_id AND cc.channel_id = c.channel_id
		WHERE c.session_id = ?
		GROUP BY c.channel_id
		HAVING contact_count > 0
		ORDER BY c.subscriber_count DESC, c.channel_id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ChannelContacts
	for rows.Next() {
		var r ChannelContacts
		if err := rows.Scan(&r.ChannelID, &r.Title, &r.SubscriberCount, &r.ContactCount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// QuietLargeChannels returns channels above minSubs subscribers with zero
// linked contacts, ordered by subscriber count descending and capped to
// limit rows to keep reports bounded.
func (s *Store) QuietLargeChannels(sessionID, minSubs int64, limit int) ([]QuietChannel, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT c.channel_id, c.title, c.subscriber_count, c.video_count
		FROM channels c
		LEFT JOIN channel_contacts cc
			ON cc.session_id = c.session_id AND cc.channel_id = c.channel_id
		WHERE c.session_id = ? AND cc.id IS NULL AND c.subscriber_count > ?
		ORDER BY c.subscriber_count DESC, c.channel_id ASC
		LIMIT ?`,
		sessionID, minSubs, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []QuietChannel
	for rows.Next() {
		var r QuietChannel
		if err := rows.Scan(&r.ChannelID, &r.Title, &r.SubscriberCount, &r.VideoCount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// RepeatedContacts unions all three contact tables for one session, groups
// by (contact_type, value), and returns the groups seen more than once with
// their distinct sources. A value reused across videos, comments, and
// channels is the strongest signal of a single actor behind them.
func (s *Store) RepeatedContacts(sessionID int64) ([]RepeatedContact, error) {
	rows, err := s.db.Query(`
		SELECT contact_type, value, COUNT(*) AS cnt,
			GROUP_CONCAT(DISTINCT source) AS sources
		FROM (
			SELECT contact_type, value, 'video' AS source
			FROM video_contacts WHERE session_id = ?
			UNION ALL
			SELECT contact_type, value, 'comment' AS source
			FROM comment_contacts WHERE session_id = ?
			UNION ALL
			SELECT contact_type, value, 'channel' AS source
			FROM channel_contacts WHERE session_id = ?
		)
		GROUP BY contact_type, value
		HAVING cnt > 1
		ORDER BY cnt DESC, contact_type ASC, value ASC`,
		sessionID, sessionID, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RepeatedContact
	for rows.Next() {
		var r RepeatedContact
		var sources string
		if err := rows.Scan(&r.ContactType, &r.Value, &r.Count, &sources); err != nil {
			return nil, err
		}
		r.Sources = strings.Split(sources, ",")
		sort.Strings(r.Sources)
		result = append(result, r)
	}
	return result, rows.Err()
}

// SessionTexts returns the session's video titles and descriptions in
// insertion order, feeding the keyword ranking.
func (s *Store) SessionTexts(sessionID int64) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT title, description FROM videos
		WHERE session_id = ? ORDER BY rowid ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var title, desc string
		if err := rows.Scan(&title, &desc); err != nil {
			return nil, err
		}
		if title != "" {
			texts = append(texts, title)
		}
		if desc != "" {
			texts = append(texts, desc)
		}
	}
	return texts, rows.Err()
}
