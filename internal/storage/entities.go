package storage

import (
	"database/sql"
	"time"
)

// UpsertVideo inserts or replaces a video keyed by (session_id, video_id).
// Re-ingesting the same video within a session overwrites the row.
func (s *Store) UpsertVideo(v Video) error {
	_, err := s.db.Exec(`
		INSERT INTO videos (session_id, video_id, title, url, channel_name, channel_id,
			published_time, view_count, duration, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, video_id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			channel_name = excluded.channel_name,
			channel_id = excluded.channel_id,
			published_time = excluded.published_time,
			view_count = excluded.view_count,
			duration = excluded.duration,
			description = excluded.description`,
		v.SessionID, v.VideoID, v.Title, v.URL, v.ChannelName, v.ChannelID,
		v.PublishedTime, v.ViewCount, v.Duration, v.Description,
	)
	return mapBusy(err)
}

// GetVideo returns one video by its composite key.
func (s *Store) GetVideo(sessionID int64, videoID string) (Video, error) {
	var v Video
	err := s.db.QueryRow(`
		SELECT session_id, video_id, title, url, channel_name, channel_id,
			published_time, view_count, duration, description
		FROM videos WHERE session_id = ? AND video_id = ?`,
		sessionID, videoID,
	).Scan(&v.SessionID, &v.VideoID, &v.Title, &v.URL, &v.ChannelName, &v.ChannelID,
		&v.PublishedTime, &v.ViewCount, &v.Duration, &v.Description)
	if err == sql.ErrNoRows {
		return Video{}, ErrNotFound
	}
	return v, err
}

// ListVideos returns a session's videos ordered by view count descending.
func (s *Store) ListVideos(sessionID int64, limit int) ([]Video, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT session_id, video_id, title, url, channel_name, channel_id,
			published_time, view_count, duration, description
		FROM videos WHERE session_id = ?
		ORDER BY view_count DESC, video_id ASC LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.SessionID, &v.VideoID, &v.Title, &v.URL, &v.ChannelName,
			&v.ChannelID, &v.PublishedTime, &v.ViewCount, &v.Duration, &v.Description); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// UpsertChannel inserts or refreshes a channel keyed by (session_id,
// channel_id). Counters and last_updated are replaced on every encounter.
func (s *Store) UpsertChannel(c Channel) error {
	last := c.LastUpdated
	if last.IsZero() {
		last = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO channels (session_id, channel_id, title, description, published_at,
			country, view_count, subscriber_count, video_count, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, channel_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			published_at = excluded.published_at,
			country = excluded.country,
			view_count = excluded.view_count,
			subscriber_count = excluded.subscriber_count,
			video_count = excluded.video_count,
			last_updated = excluded.last_updated`,
		c.SessionID, c.ChannelID, c.Title, c.Description, c.PublishedAt,
		c.Country, c.ViewCount, c.SubscriberCount, c.VideoCount,
		last.Format(time.RFC3339),
	)
	return mapBusy(err)
}

// GetChannel returns one channel by its composite key.
func (s *Store) GetChannel(sessionID int64, channelID string) (Channel, error) {
	var c Channel
	var last string
	err := s.db.QueryRow(`
		SELECT session_id, channel_id, title, description, published_at, country,
			view_count, subscriber_count, video_count, last_updated
		FROM channels WHERE session_id = ? AND channel_id = ?`,
		sessionID, channelID,
	).Scan(&c.SessionID, &c.ChannelID, &c.Title, &c.Description, &c.PublishedAt,
		&c.Country, &c.ViewCount, &c.SubscriberCount, &c.VideoCount, &last)
	if err == sql.ErrNoRows {
		return Channel{}, ErrNotFound
	}
	if err != nil {
		return Channel{}, err
	}
	if t, perr := time.Parse(time.RFC3339, last); perr == nil {
		c.LastUpdated = t
	}
	return c, nil
}

// ListChannels returns a session's channels with at least minSubs
// subscribers, ordered by subscriber count descending.
func (s *Store) ListChannels(sessionID int64, minSubs int64, limit int) ([]Channel, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT session_id, channel_id, title, description, published_at, country,
			view_count, subscriber_count, video_count, last_updated
		FROM channels
		WHERE session_id = ? AND subscriber_count >= ?
		ORDER BY subscriber_count DESC, channel_id ASC LIMIT ?`,
		sessionID, minSubs, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []Channel
	for rows.Next() {
		var c Channel
		var last string
		if err := rows.Scan(&c.SessionID, &c.ChannelID, &c.Title, &c.Description,
			&c.PublishedAt, &c.Country, &c.ViewCount, &c.SubscriberCount,
			&c.VideoCount, &last); err != nil {
			return nil, err
		}
		if t, perr := time.Parse(time.RFC3339, last); perr == nil {
			c.LastUpdated = t
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// InsertComment appends one comment row and returns its generated ID.
func (s *Store) InsertComment(c Comment) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO comments (session_id, video_id, author, text)
		VALUES (?, ?, ?, ?)`,
		c.SessionID, c.VideoID, c.Author, c.Text,
	)
	if err != nil {
		return 0, mapBusy(err)
	}
	return res.LastInsertId()
}
