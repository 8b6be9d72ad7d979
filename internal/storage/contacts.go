package storage

// Contact rows are append-only evidence: a re-scanned text legitimately
// produces duplicate rows, and one value may carry several type tags.

// InsertVideoContact links a matched contact to a video row.
func (s *Store) InsertVideoContact(sessionID int64, videoID, contactType, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO video_contacts (session_id, video_id, contact_type, value)
		VALUES (?, ?, ?, ?)`,
		sessionID, videoID, contactType, value,
	)
	return mapBusy(err)
}

// InsertCommentContact links a matched contact to a comment row.
func (s *Store) InsertCommentContact(sessionID, commentID int64, contactType, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO comment_contacts (session_id, comment_id, contact_type, value)
		VALUES (?, ?, ?, ?)`,
		sessionID, commentID, contactType, value,
	)
	return mapBusy(err)
}

// InsertChannelContact links a matched contact to a channel row.
func (s *Store) InsertChannelContact(sessionID int64, channelID, contactType, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO channel_contacts (session_id, channel_id, contact_type, value)
		VALUES (?, ?, ?, ?)`,
		sessionID, channelID, contactType, value,
	)
	return mapBusy(err)
}

// ContactFilter narrows SearchContacts results. Zero values mean "any".
type ContactFilter struct {
	ContactType string
	ValueLike   string // substring match on the contact value
	Source      string // SourceVideo, SourceComment, SourceChannel, or ""
	Limit       int
}

// SearchContacts returns contacts from all three tables joined back to
// their owning entity, newest first within each source.
func (s *Store) SearchContacts(sessionID int64, f ContactFilter) ([]ContactHit, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT * FROM (
			SELECT 'video' AS source, vc.contact_type, vc.value,
				v.video_id AS owner_id, v.title AS owner_title, v.url AS owner_url
			FROM video_contacts vc
			JOIN videos v ON v.session_id = vc.session_id AND v.video_id = vc.video_id
			WHERE vc.session_id = ?
			UNION ALL
			SELECT 'comment' AS source, cc.contact_type, cc.value,
				CAST(c.id AS TEXT) AS owner_id,
				substr(c.text, 1, 60) AS owner_title, v.url AS owner_url
			FROM comment_contacts cc
			JOIN comments c ON c.id = cc.comment_id
			JOIN videos v ON v.session_id = c.session_id AND v.video_id = c.video_id
			WHERE cc.session_id = ?
			UNION ALL
			SELECT 'channel' AS source, hc.contact_type, hc.value,
				h.channel_id AS owner_id, h.title AS owner_title, '' AS owner_url
			FROM channel_contacts hc
			JOIN channels h ON h.session_id = hc.session_id AND h.channel_id = hc.channel_id
			WHERE hc.session_id = ?
		)
		WHERE 1=1`
	args := []any{sessionID, sessionID, sessionID}

	if f.ContactType != "" {
		query += " AND contact_type = ?"
		args = append(args, f.ContactType)
	}
	if f.ValueLike != "" {
		query += " AND value LIKE ?"
		args = append(args, "%"+f.ValueLike+"%")
	}
	if f.Source != "" {
		query += " AND source = ?"
		args = append(args, f.Source)
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []ContactHit
	for rows.Next() {
		var h ContactHit
		if err := rows.Scan(&h.Source, &h.ContactType, &h.Value, &h.OwnerID,
			&h.OwnerTitle, &h.OwnerURL); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
