package store

import (
	"database/sql"
	"time"
)

// GestureEvent is a discrete gesture fired during a session.
type GestureEvent struct {
	ID        int64
	SessionID string
	Kind      string
	Hand      string
	Feedback  string
	CreatedAt time.Time
}

// EventRepository records the gesture log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the gesture event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Log appends an event. A zero CreatedAt is filled with the current time.
func (r *EventRepository) Log(ev *GestureEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(
		`INSERT INTO gesture_events (session_id, kind, hand, feedback, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.SessionID, ev.Kind, ev.Hand, ev.Feedback, ev.CreatedAt,
	)
	if err != nil {
		return err
	}

	ev.ID, err = result.LastInsertId()
	return err
}

// ListBySession returns a session's events in the order they fired.
func (r *EventRepository) ListBySession(sessionID string) ([]*GestureEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, kind, hand, feedback, created_at
		 FROM gesture_events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*GestureEvent
	for rows.Next() {
		ev := &GestureEvent{}
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Kind, &ev.Hand, &ev.Feedback, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountByKind tallies a session's events per gesture kind.
func (r *EventRepository) CountByKind(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT kind, COUNT(*) FROM gesture_events WHERE session_id = ? GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}

	return counts, rows.Err()
}
