package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/dmkit/internal/errors"
)

// Event kinds written by the operations layer.
const (
	KindDiceRoll         = "dice_roll"
	KindCharacterCreate  = "character_create"
	KindCharacterUpdate  = "character_update"
	KindCharacterNote    = "character_note"
	KindSessionCreate    = "session_create"
	KindSessionJoin      = "session_join"
	KindSessionLog       = "session_log"
	KindGameState        = "game_state"
	KindCampaignInstance = "campaign_instance"
)

// Event is one journal row.
type Event struct {
	ID         string          `json:"id"`
	SessionRaw string          `json:"session"`
	Kind       string          `json:"kind"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

// EventFilter narrows ListEvents. Session is required; Kind is optional.
type EventFilter struct {
	Session string
	Kind    string
}

var entropy = &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(rand.Reader, 0)}

// NewEventID returns a ULID for an event created at t.
func NewEventID(t time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// SessionKey is the journal lookup key for a session. Session directories are
// case-sensitive, so the key is the exact name: "Game" and "game" keep
// separate histories.
func SessionKey(name string) string {
	return name
}

// InsertEvent stores e. ID and CreatedAt are filled in when empty.
func InsertEvent(ctx context.Context, db *sql.DB, e *Event) error {
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.ID == "" {
		id, err := NewEventID(time.Unix(e.CreatedAt, 0))
		if err != nil {
			return errors.NewInternal(err)
		}
		e.ID = id
	}

	var payload sql.NullString
	if len(e.Payload) > 0 {
		payload = sql.NullString{String: string(e.Payload), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO events (id, session_raw, session_norm, kind, summary, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.SessionRaw, SessionKey(e.SessionRaw), e.Kind, e.Summary, payload, e.CreatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// ListEvents returns events for a session, newest first, plus the total
// number of matching rows ignoring limit and offset.
func ListEvents(ctx context.Context, db *sql.DB, filter EventFilter, limit, offset int) ([]Event, int, error) {
	where := "WHERE session_norm = ?"
	args := []any{SessionKey(filter.Session)}
	if kind := strings.TrimSpace(filter.Kind); kind != "" {
		where += " AND kind = ?"
		args = append(args, kind)
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events "+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, session_raw, kind, summary, payload_json, created_at
		FROM events ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var payload sql.NullString
		if err := rows.Scan(&e.ID, &e.SessionRaw, &e.Kind, &e.Summary, &payload, &e.CreatedAt); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		if payload.Valid {
			e.Payload = json.RawMessage(payload.String)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return events, total, nil
}
