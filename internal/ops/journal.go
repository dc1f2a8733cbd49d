package ops

import (
	"context"
	"encoding/json"

	"github.com/hpungsan/dmkit/internal/db"
	"github.com/hpungsan/dmkit/internal/errors"
)

// record writes a journal event for session. The journal is a second,
// independent write: failures are logged and never reach the caller.
func (rt *Runtime) record(ctx context.Context, session, kind, summary string, payload any) {
	if rt.Journal == nil || session == "" {
		return
	}
	e := &db.Event{SessionRaw: session, Kind: kind, Summary: summary}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			rt.log().Warn("journal payload encode failed", "kind", kind, "error", err)
			return
		}
		e.Payload = data
	}
	if err := db.InsertEvent(ctx, rt.Journal, e); err != nil {
		rt.log().Warn("journal write failed", "session", session, "kind", kind, "error", err)
		return
	}
	rt.log().Debug("journal event", "session", session, "kind", kind, "id", e.ID)
}

// SessionHistoryInput contains parameters for the SessionHistory operation.
type SessionHistoryInput struct {
	Session string
	Kind    string // optional filter
	Limit   int    // default: 20, max: 100
	Offset  int
}

// SessionHistoryOutput contains the result of the SessionHistory operation.
type SessionHistoryOutput struct {
	Status     string     `json:"status"`
	Session    string     `json:"session_name"`
	Events     []db.Event `json:"events"`
	Pagination Pagination `json:"pagination"`
	Sort       string     `json:"sort"`
}

// SessionHistory lists journal events for a session, newest first.
func SessionHistory(ctx context.Context, rt *Runtime, input SessionHistoryInput) (*SessionHistoryOutput, error) {
	if err := requireField("session_name", input.Session); err != nil {
		return nil, err
	}
	if rt.Journal == nil {
		return nil, errors.NewInvalidInput("session journal is not available")
	}

	limit, offset := page(input.Limit, input.Offset)
	events, total, err := db.ListEvents(ctx, rt.Journal, db.EventFilter{Session: input.Session, Kind: input.Kind}, limit, offset)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []db.Event{}
	}

	return &SessionHistoryOutput{
		Status:  StatusSuccess,
		Session: input.Session,
		Events:  events,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(events) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}
