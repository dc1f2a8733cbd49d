package ops

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/hpungsan/dmkit/internal/db"
	"github.com/hpungsan/dmkit/internal/errors"
	"github.com/hpungsan/dmkit/internal/store"
)

// Game state actions accepted by ManageGameState.
const (
	ActionGetState       = "get_state"
	ActionUpdateLocation = "update_location"
	ActionUpdateScene    = "update_scene"
	ActionStartCombat    = "start_combat"
	ActionEndCombat      = "end_combat"
)

// CreateSessionInput contains parameters for the CreateSession operation.
type CreateSessionInput struct {
	Name   string
	DMName string // default: "DM"
}

// CreateSessionOutput contains the result of the CreateSession operation.
type CreateSessionOutput struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	Path     string          `json:"session_path"`
	Metadata *store.Metadata `json:"metadata"`
}

// CreateSession creates a new session with its metadata and log.
func CreateSession(ctx context.Context, rt *Runtime, input CreateSessionInput) (*CreateSessionOutput, error) {
	if err := requireField("session_name", input.Name); err != nil {
		return nil, err
	}
	sess, meta, err := rt.Store.CreateSession(input.Name, input.DMName)
	if err != nil {
		if stderrors.Is(err, store.ErrExists) {
			return nil, errors.NewAlreadyExists("session", input.Name)
		}
		return nil, storeError("create session", err)
	}
	rt.log().Info("session created", "session", input.Name, "dm", meta.DMName)
	rt.record(ctx, input.Name, db.KindSessionCreate, fmt.Sprintf("session created by %s", meta.DMName), nil)

	return &CreateSessionOutput{
		Status:   StatusSuccess,
		Message:  fmt.Sprintf("Game session '%s' created successfully!", input.Name),
		Path:     sess.Dir(),
		Metadata: meta,
	}, nil
}

// ListSessionsOutput contains the result of the ListSessions operation.
type ListSessionsOutput struct {
	Status   string                 `json:"status"`
	Sessions []store.SessionSummary `json:"sessions"`
	Count    int                    `json:"count"`
	Message  string                 `json:"message,omitempty"`
}

// ListSessions lists every session on disk.
func ListSessions(ctx context.Context, rt *Runtime) (*ListSessionsOutput, error) {
	sessions, err := rt.Store.ListSessions()
	if err != nil {
		return nil, storeError("list sessions", err)
	}
	out := &ListSessionsOutput{Status: StatusSuccess, Sessions: sessions, Count: len(sessions)}
	if len(sessions) == 0 {
		out.Message = "No game sessions found. Create a new session to get started!"
	}
	return out, nil
}

// SessionDetailsOutput is a session's metadata together with its log.
type SessionDetailsOutput struct {
	Status   string          `json:"status"`
	Session  string          `json:"session_name"`
	Metadata *store.Metadata `json:"metadata"`
	Log      string          `json:"log"`
}

// GetSession reads a session's metadata and markdown log. A session without a
// log file reports an empty log.
func GetSession(ctx context.Context, rt *Runtime, name string) (*SessionDetailsOutput, error) {
	sess, err := rt.openSession(name)
	if err != nil {
		return nil, err
	}
	meta, err := sess.Metadata()
	if err != nil {
		return nil, storeError("read session metadata", err)
	}
	text, err := sess.ReadLog()
	if err != nil && !stderrors.Is(err, store.ErrNotFound) {
		return nil, storeError("read session log", err)
	}
	return &SessionDetailsOutput{Status: StatusSuccess, Session: name, Metadata: meta, Log: text}, nil
}

// SessionMessageOutput is a status plus human-readable message.
type SessionMessageOutput struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AddCharacterToSessionInput contains parameters for AddCharacterToSession.
type AddCharacterToSessionInput struct {
	Session string
	Name    string
}

// AddCharacterToSession adds a character to the session roster. Adding a
// character already present is a no-op.
func AddCharacterToSession(ctx context.Context, rt *Runtime, input AddCharacterToSessionInput) (*SessionMessageOutput, error) {
	if err := requireField("character_name", input.Name); err != nil {
		return nil, err
	}
	sess, err := rt.openSession(input.Session)
	if err != nil {
		return nil, err
	}
	added, err := sess.AddCharacter(input.Name)
	if err != nil {
		return nil, storeError("add character to session", err)
	}
	if !added {
		return &SessionMessageOutput{Status: StatusSuccess, Message: fmt.Sprintf("Character '%s' already in session", input.Name)}, nil
	}

	rt.log().Info("character joined session", "session", input.Session, "character", input.Name)
	rt.record(ctx, input.Session, db.KindSessionJoin, fmt.Sprintf("%s joined the session", input.Name), map[string]any{"character": input.Name})
	return &SessionMessageOutput{Status: StatusSuccess, Message: fmt.Sprintf("Character '%s' added to session", input.Name)}, nil
}

// UpdateSessionLogInput contains parameters for UpdateSessionLog.
type UpdateSessionLogInput struct {
	Session string
	Entry   string
}

// UpdateSessionLog appends a timestamped entry to the session log.
func UpdateSessionLog(ctx context.Context, rt *Runtime, input UpdateSessionLogInput) (*SessionMessageOutput, error) {
	if err := requireField("log_entry", input.Entry); err != nil {
		return nil, err
	}
	sess, err := rt.openSession(input.Session)
	if err != nil {
		return nil, err
	}
	if err := sess.AppendLog(input.Entry); err != nil {
		return nil, storeError("update session log", err)
	}
	rt.log().Info("session log updated", "session", input.Session)
	rt.record(ctx, input.Session, db.KindSessionLog, input.Entry, nil)
	return &SessionMessageOutput{Status: StatusSuccess, Message: "Session log updated successfully"}, nil
}

// GameStateInput contains parameters for ManageGameState.
type GameStateInput struct {
	Session  string
	Action   string
	Location string // update_location
	Scene    string // update_scene
}

// GameStateOutput is the session state after the action.
type GameStateOutput struct {
	Status          string   `json:"status"`
	Session         string   `json:"session_name"`
	Action          string   `json:"action"`
	CurrentLocation string   `json:"current_location,omitempty"`
	CurrentScene    string   `json:"current_scene,omitempty"`
	Characters      []string `json:"characters,omitempty"`
	InCombat        bool     `json:"in_combat"`
}

// ManageGameState reads or updates the per-session game state.
func ManageGameState(ctx context.Context, rt *Runtime, input GameStateInput) (*GameStateOutput, error) {
	action := strings.ToLower(strings.TrimSpace(input.Action))
	if action == "" {
		action = ActionGetState
	}
	sess, err := rt.openSession(input.Session)
	if err != nil {
		return nil, err
	}

	var (
		meta    *store.Metadata
		summary string
	)
	switch action {
	case ActionGetState:
		meta, err = sess.Metadata()
	case ActionUpdateLocation:
		if err := requireField("location", input.Location); err != nil {
			return nil, err
		}
		meta, err = sess.SetLocation(input.Location)
		summary = "moved to " + input.Location
	case ActionUpdateScene:
		if err := requireField("scene", input.Scene); err != nil {
			return nil, err
		}
		meta, err = sess.SetScene(input.Scene)
		summary = "scene: " + input.Scene
	case ActionStartCombat:
		meta, err = sess.SetCombat(true)
		summary = "combat started"
	case ActionEndCombat:
		meta, err = sess.SetCombat(false)
		summary = "combat ended"
	default:
		return nil, errors.NewInvalidInputf("unknown action %q (want %s, %s, %s, %s or %s)", input.Action,
			ActionGetState, ActionUpdateLocation, ActionUpdateScene, ActionStartCombat, ActionEndCombat)
	}
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, sessionNotFound(input.Session)
		}
		return nil, storeError("game state", err)
	}

	if summary != "" {
		rt.log().Info("game state updated", "session", input.Session, "action", action)
		rt.record(ctx, input.Session, db.KindGameState, summary, map[string]any{"action": action})
	}

	return &GameStateOutput{
		Status:          StatusSuccess,
		Session:         input.Session,
		Action:          action,
		CurrentLocation: meta.CurrentLocation,
		CurrentScene:    meta.CurrentScene,
		Characters:      meta.Characters,
		InCombat:        meta.InCombat,
	}, nil
}
