package ops

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	toolkit "github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/hpungsan/dmkit/internal/campaign"
	"github.com/hpungsan/dmkit/internal/config"
	"github.com/hpungsan/dmkit/internal/errors"
	"github.com/hpungsan/dmkit/internal/knowledge"
	"github.com/hpungsan/dmkit/internal/logging"
	"github.com/hpungsan/dmkit/internal/store"
)

// StatusSuccess is the status discriminator of every successful result.
const StatusSuccess = "success"

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Runtime bundles the collaborators every operation works against.
// Journal may be nil, in which case nothing is journaled.
type Runtime struct {
	Store     *store.FileStore
	Knowledge *knowledge.Base
	Campaigns *campaign.Manager
	Journal   *sql.DB
	Roller    toolkit.Roller
	Logger    *slog.Logger
}

// NewRuntime wires a Runtime from resolved configuration.
func NewRuntime(cfg *config.Config, journal *sql.DB, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runtime{
		Store:     store.New(cfg.SessionsDir),
		Knowledge: knowledge.New(cfg.KnowledgeDir),
		Campaigns: &campaign.Manager{CampaignsDir: cfg.CampaignsDir, TemplatesDir: cfg.TemplatesDir},
		Journal:   journal,
		Roller:    toolkit.DefaultRoller,
		Logger:    logger.With("component", "ops"),
	}
}

func (rt *Runtime) log() *slog.Logger {
	if rt.Logger == nil {
		return logging.Discard()
	}
	return rt.Logger
}

// page applies limit defaults and bounds and clamps offset at zero.
func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit, max(offset, 0)
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewInvalidInputf("%s is required", name)
	}
	return nil
}

// trimSentinel drops the "<sentinel>: " prefix a domain package wrapped onto
// a message that already reads well on its own.
func trimSentinel(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

// sessionNotFound matches the wording users see for a missing session.
func sessionNotFound(session string) *errors.DMError {
	return errors.NewNotFoundMessage(
		fmt.Sprintf("Session '%s' does not exist", session),
		map[string]any{"kind": "session", "identifier": session},
	)
}

// characterNotFound matches the wording users see for a missing character.
func characterNotFound(session, name string) *errors.DMError {
	return errors.NewNotFoundMessage(
		fmt.Sprintf("Character '%s' not found in session '%s'", name, session),
		map[string]any{"kind": "character", "identifier": name, "session": session},
	)
}

// storeError converts a store failure into a DMError.
func storeError(op string, err error) error {
	var dmErr *errors.DMError
	switch {
	case stderrors.As(err, &dmErr):
		return dmErr
	case stderrors.Is(err, store.ErrUnsafeName):
		return errors.NewInvalidInput(err.Error())
	case stderrors.Is(err, store.ErrExists):
		return errors.NewAlreadyExists("record", trimSentinel(err, store.ErrExists))
	default:
		return errors.NewIOFailure(op, err)
	}
}

// openSession opens a session, mapping a missing one to NOT_FOUND.
func (rt *Runtime) openSession(name string) (*store.Session, error) {
	if err := requireField("session_name", name); err != nil {
		return nil, err
	}
	sess, err := rt.Store.OpenSession(name)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, sessionNotFound(name)
		}
		return nil, storeError("open session", err)
	}
	return sess, nil
}
