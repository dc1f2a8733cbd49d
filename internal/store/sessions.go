package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Defaults written into new session metadata.
const (
	DefaultDM       = "DM"
	DefaultLocation = "Starting Location"
	DefaultScene    = "The adventure begins..."
	unknown         = "Unknown"
)

// Metadata is the session record stored in session_metadata.json.
type Metadata struct {
	SessionName     string   `json:"session_name"`
	DMName          string   `json:"dm_name"`
	CreatedDate     string   `json:"created_date"`
	LastPlayed      string   `json:"last_played"`
	Characters      []string `json:"characters"`
	SessionNotes    string   `json:"session_notes"`
	CurrentLocation string   `json:"current_location"`
	CurrentScene    string   `json:"current_scene"`
	InCombat        bool     `json:"in_combat"`
}

// SessionSummary is one entry of ListSessions.
type SessionSummary struct {
	Name           string `json:"name"`
	DM             string `json:"dm"`
	Created        string `json:"created"`
	LastPlayed     string `json:"last_played"`
	CharacterCount int    `json:"character_count"`
}

// Session is a handle on one session directory. Each method reads and writes
// the files directly; nothing is cached between calls.
type Session struct {
	name string
	dir  string
}

// Name returns the session name.
func (s *Session) Name() string { return s.name }

// Dir returns the session directory.
func (s *Session) Dir() string { return s.dir }

// CreateSession creates the session directory, its characters directory, the
// metadata record and the markdown log. An empty dm defaults to "DM".
func (s *FileStore) CreateSession(name, dm string) (*Session, *Metadata, error) {
	if err := ValidateName(name); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(dm) == "" {
		dm = DefaultDM
	}

	sess := &Session{name: name, dir: s.sessionDir(name)}
	if _, err := os.Stat(sess.metadataPath()); err == nil {
		return nil, nil, fmt.Errorf("%w: session %q", ErrExists, name)
	}
	if err := os.MkdirAll(filepath.Join(sess.dir, charactersDir), dirPerm); err != nil {
		return nil, nil, fmt.Errorf("create session dir: %w", err)
	}

	t := now()
	ts := timestamp()
	meta := &Metadata{
		SessionName:     name,
		DMName:          dm,
		CreatedDate:     ts,
		LastPlayed:      ts,
		Characters:      []string{},
		CurrentLocation: DefaultLocation,
		CurrentScene:    DefaultScene,
	}
	if err := sess.saveMetadata(meta); err != nil {
		return nil, nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Session Log\n\n", name)
	fmt.Fprintf(&b, "**DM:** %s\n", dm)
	fmt.Fprintf(&b, "**Created:** %s\n\n", t.Format(logHeaderCreated))
	b.WriteString("## Session History\n\n")
	b.WriteString("### Session 1\n")
	fmt.Fprintf(&b, "*%s*\n\n", t.Format(logHeaderDay))
	b.WriteString("- Game session created\n")
	b.WriteString("- Ready for character creation\n\n")
	if err := writeFileAtomic(sess.logPath(), []byte(b.String()), filePerm); err != nil {
		return nil, nil, fmt.Errorf("write session log: %w", err)
	}

	return sess, meta, nil
}

// OpenSession returns a handle on an existing session directory.
func (s *FileStore) OpenSession(name string) (*Session, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	dir := s.sessionDir(name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: session %q", ErrNotFound, name)
	}
	return &Session{name: name, dir: dir}, nil
}

// ListSessions returns every session directory that holds a metadata file,
// sorted by directory name. Unreadable metadata is reported with Unknown fields.
func (s *FileStore) ListSessions() ([]SessionSummary, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []SessionSummary{}, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := []SessionSummary{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sess := &Session{name: e.Name(), dir: filepath.Join(s.Root, e.Name())}
		if _, err := os.Stat(sess.metadataPath()); err != nil {
			continue
		}

		meta, err := sess.Metadata()
		if err != nil {
			out = append(out, SessionSummary{Name: e.Name(), DM: unknown, Created: unknown, LastPlayed: unknown})
			continue
		}
		out = append(out, SessionSummary{
			Name:           orUnknown(meta.SessionName, e.Name()),
			DM:             orUnknown(meta.DMName, unknown),
			Created:        orUnknown(meta.CreatedDate, unknown),
			LastPlayed:     orUnknown(meta.LastPlayed, unknown),
			CharacterCount: len(meta.Characters),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func orUnknown(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (s *Session) metadataPath() string { return filepath.Join(s.dir, metadataFile) }
func (s *Session) logPath() string      { return filepath.Join(s.dir, logFile) }

// Metadata reads the session record.
func (s *Session) Metadata() (*Metadata, error) {
	data, err := os.ReadFile(s.metadataPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: metadata for session %q", ErrNotFound, s.name)
		}
		return nil, fmt.Errorf("read session metadata: %w", err)
	}
	meta := &Metadata{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.metadataPath(), err)
	}
	if meta.Characters == nil {
		meta.Characters = []string{}
	}
	return meta, nil
}

func (s *Session) saveMetadata(meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session metadata: %w", err)
	}
	if err := writeFileAtomic(s.metadataPath(), append(data, '\n'), filePerm); err != nil {
		return fmt.Errorf("write session metadata: %w", err)
	}
	return nil
}

// update applies fn to the metadata, bumps last_played and saves.
func (s *Session) update(fn func(*Metadata)) (*Metadata, error) {
	meta, err := s.Metadata()
	if err != nil {
		return nil, err
	}
	fn(meta)
	meta.LastPlayed = timestamp()
	if err := s.saveMetadata(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (s *Session) appendLogLine(line string) error {
	if err := AppendFile(s.logPath(), line+"\n"); err != nil {
		return fmt.Errorf("append session log: %w", err)
	}
	return nil
}

// AppendLog appends "- [HH:MM] entry" to the log and bumps last_played when
// the metadata file exists.
func (s *Session) AppendLog(entry string) error {
	if err := s.appendLogLine(fmt.Sprintf("- [%s] %s", now().Format(logClockFormat), entry)); err != nil {
		return err
	}
	if _, err := os.Stat(s.metadataPath()); err != nil {
		return nil
	}
	_, err := s.update(func(*Metadata) {})
	return err
}

// AddCharacter records name in the session roster. It reports false when the
// character was already listed, in which case nothing is written.
func (s *Session) AddCharacter(name string) (bool, error) {
	meta, err := s.Metadata()
	if err != nil {
		return false, err
	}
	for _, existing := range meta.Characters {
		if existing == name {
			return false, nil
		}
	}

	if _, err := s.update(func(m *Metadata) { m.Characters = append(m.Characters, name) }); err != nil {
		return false, err
	}
	if err := s.appendLogLine(fmt.Sprintf("- Character '%s' joined the session", name)); err != nil {
		return true, err
	}
	return true, nil
}

// SetLocation updates current_location.
func (s *Session) SetLocation(location string) (*Metadata, error) {
	return s.update(func(m *Metadata) { m.CurrentLocation = location })
}

// SetScene updates current_scene.
func (s *Session) SetScene(scene string) (*Metadata, error) {
	return s.update(func(m *Metadata) { m.CurrentScene = scene })
}

// SetCombat marks the session as in or out of combat.
func (s *Session) SetCombat(active bool) (*Metadata, error) {
	return s.update(func(m *Metadata) { m.InCombat = active })
}

// ReadLog returns the markdown session log.
func (s *Session) ReadLog() (string, error) {
	data, err := os.ReadFile(s.logPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: log for session %q", ErrNotFound, s.name)
		}
		return "", fmt.Errorf("read session log: %w", err)
	}
	return string(data), nil
}
