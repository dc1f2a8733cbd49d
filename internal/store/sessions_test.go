package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	fixClock(t, time.Date(2026, 5, 2, 20, 15, 0, 0, time.UTC))
	s := New(t.TempDir())

	sess, meta, err := s.CreateSession("Lost Mine", "")
	require.NoError(t, err)

	assert.Equal(t, "Lost Mine", sess.Name())
	assert.Equal(t, "DM", meta.DMName)
	assert.Equal(t, "Starting Location", meta.CurrentLocation)
	assert.Equal(t, "The adventure begins...", meta.CurrentScene)
	assert.Equal(t, []string{}, meta.Characters)
	assert.DirExists(t, filepath.Join(s.Root, "Lost Mine", "characters"))

	log, err := sess.ReadLog()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(log, "# Lost Mine - Session Log\n\n**DM:** DM\n**Created:** 2026-05-02 20:15\n"))
	assert.Contains(t, log, "### Session 1\n*2026-05-02*\n")
	assert.Contains(t, log, "- Ready for character creation\n")

	_, _, err = s.CreateSession("Lost Mine", "Alice")
	assert.True(t, errors.Is(err, ErrExists))
}

func TestOpenSession_NotFound(t *testing.T) {
	_, err := New(t.TempDir()).OpenSession("ghost")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = New(t.TempDir()).OpenSession("../etc")
	assert.True(t, errors.Is(err, ErrUnsafeName))
}

func TestSession_AppendLog(t *testing.T) {
	fixClock(t, time.Date(2026, 5, 2, 20, 15, 0, 0, time.UTC))
	s := New(t.TempDir())
	sess, _, err := s.CreateSession("s1", "Alice")
	require.NoError(t, err)

	fixClock(t, time.Date(2026, 5, 2, 21, 7, 0, 0, time.UTC))
	require.NoError(t, sess.AppendLog("The party enters the cave"))

	log, err := sess.ReadLog()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(log, "- [21:07] The party enters the cave\n"))

	meta, err := sess.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "2026-05-02T21:07:00Z", meta.LastPlayed)
	assert.Equal(t, "2026-05-02T20:15:00Z", meta.CreatedDate)
}

func TestSession_AppendLog_RejectsSymlink(t *testing.T) {
	s := New(t.TempDir())
	sess, _, err := s.CreateSession("s1", "Alice")
	require.NoError(t, err)

	logPath := filepath.Join(sess.Dir(), "session_log.md")
	require.NoError(t, os.Remove(logPath))
	target := filepath.Join(t.TempDir(), "elsewhere.md")
	require.NoError(t, os.WriteFile(target, []byte("untouched"), 0o644))
	if err := os.Symlink(target, logPath); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	err = sess.AppendLog("The party enters the cave")
	assert.True(t, errors.Is(err, ErrSymlink), "err = %v", err)

	data, _ := os.ReadFile(target)
	assert.Equal(t, "untouched", string(data))
}

func TestAppendFile_CreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.md")
	require.NoError(t, AppendFile(path, "one\n"))
	require.NoError(t, AppendFile(path, "two\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestSession_AddCharacterIdempotent(t *testing.T) {
	s := New(t.TempDir())
	sess, _, err := s.CreateSession("s1", "Alice")
	require.NoError(t, err)

	added, err := sess.AddCharacter("Thorin")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = sess.AddCharacter("Thorin")
	require.NoError(t, err)
	assert.False(t, added)

	meta, err := sess.Metadata()
	require.NoError(t, err)
	assert.Equal(t, []string{"Thorin"}, meta.Characters)

	log, err := sess.ReadLog()
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(log, "- Character 'Thorin' joined the session"))
}

func TestSession_GameState(t *testing.T) {
	s := New(t.TempDir())
	sess, _, err := s.CreateSession("s1", "Alice")
	require.NoError(t, err)

	_, err = sess.SetLocation("Phandalin")
	require.NoError(t, err)
	_, err = sess.SetScene("A goblin ambush")
	require.NoError(t, err)
	meta, err := sess.SetCombat(true)
	require.NoError(t, err)

	assert.Equal(t, "Phandalin", meta.CurrentLocation)
	assert.Equal(t, "A goblin ambush", meta.CurrentScene)
	assert.True(t, meta.InCombat)

	reread, err := sess.Metadata()
	require.NoError(t, err)
	assert.Equal(t, meta, reread)
}

func TestListSessions(t *testing.T) {
	s := New(t.TempDir())

	list, err := s.ListSessions()
	require.NoError(t, err)
	assert.Empty(t, list)

	sess, _, err := s.CreateSession("beta", "Bob")
	require.NoError(t, err)
	_, err = sess.AddCharacter("Thorin")
	require.NoError(t, err)
	_, _, err = s.CreateSession("alpha", "Alice")
	require.NoError(t, err)

	// Corrupt metadata is still listed.
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root, "gamma"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root, "gamma", "session_metadata.json"), []byte("nope"), 0o644))
	// Directories without metadata are skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root, "scratch"), 0o755))

	list, err = s.ListSessions()
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "Alice", list[0].DM)
	assert.Equal(t, "beta", list[1].Name)
	assert.Equal(t, 1, list[1].CharacterCount)
	assert.Equal(t, SessionSummary{Name: "gamma", DM: "Unknown", Created: "Unknown", LastPlayed: "Unknown"}, list[2])
}
