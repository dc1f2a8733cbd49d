package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/dmkit/internal/character"
)

func fixClock(t *testing.T, ts time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = prev })
}

func TestSaveLoadCharacter_RoundTrip(t *testing.T) {
	fixClock(t, time.Date(2026, 5, 2, 20, 15, 0, 0, time.UTC))
	s := New(t.TempDir())

	c := character.Create(character.CreateParams{Name: "Sir Reginald", Class: "Paladin", Level: character.Int(3)})
	require.NoError(t, s.SaveCharacter("campaign1", "Sir Reginald", c))

	assert.FileExists(t, filepath.Join(s.Root, "campaign1", "characters", "sir_reginald.json"))
	assert.Equal(t, "2026-05-02T20:15:00Z", c.Metadata.LastUpdated)

	got, err := s.LoadCharacter("campaign1", "sir reginald")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadCharacter_NotFound(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.LoadCharacter("campaign1", "Nobody")
	assert.True(t, errors.Is(err, ErrNotFound), "err = %v", err)
}

func TestLoadCharacter_Corrupt(t *testing.T) {
	s := New(t.TempDir())
	dir := filepath.Join(s.Root, "s1", "characters")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	_, err := s.LoadCharacter("s1", "bad")
	assert.True(t, errors.Is(err, ErrCorrupt), "err = %v", err)
}

func TestLoadCharacter_PartialRecord(t *testing.T) {
	s := New(t.TempDir())
	dir := filepath.Join(s.Root, "s1", "characters")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sketch.json"), []byte(`{"basic_info": {"name": "Sketch"}}`), 0o644))

	c, err := s.LoadCharacter("s1", "Sketch")
	require.NoError(t, err)
	assert.Equal(t, "Sketch", c.BasicInfo.Name)
	assert.Equal(t, 0, c.CombatStats.ArmorClass)
}

func TestSaveCharacter_OverwriteKeepsSingleFile(t *testing.T) {
	s := New(t.TempDir())
	c := character.Create(character.CreateParams{Name: "Thorin"})
	require.NoError(t, s.SaveCharacter("s1", "Thorin", c))

	c.CombatStats.HitPoints.Current = 3
	require.NoError(t, s.SaveCharacter("s1", "Thorin", c))

	got, err := s.LoadCharacter("s1", "Thorin")
	require.NoError(t, err)
	assert.Equal(t, 3, got.CombatStats.HitPoints.Current)

	keys, err := s.ListCharacters("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"thorin"}, keys)
}

func TestSaveCharacter_RejectsSymlink(t *testing.T) {
	s := New(t.TempDir())
	dir := filepath.Join(s.Root, "s1", "characters")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	target := filepath.Join(t.TempDir(), "elsewhere.json")
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o644))
	if err := os.Symlink(target, filepath.Join(dir, "thorin.json")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	err := s.SaveCharacter("s1", "Thorin", character.Create(character.CreateParams{Name: "Thorin"}))
	assert.True(t, errors.Is(err, ErrSymlink), "err = %v", err)

	data, _ := os.ReadFile(target)
	assert.Equal(t, "{}", string(data))
}

func TestCharacterPath_UnsafeNames(t *testing.T) {
	s := New(t.TempDir())
	tests := []struct{ session, name string }{
		{"", "Thorin"},
		{"..", "Thorin"},
		{"a/b", "Thorin"},
		{"s1", "../escape"},
		{"s1", ""},
		{"s1", `dir\name`},
	}
	for _, tt := range tests {
		_, err := s.CharacterPath(tt.session, tt.name)
		assert.True(t, errors.Is(err, ErrUnsafeName), "%q/%q: err = %v", tt.session, tt.name, err)
	}
}

func TestListCharacters_MissingSession(t *testing.T) {
	keys, err := New(t.TempDir()).ListCharacters("nope")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
