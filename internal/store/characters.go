package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hpungsan/dmkit/internal/character"
)

// CharacterPath returns the file path for (session, name).
func (s *FileStore) CharacterPath(session, name string) (string, error) {
	if err := ValidateName(session); err != nil {
		return "", err
	}
	key := character.StorageKey(name)
	if err := ValidateName(key); err != nil {
		return "", err
	}
	return filepath.Join(s.sessionDir(session), charactersDir, key+recordExt), nil
}

// SaveCharacter stamps c.Metadata.LastUpdated and writes the full record,
// creating the session and characters directories as needed.
func (s *FileStore) SaveCharacter(session, name string, c *character.Character) error {
	path, err := s.CharacterPath(session, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create characters dir: %w", err)
	}

	c.Metadata.LastUpdated = timestamp()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode character: %w", err)
	}
	if err := writeFileAtomic(path, append(data, '\n'), filePerm); err != nil {
		return fmt.Errorf("write character: %w", err)
	}
	return nil
}

// LoadCharacter reads the record for (session, name). Only syntax is checked:
// missing sections load as zero values.
func (s *FileStore) LoadCharacter(session, name string) (*character.Character, error) {
	path, err := s.CharacterPath(session, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: character %q in session %q", ErrNotFound, name, session)
		}
		return nil, fmt.Errorf("read character: %w", err)
	}

	c := &character.Character{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return c, nil
}

// ListCharacters returns the storage keys of characters saved in session, sorted.
func (s *FileStore) ListCharacters(session string) ([]string, error) {
	if err := ValidateName(session); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.sessionDir(session), charactersDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list characters: %w", err)
	}

	keys := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), recordExt))
	}
	sort.Strings(keys)
	return keys, nil
}
