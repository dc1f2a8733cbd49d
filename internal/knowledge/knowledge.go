// Package knowledge indexes a directory of markdown rule files and searches
// them by heading-delimited section.
package knowledge

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Well-known keys and prefixes in the knowledge tree.
const (
	ClassesKey      = "classes_5e"
	GuideKey        = "session_management_guide"
	SpellsPrefix    = "player_handbook/spells/"
	MonstersPrefix  = "monster_manual/"
	markdownExt     = ".md"
	descriptionSpan = 10  // lines
	descriptionMax  = 200 // runes
)

// ErrNotFound is returned for unknown keys and lookups with no match.
var ErrNotFound = errors.New("not found")

// Base is a knowledge tree rooted at Root. Every call reads the filesystem;
// nothing is cached.
type Base struct {
	Root string
}

// New returns a Base rooted at root.
func New(root string) *Base {
	return &Base{Root: root}
}

// Document is a loaded knowledge file.
type Document struct {
	Key     string `json:"filename"`
	Path    string `json:"file_path"`
	Content string `json:"content"`
}

// Index maps slash-separated keys (relative path without ".md") to file paths.
// A missing root yields an empty index.
func (b *Base) Index() (map[string]string, error) {
	index := map[string]string{}
	if _, err := os.Stat(b.Root); errors.Is(err, os.ErrNotExist) {
		return index, nil
	}

	err := filepath.WalkDir(b.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != markdownExt {
			return nil
		}
		rel, err := filepath.Rel(b.Root, path)
		if err != nil {
			return err
		}
		index[filepath.ToSlash(strings.TrimSuffix(rel, markdownExt))] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index knowledge: %w", err)
	}
	return index, nil
}

// Keys returns the sorted index keys.
func (b *Base) Keys() ([]string, error) {
	index, err := b.Index()
	if err != nil {
		return nil, err
	}
	return sortedKeys(index), nil
}

func sortedKeys(index map[string]string) []string {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load returns the raw content for key. Unknown keys report every known key.
func (b *Base) Load(key string) (*Document, error) {
	index, err := b.Index()
	if err != nil {
		return nil, err
	}
	path, ok := index[key]
	if !ok {
		return nil, fmt.Errorf("%w: knowledge file %q (available: %s)", ErrNotFound, key, strings.Join(sortedKeys(index), ", "))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file %s: %w", key, err)
	}
	return &Document{Key: key, Path: path, Content: string(data)}, nil
}

// Entry describes one knowledge file for listings.
type Entry struct {
	Key         string `json:"key"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// ListAll describes every indexed file: its first ten lines, trimmed, cut to
// 200 runes and always followed by "...".
func (b *Base) ListAll() ([]Entry, error) {
	index, err := b.Index()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(index))
	for _, key := range sortedKeys(index) {
		path := index[key]
		desc := "Could not read file"
		if data, err := os.ReadFile(path); err == nil {
			desc = describe(string(data))
		}
		entries = append(entries, Entry{Key: key, Path: path, Description: desc})
	}
	return entries, nil
}

func describe(content string) string {
	lines := strings.SplitAfterN(content, "\n", descriptionSpan+1)
	if len(lines) > descriptionSpan {
		lines = lines[:descriptionSpan]
	}
	head := []rune(strings.TrimSpace(strings.Join(lines, "")))
	if len(head) > descriptionMax {
		head = head[:descriptionMax]
	}
	return string(head) + "..."
}
