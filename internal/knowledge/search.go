package knowledge

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Search modes.
const (
	ModePattern = "pattern"
	ModeLiteral = "literal"
)

// ErrInvalidMode is returned for an unknown search mode.
var ErrInvalidMode = errors.New("invalid search mode")

// FileSections are the matching sections of one file.
type FileSections struct {
	File     string    `json:"file"`
	Sections []Section `json:"sections"`
}

// SearchResult is the outcome of Search.
type SearchResult struct {
	Query         string         `json:"query"`
	Results       []FileSections `json:"results"`
	FilesSearched []string       `json:"files_searched"`
}

// NewMatcher returns the matcher for mode. An empty mode means pattern.
func NewMatcher(query, mode string) (Matcher, error) {
	switch strings.ToLower(mode) {
	case "", ModePattern:
		return PatternMatcher(query), nil
	case ModeLiteral:
		return LiteralMatcher(query), nil
	}
	return nil, fmt.Errorf("%w: %q (want %s or %s)", ErrInvalidMode, mode, ModePattern, ModeLiteral)
}

// Search runs query over every indexed file, or over the named keys when keys
// is non-empty. Unknown keys are ignored and unreadable files are skipped.
func (b *Base) Search(query, mode string, keys []string) (*SearchResult, error) {
	match, err := NewMatcher(query, mode)
	if err != nil {
		return nil, err
	}
	index, err := b.Index()
	if err != nil {
		return nil, err
	}

	searched := sortedKeys(index)
	if len(keys) > 0 {
		wanted := make(map[string]bool, len(keys))
		for _, k := range keys {
			wanted[k] = true
		}
		filtered := searched[:0]
		for _, k := range searched {
			if wanted[k] {
				filtered = append(filtered, k)
			}
		}
		searched = filtered
	}

	res := &SearchResult{Query: query, Results: []FileSections{}, FilesSearched: searched}
	for _, key := range searched {
		data, err := os.ReadFile(index[key])
		if err != nil {
			continue
		}
		if sections := ExtractSections(string(data), match); len(sections) > 0 {
			res.Results = append(res.Results, FileSections{File: key, Sections: sections})
		}
	}
	return res, nil
}

// ClassDetails returns the sections of the classes file that mention className.
func (b *Base) ClassDetails(className string) ([]Section, error) {
	doc, err := b.Load(ClassesKey)
	if err != nil {
		return nil, err
	}
	sections := ExtractSections(doc.Content, PatternMatcher(strings.ToLower(className)))
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: class '%s' not found in knowledge base", ErrNotFound, className)
	}
	return sections, nil
}

// SpellDetails searches the spell files in key order and returns the first file with a match.
func (b *Base) SpellDetails(spellName string) (*FileSections, error) {
	return b.firstMatch(SpellsPrefix, "spell", spellName)
}

// MonsterDetails searches the monster files in key order and returns the first file with a match.
func (b *Base) MonsterDetails(monsterName string) (*FileSections, error) {
	return b.firstMatch(MonstersPrefix, "monster", monsterName)
}

func (b *Base) firstMatch(prefix, kind, name string) (*FileSections, error) {
	index, err := b.Index()
	if err != nil {
		return nil, err
	}

	var candidates []string
	for _, key := range sortedKeys(index) {
		if strings.HasPrefix(key, prefix) {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no %s files found in knowledge base", ErrNotFound, kind)
	}

	match := PatternMatcher(name)
	for _, key := range candidates {
		data, err := os.ReadFile(index[key])
		if err != nil {
			continue
		}
		if sections := ExtractSections(string(data), match); len(sections) > 0 {
			return &FileSections{File: key, Sections: sections}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s '%s' not found in knowledge base", ErrNotFound, kind, name)
}

// Guidance is the result of DMGuidance: either the whole guide or the
// sections matching a topic.
type Guidance struct {
	Topic    string    `json:"topic,omitempty"`
	Sections []Section `json:"guidance,omitempty"`
	Content  string    `json:"content,omitempty"`
}

// DMGuidance returns the session management guide, narrowed to topic when given.
func (b *Base) DMGuidance(topic string) (*Guidance, error) {
	doc, err := b.Load(GuideKey)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(topic) == "" {
		return &Guidance{Content: doc.Content}, nil
	}

	sections := ExtractSections(doc.Content, PatternMatcher(strings.ToLower(topic)))
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: topic '%s' not found in session management guide", ErrNotFound, topic)
	}
	return &Guidance{Topic: topic, Sections: sections}, nil
}
