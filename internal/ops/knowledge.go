package ops

import (
	"context"
	stderrors "errors"

	"github.com/hpungsan/dmkit/internal/errors"
	"github.com/hpungsan/dmkit/internal/knowledge"
)

// knowledgeError converts a knowledge base failure into a DMError.
func knowledgeError(kind, identifier string, err error) error {
	switch {
	case stderrors.Is(err, knowledge.ErrNotFound):
		return errors.NewNotFoundMessage(trimSentinel(err, knowledge.ErrNotFound),
			map[string]any{"kind": kind, "identifier": identifier})
	case stderrors.Is(err, knowledge.ErrInvalidMode):
		return errors.NewInvalidInput(err.Error())
	default:
		return errors.NewIOFailure("read knowledge", err)
	}
}

// LookupKnowledgeInput contains parameters for LookupKnowledge.
type LookupKnowledgeInput struct {
	Query string
	Mode  string   // pattern (default) or literal
	Files []string // optional subset of knowledge keys
}

// LookupKnowledgeOutput contains the result of LookupKnowledge.
type LookupKnowledgeOutput struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
	*knowledge.SearchResult
}

// LookupKnowledge searches knowledge sections by pattern or literal text.
func LookupKnowledge(ctx context.Context, rt *Runtime, input LookupKnowledgeInput) (*LookupKnowledgeOutput, error) {
	if err := requireField("query", input.Query); err != nil {
		return nil, err
	}
	mode := input.Mode
	if mode == "" {
		mode = knowledge.ModePattern
	}
	res, err := rt.Knowledge.Search(input.Query, mode, input.Files)
	if err != nil {
		return nil, knowledgeError("query", input.Query, err)
	}
	if res.Results == nil {
		res.Results = []knowledge.FileSections{}
	}
	rt.log().Debug("knowledge searched", "query", input.Query, "mode", mode, "files", len(res.Results))
	return &LookupKnowledgeOutput{Status: StatusSuccess, Mode: mode, SearchResult: res}, nil
}

// ClassDetailsOutput contains the result of GetClassDetails.
type ClassDetailsOutput struct {
	Status  string              `json:"status"`
	Class   string              `json:"class"`
	Details []knowledge.Section `json:"details"`
}

// GetClassDetails returns the class sections mentioning className.
func GetClassDetails(ctx context.Context, rt *Runtime, className string) (*ClassDetailsOutput, error) {
	if err := requireField("class_name", className); err != nil {
		return nil, err
	}
	sections, err := rt.Knowledge.ClassDetails(className)
	if err != nil {
		return nil, knowledgeError("class", className, err)
	}
	return &ClassDetailsOutput{Status: StatusSuccess, Class: className, Details: sections}, nil
}

// EntryDetailsOutput is the result of a spell or monster lookup.
type EntryDetailsOutput struct {
	Status   string              `json:"status"`
	Name     string              `json:"name"`
	Source   string              `json:"source"`
	Sections []knowledge.Section `json:"sections"`
}

// GetSpellDetails returns the first spell file sections mentioning spellName.
func GetSpellDetails(ctx context.Context, rt *Runtime, spellName string) (*EntryDetailsOutput, error) {
	if err := requireField("spell_name", spellName); err != nil {
		return nil, err
	}
	fs, err := rt.Knowledge.SpellDetails(spellName)
	if err != nil {
		return nil, knowledgeError("spell", spellName, err)
	}
	return &EntryDetailsOutput{Status: StatusSuccess, Name: spellName, Source: fs.File, Sections: fs.Sections}, nil
}

// GetMonsterDetails returns the first monster file sections mentioning monsterName.
func GetMonsterDetails(ctx context.Context, rt *Runtime, monsterName string) (*EntryDetailsOutput, error) {
	if err := requireField("monster_name", monsterName); err != nil {
		return nil, err
	}
	fs, err := rt.Knowledge.MonsterDetails(monsterName)
	if err != nil {
		return nil, knowledgeError("monster", monsterName, err)
	}
	return &EntryDetailsOutput{Status: StatusSuccess, Name: monsterName, Source: fs.File, Sections: fs.Sections}, nil
}

// GuidanceOutput contains the result of GetDMGuidance.
type GuidanceOutput struct {
	Status string `json:"status"`
	*knowledge.Guidance
}

// GetDMGuidance returns the session management guide, or the sections of it
// matching topic.
func GetDMGuidance(ctx context.Context, rt *Runtime, topic string) (*GuidanceOutput, error) {
	g, err := rt.Knowledge.DMGuidance(topic)
	if err != nil {
		return nil, knowledgeError("topic", topic, err)
	}
	return &GuidanceOutput{Status: StatusSuccess, Guidance: g}, nil
}

// ListKnowledgeOutput contains the result of ListKnowledge.
type ListKnowledgeOutput struct {
	Status string            `json:"status"`
	Files  []knowledge.Entry `json:"knowledge_files"`
	Count  int               `json:"count"`
}

// ListKnowledge lists every knowledge file with a short description.
func ListKnowledge(ctx context.Context, rt *Runtime) (*ListKnowledgeOutput, error) {
	entries, err := rt.Knowledge.ListAll()
	if err != nil {
		return nil, knowledgeError("knowledge base", rt.Knowledge.Root, err)
	}
	return &ListKnowledgeOutput{Status: StatusSuccess, Files: entries, Count: len(entries)}, nil
}

// LoadKnowledgeOutput contains the result of LoadKnowledge.
type LoadKnowledgeOutput struct {
	Status string `json:"status"`
	*knowledge.Document
}

// LoadKnowledge returns the full content of one knowledge file.
func LoadKnowledge(ctx context.Context, rt *Runtime, key string) (*LoadKnowledgeOutput, error) {
	if err := requireField("file_key", key); err != nil {
		return nil, err
	}
	doc, err := rt.Knowledge.Load(key)
	if err != nil {
		return nil, knowledgeError("knowledge file", key, err)
	}
	return &LoadKnowledgeOutput{Status: StatusSuccess, Document: doc}, nil
}

// OutlineOutput contains the result of KnowledgeOutline.
type OutlineOutput struct {
	Status   string              `json:"status"`
	Key      string              `json:"file_key"`
	Headings []knowledge.Heading `json:"headings"`
}

// KnowledgeOutline returns the heading outline of one knowledge file.
func KnowledgeOutline(ctx context.Context, rt *Runtime, key string) (*OutlineOutput, error) {
	if err := requireField("file_key", key); err != nil {
		return nil, err
	}
	headings, err := rt.Knowledge.Outline(key)
	if err != nil {
		return nil, knowledgeError("knowledge file", key, err)
	}
	if headings == nil {
		headings = []knowledge.Heading{}
	}
	return &OutlineOutput{Status: StatusSuccess, Key: key, Headings: headings}, nil
}
