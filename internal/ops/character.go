package ops

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/hpungsan/dmkit/internal/character"
	"github.com/hpungsan/dmkit/internal/db"
	"github.com/hpungsan/dmkit/internal/errors"
	"github.com/hpungsan/dmkit/internal/store"
)

// CharacterOutput is the result of every operation that returns a sheet.
type CharacterOutput struct {
	Status    string               `json:"status"`
	Message   string               `json:"message,omitempty"`
	Session   string               `json:"session_name"`
	Key       string               `json:"character_key"`
	Character *character.Character `json:"character"`
}

// CreateCharacterInput contains parameters for the CreateCharacter operation.
// Zero values select the standard defaults.
type CreateCharacterInput struct {
	Session string
	character.CreateParams
}

// CreateCharacter builds a sheet from defaults plus input and saves it. When
// the session already exists the character is also registered in its metadata.
func CreateCharacter(ctx context.Context, rt *Runtime, input CreateCharacterInput) (*CharacterOutput, error) {
	if err := requireField("session_name", input.Session); err != nil {
		return nil, err
	}
	if err := requireField("character_name", input.Name); err != nil {
		return nil, err
	}

	c := character.Create(input.CreateParams)
	if err := rt.Store.SaveCharacter(input.Session, input.Name, c); err != nil {
		return nil, storeError("save character", err)
	}
	rt.log().Info("character created", "session", input.Session, "character", input.Name, "class", c.BasicInfo.Class)

	if sess, err := rt.Store.OpenSession(input.Session); err == nil {
		if _, err := sess.AddCharacter(input.Name); err != nil {
			rt.log().Warn("register character in session failed", "session", input.Session, "character", input.Name, "error", err)
		}
	}

	rt.record(ctx, input.Session, db.KindCharacterCreate,
		fmt.Sprintf("created %s, level %d %s %s", input.Name, c.BasicInfo.Level, c.BasicInfo.Race, c.BasicInfo.Class),
		map[string]any{"character": input.Name})

	return &CharacterOutput{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("Character '%s' created", input.Name),
		Session:   input.Session,
		Key:       character.StorageKey(input.Name),
		Character: c,
	}, nil
}

// GetCharacterInput addresses one character.
type GetCharacterInput struct {
	Session string
	Name    string
}

// GetCharacter loads a saved sheet.
func GetCharacter(ctx context.Context, rt *Runtime, input GetCharacterInput) (*CharacterOutput, error) {
	c, err := rt.loadCharacter(input.Session, input.Name)
	if err != nil {
		return nil, err
	}
	rt.log().Debug("character loaded", "session", input.Session, "character", input.Name)
	return &CharacterOutput{
		Status:    StatusSuccess,
		Session:   input.Session,
		Key:       character.StorageKey(input.Name),
		Character: c,
	}, nil
}

func (rt *Runtime) loadCharacter(session, name string) (*character.Character, error) {
	if err := requireField("session_name", session); err != nil {
		return nil, err
	}
	if err := requireField("character_name", name); err != nil {
		return nil, err
	}
	c, err := rt.Store.LoadCharacter(session, name)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, characterNotFound(session, name)
		}
		return nil, storeError("load character", err)
	}
	return c, nil
}

// saveCharacter persists c and journals the change.
func (rt *Runtime) saveCharacter(ctx context.Context, session, name string, c *character.Character, kind, summary string, payload any) (*CharacterOutput, error) {
	if err := rt.Store.SaveCharacter(session, name, c); err != nil {
		return nil, storeError("save character", err)
	}
	rt.record(ctx, session, kind, summary, payload)
	return &CharacterOutput{
		Status:    StatusSuccess,
		Session:   session,
		Key:       character.StorageKey(name),
		Character: c,
	}, nil
}

// UpdateCharacterInput contains parameters for the UpdateCharacter operation.
type UpdateCharacterInput struct {
	Session string
	Name    string
	Updates map[string]any
}

// UpdateCharacter deep-merges Updates into the saved sheet. Lists in Updates
// replace the stored list.
func UpdateCharacter(ctx context.Context, rt *Runtime, input UpdateCharacterInput) (*CharacterOutput, error) {
	c, err := rt.loadCharacter(input.Session, input.Name)
	if err != nil {
		return nil, err
	}
	updated, err := character.Update(c, input.Updates)
	if err != nil {
		if stderrors.Is(err, character.ErrInvalidPatch) {
			return nil, errors.NewInvalidInput(err.Error())
		}
		return nil, errors.NewInternal(err)
	}

	out, err := rt.saveCharacter(ctx, input.Session, input.Name, updated,
		db.KindCharacterUpdate, fmt.Sprintf("updated %s", input.Name),
		map[string]any{"character": input.Name, "updates": input.Updates})
	if err != nil {
		return nil, err
	}
	rt.log().Info("character updated", "session", input.Session, "character", input.Name, "fields", len(input.Updates))
	out.Message = fmt.Sprintf("Character '%s' updated", input.Name)
	return out, nil
}

// AppendCharacterListInput contains parameters for the AppendCharacterList operation.
type AppendCharacterListInput struct {
	Session string
	Name    string
	Path    string // dotted path to a list, e.g. "equipment.weapons"
	Values  []any
}

// AppendCharacterList appends Values to the list at Path.
func AppendCharacterList(ctx context.Context, rt *Runtime, input AppendCharacterListInput) (*CharacterOutput, error) {
	if err := requireField("path", input.Path); err != nil {
		return nil, err
	}
	if len(input.Values) == 0 {
		return nil, errors.NewInvalidInput("values must not be empty")
	}
	c, err := rt.loadCharacter(input.Session, input.Name)
	if err != nil {
		return nil, err
	}
	updated, err := character.AppendToList(c, input.Path, input.Values)
	if err != nil {
		if stderrors.Is(err, character.ErrInvalidPatch) {
			return nil, errors.NewInvalidInput(err.Error())
		}
		return nil, errors.NewInternal(err)
	}

	out, err := rt.saveCharacter(ctx, input.Session, input.Name, updated,
		db.KindCharacterUpdate, fmt.Sprintf("appended %d to %s of %s", len(input.Values), input.Path, input.Name),
		map[string]any{"character": input.Name, "path": input.Path, "values": input.Values})
	if err != nil {
		return nil, err
	}
	rt.log().Info("character list appended", "session", input.Session, "character", input.Name, "path", input.Path)
	out.Message = fmt.Sprintf("Appended %d item(s) to %s", len(input.Values), input.Path)
	return out, nil
}

// AddCharacterNoteInput contains parameters for the AddCharacterNote operation.
type AddCharacterNoteInput struct {
	Session string
	Name    string
	Note    string
}

// AddCharacterNote appends a timestamped note under the current session.
func AddCharacterNote(ctx context.Context, rt *Runtime, input AddCharacterNoteInput) (*CharacterOutput, error) {
	if err := requireField("note", input.Note); err != nil {
		return nil, err
	}
	c, err := rt.loadCharacter(input.Session, input.Name)
	if err != nil {
		return nil, err
	}
	updated, err := character.AddNote(c, input.Note, input.Session)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	out, err := rt.saveCharacter(ctx, input.Session, input.Name, updated,
		db.KindCharacterNote, fmt.Sprintf("note on %s: %s", input.Name, truncate(input.Note, 50)),
		map[string]any{"character": input.Name, "note": input.Note})
	if err != nil {
		return nil, err
	}
	rt.log().Info("character note added", "session", input.Session, "character", input.Name)
	out.Message = fmt.Sprintf("Note added to '%s'", input.Name)
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// ValidateCharacterOutput is the readiness report for one character.
type ValidateCharacterOutput struct {
	Session string `json:"session_name"`
	Name    string `json:"character_name"`
	character.Readiness
}

// ValidateCharacter reports whether a character is ready to play. A missing
// character is reported with status not_found rather than as an error.
func ValidateCharacter(ctx context.Context, rt *Runtime, input GetCharacterInput) (*ValidateCharacterOutput, error) {
	c, err := rt.loadCharacter(input.Session, input.Name)
	if err != nil {
		// Unreadable records count as not found too.
		if errors.Is(err, errors.ErrNotFound) || errors.Is(err, errors.ErrIOFailure) {
			return &ValidateCharacterOutput{
				Session:   input.Session,
				Name:      input.Name,
				Readiness: character.NotFoundReadiness(input.Session, input.Name),
			}, nil
		}
		return nil, err
	}
	r := character.ValidateReadiness(c)
	rt.log().Debug("character validated", "session", input.Session, "character", input.Name, "status", r.Status)
	return &ValidateCharacterOutput{Session: input.Session, Name: input.Name, Readiness: r}, nil
}

// CharacterGuideOutput carries the guided creation prompts and checklist.
type CharacterGuideOutput struct {
	Status              string                 `json:"status"`
	CreationPrompts     map[string]string      `json:"creation_prompts"`
	MinimumRequirements character.Requirements `json:"minimum_requirements"`
}

// CharacterCreationGuide returns the creation prompts and requirement checklist.
func CharacterCreationGuide() *CharacterGuideOutput {
	return &CharacterGuideOutput{
		Status:              StatusSuccess,
		CreationPrompts:     character.CreationPrompts(),
		MinimumRequirements: character.MinimumRequirements(),
	}
}
