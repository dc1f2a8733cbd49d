package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/dmkit/internal/character"
	"github.com/hpungsan/dmkit/internal/errors"
	"github.com/hpungsan/dmkit/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	rt *ops.Runtime
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(rt *ops.Runtime) *Handlers {
	return &Handlers{rt: rt}
}

// Request types for each tool

// SessionCharacterRequest addresses one character in a session.
type SessionCharacterRequest struct {
	Session   string `json:"session_name"`
	Character string `json:"character_name"`
}

// DiceRollRequest represents the arguments for dice_roll.
type DiceRollRequest struct {
	Notation string `json:"notation"`
	Session  string `json:"session_name,omitempty"`
}

// CharacterCreateRequest represents the arguments for character_create.
type CharacterCreateRequest struct {
	SessionCharacterRequest
	Class        string `json:"character_class,omitempty"`
	Race         string `json:"race,omitempty"`
	Background   string `json:"background,omitempty"`
	Alignment    string `json:"alignment,omitempty"`
	Level        *int   `json:"level,omitempty"`
	Strength     *int   `json:"strength,omitempty"`
	Dexterity    *int   `json:"dexterity,omitempty"`
	Constitution *int   `json:"constitution,omitempty"`
	Intelligence *int   `json:"intelligence,omitempty"`
	Wisdom       *int   `json:"wisdom,omitempty"`
	Charisma     *int   `json:"charisma,omitempty"`
	HitPointsMax *int   `json:"hit_points_max,omitempty"`
	ArmorClass   *int   `json:"armor_class,omitempty"`
}

// CharacterUpdateRequest represents the arguments for character_update.
type CharacterUpdateRequest struct {
	SessionCharacterRequest
	Updates map[string]any `json:"updates"`
}

// CharacterAppendRequest represents the arguments for character_append.
type CharacterAppendRequest struct {
	SessionCharacterRequest
	Path   string `json:"path"`
	Values []any  `json:"values"`
}

// CharacterAddNoteRequest represents the arguments for character_add_note.
type CharacterAddNoteRequest struct {
	SessionCharacterRequest
	Note string `json:"note"`
}

// SessionCreateRequest represents the arguments for session_create.
type SessionCreateRequest struct {
	Session string `json:"session_name"`
	DMName  string `json:"dm_name,omitempty"`
}

// SessionLogRequest represents the arguments for session_log.
type SessionLogRequest struct {
	Session string `json:"session_name"`
	Entry   string `json:"log_entry"`
}

// SessionStateRequest represents the arguments for session_state.
type SessionStateRequest struct {
	Session  string `json:"session_name"`
	Action   string `json:"action"`
	Location string `json:"location,omitempty"`
	Scene    string `json:"scene,omitempty"`
}

// SessionHistoryRequest represents the arguments for session_history.
type SessionHistoryRequest struct {
	Session string `json:"session_name"`
	Kind    string `json:"kind,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// KnowledgeLookupRequest represents the arguments for knowledge_lookup.
type KnowledgeLookupRequest struct {
	Query string   `json:"query"`
	Mode  string   `json:"mode,omitempty"`
	Files []string `json:"files,omitempty"`
}

// NameRequest carries the single name argument of the knowledge and campaign
// lookups. Only the field the tool declares is populated.
type NameRequest struct {
	ClassName    string `json:"class_name,omitempty"`
	SpellName    string `json:"spell_name,omitempty"`
	MonsterName  string `json:"monster_name,omitempty"`
	Topic        string `json:"topic,omitempty"`
	FileKey      string `json:"file_key,omitempty"`
	CampaignName string `json:"campaign_name,omitempty"`
}

// CampaignInstanceRequest represents the arguments for campaign_create_instance.
type CampaignInstanceRequest struct {
	Template string `json:"template_name"`
	Instance string `json:"instance_name"`
}

// CampaignLogRequest represents the arguments for campaign_log.
type CampaignLogRequest struct {
	Instance string `json:"instance_name"`
	Entry    string `json:"entry"`
}

// Handler implementations

// HandleDiceRoll handles the dice_roll tool call.
func (h *Handlers) HandleDiceRoll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DiceRollRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.RollDice(ctx, h.rt, ops.RollDiceInput{Notation: input.Notation, Session: input.Session}))
}

// HandleCharacterCreate handles the character_create tool call.
func (h *Handlers) HandleCharacterCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CharacterCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.CreateCharacter(ctx, h.rt, ops.CreateCharacterInput{
		Session: input.Session,
		CreateParams: character.CreateParams{
			Name:         input.Character,
			Class:        input.Class,
			Race:         input.Race,
			Background:   input.Background,
			Alignment:    input.Alignment,
			Level:        input.Level,
			Strength:     input.Strength,
			Dexterity:    input.Dexterity,
			Constitution: input.Constitution,
			Intelligence: input.Intelligence,
			Wisdom:       input.Wisdom,
			Charisma:     input.Charisma,
			HitPointsMax: input.HitPointsMax,
			ArmorClass:   input.ArmorClass,
		},
	}))
}

// HandleCharacterGet handles the character_get tool call.
func (h *Handlers) HandleCharacterGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionCharacterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.GetCharacter(ctx, h.rt, ops.GetCharacterInput{Session: input.Session, Name: input.Character}))
}

// HandleCharacterUpdate handles the character_update tool call.
func (h *Handlers) HandleCharacterUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CharacterUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	if input.Updates == nil {
		return errorResult(errors.NewInvalidInput("updates is required")), nil
	}
	return result(ops.UpdateCharacter(ctx, h.rt, ops.UpdateCharacterInput{
		Session: input.Session,
		Name:    input.Character,
		Updates: input.Updates,
	}))
}

// HandleCharacterAppend handles the character_append tool call.
func (h *Handlers) HandleCharacterAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CharacterAppendRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.AppendCharacterList(ctx, h.rt, ops.AppendCharacterListInput{
		Session: input.Session,
		Name:    input.Character,
		Path:    input.Path,
		Values:  input.Values,
	}))
}

// HandleCharacterAddNote handles the character_add_note tool call.
func (h *Handlers) HandleCharacterAddNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CharacterAddNoteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.AddCharacterNote(ctx, h.rt, ops.AddCharacterNoteInput{
		Session: input.Session,
		Name:    input.Character,
		Note:    input.Note,
	}))
}

// HandleCharacterValidate handles the character_validate tool call.
func (h *Handlers) HandleCharacterValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionCharacterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.ValidateCharacter(ctx, h.rt, ops.GetCharacterInput{Session: input.Session, Name: input.Character}))
}

// HandleCharacterGuide handles the character_guide tool call.
func (h *Handlers) HandleCharacterGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.CharacterCreationGuide())
}

// HandleSessionCreate handles the session_create tool call.
func (h *Handlers) HandleSessionCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.CreateSession(ctx, h.rt, ops.CreateSessionInput{Name: input.Session, DMName: input.DMName}))
}

// HandleSessionList handles the session_list tool call.
func (h *Handlers) HandleSessionList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return result(ops.ListSessions(ctx, h.rt))
}

// HandleSessionAddCharacter handles the session_add_character tool call.
func (h *Handlers) HandleSessionAddCharacter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionCharacterRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.AddCharacterToSession(ctx, h.rt, ops.AddCharacterToSessionInput{Session: input.Session, Name: input.Character}))
}

// HandleSessionLog handles the session_log tool call.
func (h *Handlers) HandleSessionLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionLogRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.UpdateSessionLog(ctx, h.rt, ops.UpdateSessionLogInput{Session: input.Session, Entry: input.Entry}))
}

// HandleSessionState handles the session_state tool call.
func (h *Handlers) HandleSessionState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionStateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.ManageGameState(ctx, h.rt, ops.GameStateInput{
		Session:  input.Session,
		Action:   input.Action,
		Location: input.Location,
		Scene:    input.Scene,
	}))
}

// HandleSessionHistory handles the session_history tool call.
func (h *Handlers) HandleSessionHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SessionHistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.SessionHistory(ctx, h.rt, ops.SessionHistoryInput{
		Session: input.Session,
		Kind:    input.Kind,
		Limit:   input.Limit,
		Offset:  input.Offset,
	}))
}

// HandleKnowledgeLookup handles the knowledge_lookup tool call.
func (h *Handlers) HandleKnowledgeLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[KnowledgeLookupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.LookupKnowledge(ctx, h.rt, ops.LookupKnowledgeInput{Query: input.Query, Mode: input.Mode, Files: input.Files}))
}

// HandleKnowledgeClass handles the knowledge_class tool call.
func (h *Handlers) HandleKnowledgeClass(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.GetClassDetails(ctx, h.rt, input.ClassName))
}

// HandleKnowledgeSpell handles the knowledge_spell tool call.
func (h *Handlers) HandleKnowledgeSpell(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.GetSpellDetails(ctx, h.rt, input.SpellName))
}

// HandleKnowledgeMonster handles the knowledge_monster tool call.
func (h *Handlers) HandleKnowledgeMonster(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.GetMonsterDetails(ctx, h.rt, input.MonsterName))
}

// HandleKnowledgeGuidance handles the knowledge_guidance tool call.
func (h *Handlers) HandleKnowledgeGuidance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.GetDMGuidance(ctx, h.rt, input.Topic))
}

// HandleKnowledgeList handles the knowledge_list tool call.
func (h *Handlers) HandleKnowledgeList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return result(ops.ListKnowledge(ctx, h.rt))
}

// HandleKnowledgeLoad handles the knowledge_load tool call.
func (h *Handlers) HandleKnowledgeLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.LoadKnowledge(ctx, h.rt, input.FileKey))
}

// HandleKnowledgeOutline handles the knowledge_outline tool call.
func (h *Handlers) HandleKnowledgeOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.KnowledgeOutline(ctx, h.rt, input.FileKey))
}

// HandleCampaignList handles the campaign_list tool call.
func (h *Handlers) HandleCampaignList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return result(ops.ListCampaigns(ctx, h.rt))
}

// HandleCampaignLoad handles the campaign_load tool call.
func (h *Handlers) HandleCampaignLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[NameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.LoadCampaign(ctx, h.rt, input.CampaignName))
}

// HandleCampaignCreateInstance handles the campaign_create_instance tool call.
func (h *Handlers) HandleCampaignCreateInstance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CampaignInstanceRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.CreateCampaignInstance(ctx, h.rt, ops.CreateCampaignInstanceInput{Template: input.Template, Instance: input.Instance}))
}

// HandleCampaignLog handles the campaign_log tool call.
func (h *Handlers) HandleCampaignLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CampaignLogRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}
	return result(ops.LogCampaignEvent(ctx, h.rt, ops.LogCampaignEventInput{Instance: input.Instance, Entry: input.Entry}))
}

// Result helpers

// result turns an operation's (output, error) pair into a tool result.
func result(out any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if dmErr, ok := errors.As(err); ok {
		status := "error"
		if dmErr.Code == errors.ErrNotFound {
			status = "not_found"
		}
		// Keep any context wrapped around the DMError ("items[2]: ...").
		message := strings.TrimSuffix(err.Error(), dmErr.Error()) + dmErr.Message
		payload = map[string]any{
			"status":        status,
			"error_message": message,
			"code":          dmErr.Code,
		}
		if dmErr.Code != errors.ErrInternal && dmErr.Details != nil {
			payload["details"] = dmErr.Details
		}
	} else {
		payload = map[string]any{
			"status":        "error",
			"error_message": "an internal error occurred",
			"code":          errors.ErrInternal,
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
