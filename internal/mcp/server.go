package mcp

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/dmkit/internal/config"
	"github.com/hpungsan/dmkit/internal/logging"
	"github.com/hpungsan/dmkit/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"dice", "character", "session", "knowledge", "campaign"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"dice_roll": {diceRollToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleDiceRoll }},

	"character_create":   {characterCreateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCharacterCreate }},
	"character_get":      {characterGetToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCharacterGet }},
	"character_update":   {characterUpdateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCharacterUpdate }},
	"character_append":   {characterAppendToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCharacterAppend }},
	"character_add_note": {characterAddNoteToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCharacterAddNote }},
	"character_validate": {characterValidateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCharacterValidate }},
	"character_guide":    {characterGuideToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCharacterGuide }},

	"session_create":        {sessionCreateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionCreate }},
	"session_list":          {sessionListToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionList }},
	"session_add_character": {sessionAddCharacterToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionAddCharacter }},
	"session_log":           {sessionLogToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionLog }},
	"session_state":         {sessionStateToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionState }},
	"session_history":       {sessionHistoryToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleSessionHistory }},

	"knowledge_lookup":   {knowledgeLookupToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleKnowledgeLookup }},
	"knowledge_class":    {knowledgeClassToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleKnowledgeClass }},
	"knowledge_spell":    {knowledgeSpellToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleKnowledgeSpell }},
	"knowledge_monster":  {knowledgeMonsterToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleKnowledgeMonster }},
	"knowledge_guidance": {knowledgeGuidanceToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleKnowledgeGuidance }},
	"knowledge_list":     {knowledgeListToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleKnowledgeList }},
	"knowledge_load":     {knowledgeLoadToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleKnowledgeLoad }},
	"knowledge_outline":  {knowledgeOutlineToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleKnowledgeOutline }},

	"campaign_list":            {campaignListToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCampaignList }},
	"campaign_load":            {campaignLoadToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCampaignLoad }},
	"campaign_create_instance": {campaignCreateInstanceToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCampaignCreateInstance }},
	"campaign_log":             {campaignLogToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleCampaignLog }},
}

// AllToolNames returns all valid tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "dice_roll" → "dice").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the dmkit tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(rt *ops.Runtime, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"dmkit",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(rt)
	logger := rt.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	registered := 0
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
		registered++
	}
	logger.Info("mcp tools registered", "count", registered, "disabled", len(disabled))

	return s
}

// Run starts the MCP server using stdio transport.
func Run(rt *ops.Runtime, cfg *config.Config, version string) error {
	s := NewServer(rt, cfg, version)
	logger := rt.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return server.ServeStdio(s, server.WithErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)))
}
