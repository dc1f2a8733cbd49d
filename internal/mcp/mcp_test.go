package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/dmkit/internal/config"
	"github.com/hpungsan/dmkit/internal/db"
	"github.com/hpungsan/dmkit/internal/errors"
	"github.com/hpungsan/dmkit/internal/ops"
)

// testSetup creates a runtime over a temporary home with an open journal.
func testSetup(t *testing.T) (*ops.Runtime, *config.Config) {
	t.Helper()

	home := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Resolve(home)

	journal, err := db.Init(home)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	return ops.NewRuntime(cfg, journal, nil), cfg
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// call invokes a handler and fails the test on a transport-level error.
func call(t *testing.T, fn func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := fn(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return result
}

func TestHandleDiceRoll(t *testing.T) {
	rt, _ := testSetup(t)
	h := NewHandlers(rt)

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "single die",
			args: map[string]any{"notation": "1d1+2"},
		},
		{
			name: "journaled roll",
			args: map[string]any{"notation": "2d6", "session_name": "Friday"},
		},
		{
			name:      "bad notation",
			args:      map[string]any{"notation": "2x6"},
			wantError: true,
			errorCode: "INVALID_INPUT",
		},
		{
			name:      "wrong argument type",
			args:      map[string]any{"notation": 12},
			wantError: true,
			errorCode: "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, h.HandleDiceRoll, tt.args)
			if tt.wantError {
				if !result.IsError {
					t.Fatalf("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			if result.IsError {
				t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}

	out := parseOutput(t, call(t, h.HandleDiceRoll, map[string]any{"notation": "1d1+2"}))
	if out["total"] != float64(3) {
		t.Errorf("total = %v, want 3", out["total"])
	}
	if out["modifier"] != float64(2) {
		t.Errorf("modifier = %v, want 2", out["modifier"])
	}
}

func TestHandleCharacterLifecycle(t *testing.T) {
	rt, _ := testSetup(t)
	h := NewHandlers(rt)

	parseOutput(t, call(t, h.HandleSessionCreate, map[string]any{"session_name": "Friday", "dm_name": "Sam"}))

	created := parseOutput(t, call(t, h.HandleCharacterCreate, map[string]any{
		"session_name":    "Friday",
		"character_name":  "Aria",
		"character_class": "Wizard",
		"level":           3,
		"intelligence":    17,
	}))
	if created["character_key"] != "aria" {
		t.Errorf("character_key = %v, want aria", created["character_key"])
	}
	sheet := created["character"].(map[string]any)
	info := sheet["basic_info"].(map[string]any)
	if info["class"] != "Wizard" || info["level"] != float64(3) {
		t.Errorf("basic_info = %v", info)
	}

	t.Run("explicit zero level kept", func(t *testing.T) {
		out := parseOutput(t, call(t, h.HandleCharacterCreate, map[string]any{
			"session_name":   "Friday",
			"character_name": "Zed",
			"level":          0,
		}))
		info := out["character"].(map[string]any)["basic_info"].(map[string]any)
		if info["level"] != float64(0) {
			t.Errorf("level = %v, want 0", info["level"])
		}
	})

	t.Run("fractional level rejected", func(t *testing.T) {
		result := call(t, h.HandleCharacterCreate, map[string]any{
			"session_name":   "Friday",
			"character_name": "Bram",
			"level":          2.5,
		})
		assertErrorCode(t, result, "INVALID_INPUT")
	})

	t.Run("get", func(t *testing.T) {
		out := parseOutput(t, call(t, h.HandleCharacterGet, map[string]any{"session_name": "Friday", "character_name": "ARIA"}))
		if out["session_name"] != "Friday" {
			t.Errorf("session_name = %v", out["session_name"])
		}
	})

	t.Run("get missing", func(t *testing.T) {
		result := call(t, h.HandleCharacterGet, map[string]any{"session_name": "Friday", "character_name": "Nobody"})
		assertErrorCode(t, result, "NOT_FOUND")
		payload := decodePayload(t, result)
		if payload["status"] != "not_found" {
			t.Errorf("status = %v, want not_found", payload["status"])
		}
	})

	t.Run("update", func(t *testing.T) {
		out := parseOutput(t, call(t, h.HandleCharacterUpdate, map[string]any{
			"session_name":   "Friday",
			"character_name": "Aria",
			"updates":        map[string]any{"basic_info": map[string]any{"level": 4}},
		}))
		level := out["character"].(map[string]any)["basic_info"].(map[string]any)["level"]
		if level != float64(4) {
			t.Errorf("level = %v, want 4", level)
		}
	})

	t.Run("update without updates", func(t *testing.T) {
		result := call(t, h.HandleCharacterUpdate, map[string]any{"session_name": "Friday", "character_name": "Aria"})
		assertErrorCode(t, result, "INVALID_INPUT")
	})

	t.Run("append", func(t *testing.T) {
		out := parseOutput(t, call(t, h.HandleCharacterAppend, map[string]any{
			"session_name":   "Friday",
			"character_name": "Aria",
			"path":           "proficiencies.languages",
			"values":         []any{"Draconic"},
		}))
		langs := out["character"].(map[string]any)["proficiencies"].(map[string]any)["languages"].([]any)
		if langs[len(langs)-1] != "Draconic" {
			t.Errorf("languages = %v", langs)
		}
	})

	t.Run("add note", func(t *testing.T) {
		parseOutput(t, call(t, h.HandleCharacterAddNote, map[string]any{
			"session_name":   "Friday",
			"character_name": "Aria",
			"note":           "Owes the innkeeper 5 gp",
		}))
	})

	t.Run("validate", func(t *testing.T) {
		out := parseOutput(t, call(t, h.HandleCharacterValidate, map[string]any{"session_name": "Friday", "character_name": "Aria"}))
		if out["character_name"] != "Aria" {
			t.Errorf("character_name = %v", out["character_name"])
		}
		missing := parseOutput(t, call(t, h.HandleCharacterValidate, map[string]any{"session_name": "Friday", "character_name": "Ghost"}))
		if missing["status"] != "not_found" {
			t.Errorf("status = %v, want not_found", missing["status"])
		}
	})

	t.Run("guide", func(t *testing.T) {
		out := parseOutput(t, call(t, h.HandleCharacterGuide, nil))
		if _, ok := out["creation_prompts"]; !ok {
			t.Error("expected creation_prompts in guide")
		}
	})
}

func TestHandleSessionTools(t *testing.T) {
	rt, _ := testSetup(t)
	h := NewHandlers(rt)

	created := parseOutput(t, call(t, h.HandleSessionCreate, map[string]any{"session_name": "Friday"}))
	if !strings.Contains(created["message"].(string), "Friday") {
		t.Errorf("message = %v", created["message"])
	}

	t.Run("duplicate", func(t *testing.T) {
		assertErrorCode(t, call(t, h.HandleSessionCreate, map[string]any{"session_name": "Friday"}), "ALREADY_EXISTS")
	})

	t.Run("list", func(t *testing.T) {
		out := parseOutput(t, call(t, h.HandleSessionList, nil))
		if out["count"] != float64(1) {
			t.Errorf("count = %v, want 1", out["count"])
		}
	})

	t.Run("add character twice", func(t *testing.T) {
		first := parseOutput(t, call(t, h.HandleSessionAddCharacter, map[string]any{"session_name": "Friday", "character_name": "Aria"}))
		second := parseOutput(t, call(t, h.HandleSessionAddCharacter, map[string]any{"session_name": "Friday", "character_name": "Aria"}))
		if !strings.Contains(first["message"].(string), "added") {
			t.Errorf("first message = %v", first["message"])
		}
		if !strings.Contains(second["message"].(string), "already") {
			t.Errorf("second message = %v", second["message"])
		}
	})

	t.Run("log", func(t *testing.T) {
		parseOutput(t, call(t, h.HandleSessionLog, map[string]any{"session_name": "Friday", "log_entry": "The party met in a tavern."}))
		assertErrorCode(t, call(t, h.HandleSessionLog, map[string]any{"session_name": "Nope", "log_entry": "x"}), "NOT_FOUND")
	})

	t.Run("state", func(t *testing.T) {
		out := parseOutput(t, call(t, h.HandleSessionState, map[string]any{
			"session_name": "Friday",
			"action":       "update_location",
			"location":     "Waterdeep",
		}))
		if out["current_location"] != "Waterdeep" {
			t.Errorf("current_location = %v", out["current_location"])
		}
		out = parseOutput(t, call(t, h.HandleSessionState, map[string]any{"session_name": "Friday", "action": "start_combat"}))
		if out["in_combat"] != true {
			t.Errorf("in_combat = %v, want true", out["in_combat"])
		}
		assertErrorCode(t, call(t, h.HandleSessionState, map[string]any{"session_name": "Friday", "action": "dance"}), "INVALID_INPUT")
	})

	t.Run("history", func(t *testing.T) {
		out := parseOutput(t, call(t, h.HandleSessionHistory, map[string]any{"session_name": "Friday", "limit": 2}))
		events := out["events"].([]any)
		if len(events) != 2 {
			t.Fatalf("events = %d, want 2", len(events))
		}
		pagination := out["pagination"].(map[string]any)
		if pagination["has_more"] != true {
			t.Errorf("has_more = %v, want true", pagination["has_more"])
		}
		first := events[0].(map[string]any)
		if first["kind"] != db.KindGameState {
			t.Errorf("newest kind = %v, want %s", first["kind"], db.KindGameState)
		}

		filtered := parseOutput(t, call(t, h.HandleSessionHistory, map[string]any{"session_name": "Friday", "kind": db.KindSessionLog}))
		if len(filtered["events"].([]any)) != 1 {
			t.Errorf("session_log events = %v, want 1", filtered["events"])
		}
	})
}

func TestHandleKnowledgeTools(t *testing.T) {
	rt, _ := testSetup(t)
	h := NewHandlers(rt)

	root := rt.Knowledge.Root
	writeFile(t, filepath.Join(root, "classes_5e.md"), "# Classes\n\n## Fighter\nMartial combat.\n\n## Wizard\nArcane study.\n")
	writeFile(t, filepath.Join(root, "session_management_guide.md"), "# Guide\n\n## Combat\nKeep it moving.\n")
	writeFile(t, filepath.Join(root, "player_handbook", "spells", "level_1_spells.md"), "# Spells\n\n## Shield\nA barrier.\n")
	writeFile(t, filepath.Join(root, "monster_manual", "goblins.md"), "# Goblins\n\n## Goblin\nSmall.\n")

	tests := []struct {
		name      string
		fn        func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args      map[string]any
		errorCode string
	}{
		{name: "lookup", fn: h.HandleKnowledgeLookup, args: map[string]any{"query": "fighter"}},
		{name: "lookup bad mode", fn: h.HandleKnowledgeLookup, args: map[string]any{"query": "x", "mode": "fuzzy"}, errorCode: "INVALID_INPUT"},
		{name: "lookup empty query", fn: h.HandleKnowledgeLookup, args: map[string]any{}, errorCode: "INVALID_INPUT"},
		{name: "class", fn: h.HandleKnowledgeClass, args: map[string]any{"class_name": "Wizard"}},
		{name: "spell", fn: h.HandleKnowledgeSpell, args: map[string]any{"spell_name": "shield"}},
		{name: "spell missing", fn: h.HandleKnowledgeSpell, args: map[string]any{"spell_name": "wish"}, errorCode: "NOT_FOUND"},
		{name: "monster", fn: h.HandleKnowledgeMonster, args: map[string]any{"monster_name": "goblin"}},
		{name: "guidance", fn: h.HandleKnowledgeGuidance, args: map[string]any{"topic": "combat"}},
		{name: "list", fn: h.HandleKnowledgeList, args: nil},
		{name: "load", fn: h.HandleKnowledgeLoad, args: map[string]any{"file_key": "classes_5e"}},
		{name: "load missing", fn: h.HandleKnowledgeLoad, args: map[string]any{"file_key": "missing"}, errorCode: "NOT_FOUND"},
		{name: "outline", fn: h.HandleKnowledgeOutline, args: map[string]any{"file_key": "classes_5e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, tt.fn, tt.args)
			if tt.errorCode != "" {
				if !result.IsError {
					t.Fatalf("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			out := parseOutput(t, result)
			if out["status"] != "success" {
				t.Errorf("status = %v, want success", out["status"])
			}
		})
	}

	out := parseOutput(t, call(t, h.HandleKnowledgeList, nil))
	if out["count"] != float64(4) {
		t.Errorf("count = %v, want 4", out["count"])
	}
}

func TestHandleCampaignTools(t *testing.T) {
	rt, cfg := testSetup(t)
	h := NewHandlers(rt)

	writeFile(t, filepath.Join(cfg.CampaignsDir, "brew", "campaign_skeleton.md"), "# Brew\n")
	writeFile(t, filepath.Join(cfg.TemplatesDir, "brew", "npcs.md"), "# NPCs\n")

	list := parseOutput(t, call(t, h.HandleCampaignList, nil))
	if list["count"] != float64(1) {
		t.Errorf("count = %v, want 1", list["count"])
	}

	loaded := parseOutput(t, call(t, h.HandleCampaignLoad, map[string]any{"campaign_name": "brew"}))
	if !strings.Contains(loaded["content"].(string), "# Brew") {
		t.Errorf("content = %v", loaded["content"])
	}
	assertErrorCode(t, call(t, h.HandleCampaignLoad, map[string]any{"campaign_name": "nope"}), "NOT_FOUND")

	inst := parseOutput(t, call(t, h.HandleCampaignCreateInstance, map[string]any{"template_name": "brew", "instance_name": "party1"}))
	if inst["name"] != "brew_party1" {
		t.Errorf("name = %v, want brew_party1", inst["name"])
	}
	assertErrorCode(t, call(t, h.HandleCampaignCreateInstance, map[string]any{"template_name": "brew", "instance_name": "party1"}), "ALREADY_EXISTS")

	parseOutput(t, call(t, h.HandleCampaignLog, map[string]any{"instance_name": "brew_party1", "entry": "Session zero."}))
	assertErrorCode(t, call(t, h.HandleCampaignLog, map[string]any{"instance_name": "brew_party9", "entry": "x"}), "NOT_FOUND")
}

func TestServerRegistration(t *testing.T) {
	rt, cfg := testSetup(t)

	s := NewServer(rt, cfg, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	if len(tools) != 26 {
		t.Errorf("registered tool count = %d, want 26", len(tools))
	}

	for _, name := range AllToolNames() {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	rt, cfg := testSetup(t)

	cfg.DisabledTools = []string{"campaign_log", "session_history", "dice_roll"}
	s := NewServer(rt, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 23 {
		t.Errorf("registered tool count = %d, want 23", len(tools))
	}
	for _, name := range cfg.DisabledTools {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
	if _, ok := tools["character_get"]; !ok {
		t.Error("character_get should be registered")
	}
}

func TestServerRegistration_WithDisabledTypes(t *testing.T) {
	rt, cfg := testSetup(t)

	cfg.DisabledTypes = []string{"knowledge", "campaign"}
	s := NewServer(rt, cfg, "test")
	tools := s.ListTools()

	// 26 - 8 knowledge - 4 campaign
	if len(tools) != 14 {
		t.Errorf("registered tool count = %d, want 14", len(tools))
	}
	for name := range tools {
		if typ := GetTypeForTool(name); typ == "knowledge" || typ == "campaign" {
			t.Errorf("tool %q of disabled type %q registered", name, typ)
		}
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	rt, cfg := testSetup(t)

	cfg.DisabledTools = AllToolNames()
	s := NewServer(rt, cfg, "test")
	if tools := s.ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestServerRegistration_DuplicateDisabled(t *testing.T) {
	rt, cfg := testSetup(t)

	cfg.DisabledTools = []string{"dice_roll", "dice_roll", "dice_roll"}
	s := NewServer(rt, cfg, "test")
	tools := s.ListTools()

	if len(tools) != 25 {
		t.Errorf("registered tool count = %d, want 25", len(tools))
	}
}

func TestServerRegistration_NilRuntimeLogger(t *testing.T) {
	_, cfg := testSetup(t)
	rt := &ops.Runtime{}
	if s := NewServer(rt, cfg, "test"); s == nil {
		t.Fatal("NewServer returned nil")
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{name: "all valid", input: []string{"dice_roll", "campaign_log"}, wantLen: 0},
		{name: "one unknown", input: []string{"dice_roll", "fake_tool"}, wantLen: 1},
		{name: "all unknown", input: []string{"foo", "bar", "baz"}, wantLen: 3},
		{name: "empty list", input: []string{}, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestValidateDisabledTypes(t *testing.T) {
	unknown := ValidateDisabledTypes([]string{"dice", "spells", "campaign"})
	if len(unknown) != 1 || unknown[0] != "spells" {
		t.Errorf("ValidateDisabledTypes() = %v, want [spells]", unknown)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 26 {
		t.Errorf("AllToolNames() returned %d names, want 26", len(names))
	}

	for _, name := range names {
		typ := GetTypeForTool(name)
		if len(ValidateDisabledTypes([]string{typ})) != 0 {
			t.Errorf("tool %q has unknown type %q", name, typ)
		}
	}
}

func TestExpandTypesToTools(t *testing.T) {
	if got := ExpandTypesToTools(nil); got != nil {
		t.Errorf("ExpandTypesToTools(nil) = %v, want nil", got)
	}
	if got := ExpandTypesToTools([]string{"dice"}); len(got) != 1 || got[0] != "dice_roll" {
		t.Errorf("ExpandTypesToTools(dice) = %v", got)
	}
	if got := ExpandTypesToTools([]string{"session"}); len(got) != 6 {
		t.Errorf("ExpandTypesToTools(session) = %d tools, want 6", len(got))
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	payload := decodePayload(t, r)
	if payload["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", payload["code"], errors.ErrInternal)
	}
	if _, ok := payload["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
	if strings.Contains(payload["error_message"].(string), "secret.db") {
		t.Fatal("internal cause leaked into error_message")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrapped := fmt.Errorf("append values[2]: %w", errors.NewInvalidInput("value must be a string"))

	payload := decodePayload(t, errorResult(wrapped))
	if payload["code"] != string(errors.ErrInvalidInput) {
		t.Errorf("code=%v, want %v", payload["code"], errors.ErrInvalidInput)
	}
	msg := payload["error_message"].(string)
	if !strings.HasPrefix(msg, "append values[2]: ") || !strings.HasSuffix(msg, "value must be a string") {
		t.Errorf("error_message = %q", msg)
	}
	if payload["status"] != "error" {
		t.Errorf("status = %v, want error", payload["status"])
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	payload := decodePayload(t, errorResult(errors.NewNotFound("character", "Aria")))
	if payload["code"] != string(errors.ErrNotFound) {
		t.Fatalf("code=%v, want %v", payload["code"], errors.ErrNotFound)
	}
	if payload["status"] != "not_found" {
		t.Errorf("status = %v, want not_found", payload["status"])
	}
	if _, ok := payload["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

func TestErrorResult_PlainError(t *testing.T) {
	payload := decodePayload(t, errorResult(fmt.Errorf("boom")))
	if payload["code"] != string(errors.ErrInternal) {
		t.Errorf("code=%v, want INTERNAL", payload["code"])
	}
	if payload["error_message"] != "an internal error occurred" {
		t.Errorf("error_message = %v", payload["error_message"])
	}
}

// Helper functions

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

// decodePayload unmarshals the JSON text of an error result.
func decodePayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if !result.IsError {
		t.Fatalf("expected IsError=true")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not TextContent")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	payload := decodePayload(t, result)
	code, ok := payload["code"].(string)
	if !ok {
		t.Errorf("no code in error payload")
		return
	}
	if code != expectedCode {
		t.Errorf("got error code %q, want %q (%v)", code, expectedCode, payload["error_message"])
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
