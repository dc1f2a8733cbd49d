package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Shared parameter options.
var (
	sessionParam = mcp.WithString("session_name",
		mcp.Required(),
		mcp.Description("Name of the game session"),
	)
	characterParam = mcp.WithString("character_name",
		mcp.Required(),
		mcp.Description("Name of the character (case and spacing are ignored for lookup)"),
	)
)

var diceRollToolDef = mcp.NewTool("dice_roll",
	mcp.WithDescription("Roll dice using standard D&D notation (e.g. '1d20+5', '2d6', 'd8-1'). "+
		"Use for ability checks, attacks, damage, saving throws and any other random outcome."),
	mcp.WithString("notation",
		mcp.Required(),
		mcp.Description("Dice notation: [count]d<sides>[+/-modifier]"),
	),
	mcp.WithString("session_name",
		mcp.Description("Session to record the roll in (optional)"),
	),
)

var characterCreateToolDef = mcp.NewTool("character_create",
	mcp.WithDescription("Create a new character sheet in a session. Unspecified values use the standard "+
		"defaults: Fighter, Human, Soldier, Neutral, level 1, standard array 15/14/13/12/10/8, 10 HP, AC 15."),
	sessionParam,
	characterParam,
	mcp.WithString("character_class", mcp.Description("Class (default Fighter)")),
	mcp.WithString("race", mcp.Description("Race/species (default Human)")),
	mcp.WithString("background", mcp.Description("Background (default Soldier)")),
	mcp.WithString("alignment", mcp.Description("Alignment (default Neutral)")),
	mcp.WithNumber("level", mcp.Description("Character level (default 1)")),
	mcp.WithNumber("strength", mcp.Description("Strength score (default 15)")),
	mcp.WithNumber("dexterity", mcp.Description("Dexterity score (default 14)")),
	mcp.WithNumber("constitution", mcp.Description("Constitution score (default 13)")),
	mcp.WithNumber("intelligence", mcp.Description("Intelligence score (default 12)")),
	mcp.WithNumber("wisdom", mcp.Description("Wisdom score (default 10)")),
	mcp.WithNumber("charisma", mcp.Description("Charisma score (default 8)")),
	mcp.WithNumber("hit_points_max", mcp.Description("Maximum hit points (default 10)")),
	mcp.WithNumber("armor_class", mcp.Description("Armor class (default 15)")),
)

var characterGetToolDef = mcp.NewTool("character_get",
	mcp.WithDescription("Load a character sheet."),
	sessionParam,
	characterParam,
)

var characterUpdateToolDef = mcp.NewTool("character_update",
	mcp.WithDescription("Deep-merge updates into a character sheet. Nested objects merge key by key; "+
		"any list given replaces the stored list entirely (use character_append to add items). "+
		"Derived values such as modifiers are not recomputed."),
	sessionParam,
	characterParam,
	mcp.WithObject("updates",
		mcp.Required(),
		mcp.Description("Partial sheet, e.g. {\"combat_stats\": {\"hit_points\": {\"current\": 7}}}"),
	),
)

var characterAppendToolDef = mcp.NewTool("character_append",
	mcp.WithDescription("Append items to a list on a character sheet, e.g. equipment.weapons or attacks."),
	sessionParam,
	characterParam,
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Dotted path to the list (e.g. 'equipment.weapons', 'attacks', 'proficiencies.languages')"),
	),
	mcp.WithArray("values",
		mcp.Required(),
		mcp.Description("Items to append; each must match the list's element shape"),
	),
)

var characterAddNoteToolDef = mcp.NewTool("character_add_note",
	mcp.WithDescription("Add a timestamped note to a character under the current session."),
	sessionParam,
	characterParam,
	mcp.WithString("note", mcp.Required(), mcp.Description("Note text")),
)

var characterValidateToolDef = mcp.NewTool("character_validate",
	mcp.WithDescription("Check whether a character has the minimum information to start play. "+
		"Status is ready, mostly_ready, not_ready or not_found."),
	sessionParam,
	characterParam,
)

var characterGuideToolDef = mcp.NewTool("character_guide",
	mcp.WithDescription("Get the guided character creation prompts and the minimum requirements checklist."),
)

var sessionCreateToolDef = mcp.NewTool("session_create",
	mcp.WithDescription("Create a new game session with its metadata and log."),
	sessionParam,
	mcp.WithString("dm_name", mcp.Description("Dungeon Master name (default DM)")),
)

var sessionListToolDef = mcp.NewTool("session_list",
	mcp.WithDescription("List all game sessions."),
)

var sessionAddCharacterToolDef = mcp.NewTool("session_add_character",
	mcp.WithDescription("Add a character to the session roster."),
	sessionParam,
	characterParam,
)

var sessionLogToolDef = mcp.NewTool("session_log",
	mcp.WithDescription("Append a timestamped entry to the session log."),
	sessionParam,
	mcp.WithString("log_entry", mcp.Required(), mcp.Description("What happened")),
)

var sessionStateToolDef = mcp.NewTool("session_state",
	mcp.WithDescription("Get or update the game state of a session: location, scene, roster and combat flag."),
	sessionParam,
	mcp.WithString("action",
		mcp.Required(),
		mcp.Description("What to do"),
		mcp.Enum("get_state", "update_location", "update_scene", "start_combat", "end_combat"),
	),
	mcp.WithString("location", mcp.Description("New location (update_location)")),
	mcp.WithString("scene", mcp.Description("New scene description (update_scene)")),
)

var sessionHistoryToolDef = mcp.NewTool("session_history",
	mcp.WithDescription("List journaled session events (rolls, character changes, log entries), newest first."),
	sessionParam,
	mcp.WithString("kind", mcp.Description("Filter by event kind (e.g. dice_roll, session_log)")),
	mcp.WithNumber("limit", mcp.Description("Max events (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Events to skip"), mcp.Min(0)),
)

var knowledgeLookupToolDef = mcp.NewTool("knowledge_lookup",
	mcp.WithDescription("Search the knowledge base by heading-delimited section. Pattern mode treats the query "+
		"as a case-insensitive regular expression; literal mode matches plain text."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Search text or pattern")),
	mcp.WithString("mode",
		mcp.Description("pattern (default) or literal"),
		mcp.Enum("pattern", "literal"),
	),
	mcp.WithArray("files",
		mcp.Description("Restrict the search to these knowledge keys"),
		mcp.WithStringItems(),
	),
)

var knowledgeClassToolDef = mcp.NewTool("knowledge_class",
	mcp.WithDescription("Get details about a D&D 5e class."),
	mcp.WithString("class_name", mcp.Required(), mcp.Description("Class name, e.g. Fighter")),
)

var knowledgeSpellToolDef = mcp.NewTool("knowledge_spell",
	mcp.WithDescription("Look up a spell in the spell reference files."),
	mcp.WithString("spell_name", mcp.Required(), mcp.Description("Spell name, e.g. Magic Missile")),
)

var knowledgeMonsterToolDef = mcp.NewTool("knowledge_monster",
	mcp.WithDescription("Look up a monster in the monster reference files."),
	mcp.WithString("monster_name", mcp.Required(), mcp.Description("Monster name, e.g. Goblin")),
)

var knowledgeGuidanceToolDef = mcp.NewTool("knowledge_guidance",
	mcp.WithDescription("Get session management guidance for the DM, optionally narrowed to a topic."),
	mcp.WithString("topic", mcp.Description("Topic, e.g. combat or pacing (omit for the whole guide)")),
)

var knowledgeListToolDef = mcp.NewTool("knowledge_list",
	mcp.WithDescription("List the knowledge files with a short description of each."),
)

var knowledgeLoadToolDef = mcp.NewTool("knowledge_load",
	mcp.WithDescription("Load the full content of one knowledge file."),
	mcp.WithString("file_key", mcp.Required(), mcp.Description("Knowledge key, e.g. player_handbook/spells/level_1_spells")),
)

var knowledgeOutlineToolDef = mcp.NewTool("knowledge_outline",
	mcp.WithDescription("Get the heading outline of one knowledge file."),
	mcp.WithString("file_key", mcp.Required(), mcp.Description("Knowledge key")),
)

var campaignListToolDef = mcp.NewTool("campaign_list",
	mcp.WithDescription("List the available campaigns."),
)

var campaignLoadToolDef = mcp.NewTool("campaign_load",
	mcp.WithDescription("Load a campaign's skeleton document."),
	mcp.WithString("campaign_name", mcp.Required(), mcp.Description("Campaign directory name")),
)

var campaignCreateInstanceToolDef = mcp.NewTool("campaign_create_instance",
	mcp.WithDescription("Create a playable instance of a campaign template with its own progress sheet and log."),
	mcp.WithString("template_name", mcp.Required(), mcp.Description("Template name")),
	mcp.WithString("instance_name", mcp.Required(), mcp.Description("Instance name, e.g. party1")),
)

var campaignLogToolDef = mcp.NewTool("campaign_log",
	mcp.WithDescription("Append an event to a campaign instance's log."),
	mcp.WithString("instance_name", mcp.Required(), mcp.Description("Instance directory name, e.g. brew_party1")),
	mcp.WithString("entry", mcp.Required(), mcp.Description("What happened")),
)
