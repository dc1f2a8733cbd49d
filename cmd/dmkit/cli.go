package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/dmkit/internal/character"
	"github.com/hpungsan/dmkit/internal/errors"
	"github.com/hpungsan/dmkit/internal/ops"
	"github.com/hpungsan/dmkit/internal/web"
)

// maxStdinBytes bounds JSON read from stdin by `character update`.
const maxStdinBytes = 1 << 20

// deps carries what command actions need. It is nil while only help or
// version output is being rendered.
type deps struct {
	rt *ops.Runtime
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:    "dmkit",
		Usage:   "Dungeon Master toolkit: dice, characters, sessions, rules knowledge and campaigns",
		Version: Version,
		Commands: []*cli.Command{
			rollCmd(d),
			characterCmd(d),
			sessionCmd(d),
			knowledgeCmd(d),
			campaignCmd(d),
			webCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// sessionFlag is the required --session flag shared by the character commands.
func sessionFlag() cli.Flag {
	return &cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session name", Required: true}
}

// rollCmd creates the roll command.
func rollCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "roll",
		Usage:     "Roll dice in standard notation (e.g. 2d6+3)",
		ArgsUsage: "<notation>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Journal the roll under this session"},
		},
		Action: func(c *cli.Context) error {
			notation, err := requireArg(c, 0, "notation")
			if err != nil {
				return outputError(err)
			}
			return output(ops.RollDice(c.Context, d.rt, ops.RollDiceInput{
				Notation: notation,
				Session:  c.String("session"),
			}))
		},
	}
}

// characterCmd groups the character sheet commands.
func characterCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "character",
		Usage: "Create, inspect and edit character sheets",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a character sheet (unset values use the standard defaults)",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					sessionFlag(),
					&cli.StringFlag{Name: "class", Usage: "Character class"},
					&cli.StringFlag{Name: "race", Usage: "Race"},
					&cli.StringFlag{Name: "background", Usage: "Background"},
					&cli.StringFlag{Name: "alignment", Usage: "Alignment"},
					&cli.IntFlag{Name: "level", Usage: "Level"},
					&cli.IntFlag{Name: "str", Usage: "Strength score"},
					&cli.IntFlag{Name: "dex", Usage: "Dexterity score"},
					&cli.IntFlag{Name: "con", Usage: "Constitution score"},
					&cli.IntFlag{Name: "int", Usage: "Intelligence score"},
					&cli.IntFlag{Name: "wis", Usage: "Wisdom score"},
					&cli.IntFlag{Name: "cha", Usage: "Charisma score"},
					&cli.IntFlag{Name: "hp", Usage: "Maximum hit points"},
					&cli.IntFlag{Name: "ac", Usage: "Armor class"},
				},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, 0, "character name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.CreateCharacter(c.Context, d.rt, ops.CreateCharacterInput{
						Session: c.String("session"),
						CreateParams: character.CreateParams{
							Name:         name,
							Class:        c.String("class"),
							Race:         c.String("race"),
							Background:   c.String("background"),
							Alignment:    c.String("alignment"),
							Level:        optionalInt(c, "level"),
							Strength:     optionalInt(c, "str"),
							Dexterity:    optionalInt(c, "dex"),
							Constitution: optionalInt(c, "con"),
							Intelligence: optionalInt(c, "int"),
							Wisdom:       optionalInt(c, "wis"),
							Charisma:     optionalInt(c, "cha"),
							HitPointsMax: optionalInt(c, "hp"),
							ArmorClass:   optionalInt(c, "ac"),
						},
					}))
				},
			},
			{
				Name:      "get",
				Usage:     "Print a character sheet",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{sessionFlag()},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, 0, "character name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.GetCharacter(c.Context, d.rt, ops.GetCharacterInput{Session: c.String("session"), Name: name}))
				},
			},
			{
				Name:      "update",
				Usage:     "Deep-merge a JSON object into a character sheet (--json or stdin)",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					sessionFlag(),
					&cli.StringFlag{Name: "json", Usage: `Updates as a JSON object, e.g. '{"basic_info":{"level":2}}'`},
				},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, 0, "character name")
					if err != nil {
						return outputError(err)
					}
					raw := c.String("json")
					if raw == "" {
						if !stdinHasData() {
							return outputError(errors.NewInvalidInput("updates must be given with --json or piped via stdin"))
						}
						if raw, err = readStdin(maxStdinBytes); err != nil {
							return outputError(errors.NewInvalidInput(err.Error()))
						}
					}
					var updates map[string]any
					if err := json.Unmarshal([]byte(raw), &updates); err != nil {
						return outputError(errors.NewInvalidInputf("updates must be a JSON object: %v", err))
					}
					return output(ops.UpdateCharacter(c.Context, d.rt, ops.UpdateCharacterInput{
						Session: c.String("session"),
						Name:    name,
						Updates: updates,
					}))
				},
			},
			{
				Name:      "append",
				Usage:     "Append values to a list on the sheet (e.g. --path equipment.gear --value rope)",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					sessionFlag(),
					&cli.StringFlag{Name: "path", Usage: "Dotted path to a list", Required: true},
					&cli.StringSliceFlag{Name: "value", Usage: "Value to append (repeatable; JSON values are decoded)", Required: true},
				},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, 0, "character name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.AppendCharacterList(c.Context, d.rt, ops.AppendCharacterListInput{
						Session: c.String("session"),
						Name:    name,
						Path:    c.String("path"),
						Values:  parseValues(c.StringSlice("value")),
					}))
				},
			},
			{
				Name:      "note",
				Usage:     "Add a timestamped note to a character",
				ArgsUsage: "<name> <note...>",
				Flags:     []cli.Flag{sessionFlag()},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, 0, "character name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.AddCharacterNote(c.Context, d.rt, ops.AddCharacterNoteInput{
						Session: c.String("session"),
						Name:    name,
						Note:    restArgs(c, 1),
					}))
				},
			},
			{
				Name:      "validate",
				Usage:     "Report whether a character is ready to play",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{sessionFlag()},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, 0, "character name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.ValidateCharacter(c.Context, d.rt, ops.GetCharacterInput{Session: c.String("session"), Name: name}))
				},
			},
			{
				Name:  "guide",
				Usage: "Print the character creation guide",
				Action: func(c *cli.Context) error {
					return outputJSON(ops.CharacterCreationGuide())
				},
			},
		},
	}
}

// sessionCmd groups the game session commands.
func sessionCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Manage game sessions",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a game session",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dm", Usage: "Dungeon Master name (default: DM)"},
				},
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, 0, "session name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.CreateSession(c.Context, d.rt, ops.CreateSessionInput{Name: name, DMName: c.String("dm")}))
				},
			},
			{
				Name:  "list",
				Usage: "List game sessions",
				Action: func(c *cli.Context) error {
					return output(ops.ListSessions(c.Context, d.rt))
				},
			},
			{
				Name:      "show",
				Usage:     "Print a session's metadata and log",
				ArgsUsage: "<name>",
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, 0, "session name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.GetSession(c.Context, d.rt, name))
				},
			},
			{
				Name:      "add-character",
				Usage:     "Add a character to the session roster",
				ArgsUsage: "<session> <character>",
				Action: func(c *cli.Context) error {
					session, err := requireArg(c, 0, "session name")
					if err != nil {
						return outputError(err)
					}
					name, err := requireArg(c, 1, "character name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.AddCharacterToSession(c.Context, d.rt, ops.AddCharacterToSessionInput{Session: session, Name: name}))
				},
			},
			{
				Name:      "log",
				Usage:     "Append an entry to the session log",
				ArgsUsage: "<session> <entry...>",
				Action: func(c *cli.Context) error {
					session, err := requireArg(c, 0, "session name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.UpdateSessionLog(c.Context, d.rt, ops.UpdateSessionLogInput{Session: session, Entry: restArgs(c, 1)}))
				},
			},
			{
				Name:      "state",
				Usage:     "Read or change location, scene and combat state",
				ArgsUsage: "<session>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "action", Aliases: []string{"a"}, Value: ops.ActionGetState, Usage: "get_state|update_location|update_scene|start_combat|end_combat"},
					&cli.StringFlag{Name: "location", Usage: "New location (update_location)"},
					&cli.StringFlag{Name: "scene", Usage: "New scene (update_scene)"},
				},
				Action: func(c *cli.Context) error {
					session, err := requireArg(c, 0, "session name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.ManageGameState(c.Context, d.rt, ops.GameStateInput{
						Session:  session,
						Action:   c.String("action"),
						Location: c.String("location"),
						Scene:    c.String("scene"),
					}))
				},
			},
			{
				Name:      "history",
				Usage:     "List journal events for a session, newest first",
				ArgsUsage: "<session>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Only events of this kind (e.g. dice_roll)"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum events to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Events to skip"},
				},
				Action: func(c *cli.Context) error {
					session, err := requireArg(c, 0, "session name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.SessionHistory(c.Context, d.rt, ops.SessionHistoryInput{
						Session: session,
						Kind:    c.String("kind"),
						Limit:   c.Int("limit"),
						Offset:  c.Int("offset"),
					}))
				},
			},
		},
	}
}

// knowledgeCmd groups the rules knowledge commands.
func knowledgeCmd(d *deps) *cli.Command {
	byName := func(name, usage, arg string, fn func(*cli.Context, string) error) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			ArgsUsage: "<" + arg + ">",
			Action: func(c *cli.Context) error {
				value, err := requireArg(c, 0, arg)
				if err != nil {
					return outputError(err)
				}
				return fn(c, value)
			},
		}
	}

	return &cli.Command{
		Name:  "knowledge",
		Usage: "Browse and search the markdown rules knowledge base",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List knowledge files with descriptions",
				Action: func(c *cli.Context) error {
					return output(ops.ListKnowledge(c.Context, d.rt))
				},
			},
			{
				Name:      "search",
				Usage:     "Search knowledge sections",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "pattern", Usage: "pattern|literal"},
					&cli.StringSliceFlag{Name: "file", Aliases: []string{"f"}, Usage: "Restrict to these file keys (repeatable)"},
				},
				Action: func(c *cli.Context) error {
					query, err := requireArg(c, 0, "query")
					if err != nil {
						return outputError(err)
					}
					return output(ops.LookupKnowledge(c.Context, d.rt, ops.LookupKnowledgeInput{
						Query: query,
						Mode:  c.String("mode"),
						Files: c.StringSlice("file"),
					}))
				},
			},
			byName("show", "Print a knowledge file", "file key", func(c *cli.Context, key string) error {
				return output(ops.LoadKnowledge(c.Context, d.rt, key))
			}),
			byName("outline", "Print the heading outline of a knowledge file", "file key", func(c *cli.Context, key string) error {
				return output(ops.KnowledgeOutline(c.Context, d.rt, key))
			}),
			byName("class", "Print the sections describing a class", "class", func(c *cli.Context, name string) error {
				return output(ops.GetClassDetails(c.Context, d.rt, name))
			}),
			byName("spell", "Print the sections describing a spell", "spell", func(c *cli.Context, name string) error {
				return output(ops.GetSpellDetails(c.Context, d.rt, name))
			}),
			byName("monster", "Print the sections describing a monster", "monster", func(c *cli.Context, name string) error {
				return output(ops.GetMonsterDetails(c.Context, d.rt, name))
			}),
			byName("guidance", "Print DM guidance for a topic", "topic", func(c *cli.Context, topic string) error {
				return output(ops.GetDMGuidance(c.Context, d.rt, topic))
			}),
		},
	}
}

// campaignCmd groups the campaign commands.
func campaignCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "campaign",
		Usage: "Browse campaigns and manage campaign instances",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List campaigns",
				Action: func(c *cli.Context) error {
					return output(ops.ListCampaigns(c.Context, d.rt))
				},
			},
			{
				Name:      "load",
				Usage:     "Print a campaign skeleton",
				ArgsUsage: "<campaign>",
				Action: func(c *cli.Context) error {
					name, err := requireArg(c, 0, "campaign name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.LoadCampaign(c.Context, d.rt, name))
				},
			},
			{
				Name:      "create",
				Usage:     "Create a playable instance of a campaign template",
				ArgsUsage: "<template> <instance>",
				Action: func(c *cli.Context) error {
					template, err := requireArg(c, 0, "template name")
					if err != nil {
						return outputError(err)
					}
					instance, err := requireArg(c, 1, "instance name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.CreateCampaignInstance(c.Context, d.rt, ops.CreateCampaignInstanceInput{Template: template, Instance: instance}))
				},
			},
			{
				Name:      "log",
				Usage:     "Append an entry to a campaign instance log",
				ArgsUsage: "<instance> <entry...>",
				Action: func(c *cli.Context) error {
					instance, err := requireArg(c, 0, "instance name")
					if err != nil {
						return outputError(err)
					}
					return output(ops.LogCampaignEvent(c.Context, d.rt, ops.LogCampaignEventInput{Instance: instance, Entry: restArgs(c, 1)}))
				},
			},
		},
	}
}

// webCmd creates the web command.
func webCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the read-only browser UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: web.DefaultBind, Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: web.DefaultPort, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(d.rt, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, d.rt.Logger)
		},
	}
}

// Helper functions

// output prints an operation's result, or turns its error into a CLI exit.
func output(v any, err error) error {
	if err != nil {
		return outputError(err)
	}
	return outputJSON(v)
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if dmErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", dmErr.Code, dmErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// requireArg returns positional argument i or an INVALID_INPUT error naming it.
func requireArg(c *cli.Context, i int, name string) (string, error) {
	v := strings.TrimSpace(c.Args().Get(i))
	if v == "" {
		return "", errors.NewInvalidInputf("%s is required", name)
	}
	return v, nil
}

// optionalInt returns the flag value when it was given, or nil so the default applies.
func optionalInt(c *cli.Context, name string) *int {
	if !c.IsSet(name) {
		return nil
	}
	return character.Int(c.Int(name))
}

// restArgs joins the positional arguments from i on, so free text need not be quoted.
func restArgs(c *cli.Context, i int) string {
	args := c.Args().Slice()
	if i >= len(args) {
		return ""
	}
	return strings.Join(args[i:], " ")
}

// parseValues decodes each value as JSON when it parses, and keeps it as a
// string otherwise.
func parseValues(raw []string) []any {
	values := make([]any, 0, len(raw))
	for _, s := range raw {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			values = append(values, v)
			continue
		}
		values = append(values, s)
	}
	return values
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads at most limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("stdin exceeds %d bytes", limit)
	}
	return strings.TrimSpace(string(data)), nil
}
