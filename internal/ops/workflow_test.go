package ops

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/dmkit/internal/character"
	"github.com/hpungsan/dmkit/internal/db"
)

// TestFullWorkflow exercises a session from creation to play:
// create session → create character → update → append → note → validate →
// log → game state → history
func TestFullWorkflow(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Roller = &scriptedRoller{values: []int{14}}
	session := "Dragon Heist"

	// 1. Create session
	sessOut, err := CreateSession(ctx, rt, CreateSessionInput{Name: session, DMName: "Sam"})
	require.NoError(t, err)
	require.Equal(t, "Sam", sessOut.Metadata.DMName)

	// 2. Create character; it joins the session roster
	createOut, err := CreateCharacter(ctx, rt, CreateCharacterInput{
		Session:      session,
		CreateParams: character.CreateParams{Name: "Thorin Oakenshield", Class: "Paladin", Race: "Dwarf", Level: character.Int(5)},
	})
	require.NoError(t, err)
	require.Equal(t, "thorin_oakenshield", createOut.Key)
	require.Equal(t, 3, createOut.Character.ProficiencyBonus)

	state, err := ManageGameState(ctx, rt, GameStateInput{Session: session})
	require.NoError(t, err)
	require.Equal(t, []string{"Thorin Oakenshield"}, state.Characters)

	// Adding again is a no-op
	addOut, err := AddCharacterToSession(ctx, rt, AddCharacterToSessionInput{Session: session, Name: "Thorin Oakenshield"})
	require.NoError(t, err)
	require.Equal(t, "Character 'Thorin Oakenshield' already in session", addOut.Message)

	// 3. Fresh sheet has no attacks: ready, with a warning
	valid, err := ValidateCharacter(ctx, rt, GetCharacterInput{Session: session, Name: "Thorin Oakenshield"})
	require.NoError(t, err)
	require.Equal(t, character.StatusReady, valid.Status)
	require.Len(t, valid.Warnings, 1)

	// 4. Update hit points and replace the weapon list
	updateOut, err := UpdateCharacter(ctx, rt, UpdateCharacterInput{
		Session: session,
		Name:    "Thorin Oakenshield",
		Updates: map[string]any{
			"combat_stats": map[string]any{"hit_points": map[string]any{"current": 7}},
			"equipment":    map[string]any{"weapons": []any{"Warhammer"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 7, updateOut.Character.CombatStats.HitPoints.Current)
	require.Equal(t, 10, updateOut.Character.CombatStats.HitPoints.Maximum)
	require.Equal(t, []string{"Warhammer"}, updateOut.Character.Equipment.Weapons)

	// 5. Append an attack
	appendOut, err := AppendCharacterList(ctx, rt, AppendCharacterListInput{
		Session: session,
		Name:    "Thorin Oakenshield",
		Path:    "attacks",
		Values:  []any{map[string]any{"name": "Warhammer", "attack_bonus": 5, "damage": "1d8+3"}},
	})
	require.NoError(t, err)
	require.Len(t, appendOut.Character.Attacks, 1)
	require.Equal(t, "1d8+3", appendOut.Character.Attacks[0].Damage)

	valid, err = ValidateCharacter(ctx, rt, GetCharacterInput{Session: session, Name: "Thorin Oakenshield"})
	require.NoError(t, err)
	require.Equal(t, character.StatusReady, valid.Status)
	require.Empty(t, valid.Warnings)

	// 6. Notes accumulate under the session
	for _, note := range []string{"Swore an oath", "Lost his shield"} {
		_, err = AddCharacterNote(ctx, rt, AddCharacterNoteInput{Session: session, Name: "Thorin Oakenshield", Note: note})
		require.NoError(t, err)
	}
	getOut, err := GetCharacter(ctx, rt, GetCharacterInput{Session: session, Name: "thorin oakenshield"})
	require.NoError(t, err)
	require.Len(t, getOut.Character.Notes[session], 2)
	require.Equal(t, "Swore an oath", getOut.Character.Notes[session][0].Note)

	// 7. Play: roll, log, move
	rollOut, err := RollDice(ctx, rt, RollDiceInput{Notation: "1d20+2", Session: session})
	require.NoError(t, err)
	require.Equal(t, 16, rollOut.Total)

	_, err = UpdateSessionLog(ctx, rt, UpdateSessionLogInput{Session: session, Entry: "The party entered Yawning Portal"})
	require.NoError(t, err)

	_, err = ManageGameState(ctx, rt, GameStateInput{Session: session, Action: ActionUpdateLocation, Location: "Yawning Portal"})
	require.NoError(t, err)

	sess, err := rt.Store.OpenSession(session)
	require.NoError(t, err)
	log, err := sess.ReadLog()
	require.NoError(t, err)
	require.Contains(t, log, "- Character 'Thorin Oakenshield' joined the session")
	require.True(t, strings.HasSuffix(strings.TrimSpace(log), "The party entered Yawning Portal"))

	// 8. History, newest first
	hist, err := SessionHistory(ctx, rt, SessionHistoryInput{Session: session, Limit: 100})
	require.NoError(t, err)
	kinds := make([]string, len(hist.Events))
	for i, e := range hist.Events {
		kinds[i] = e.Kind
	}
	require.Equal(t, db.KindGameState, kinds[0])
	require.Contains(t, kinds, db.KindSessionCreate)
	require.Contains(t, kinds, db.KindCharacterCreate)
	require.Contains(t, kinds, db.KindCharacterNote)
	require.Contains(t, kinds, db.KindDiceRoll)

	// 9. Sessions listing reflects the roster
	list, err := ListSessions(ctx, rt)
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	require.Equal(t, 1, list.Sessions[0].CharacterCount)

	_, err = os.Stat(sess.Dir())
	require.NoError(t, err)
}
