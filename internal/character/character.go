// Package character holds the D&D 5e character sheet model and the pure
// transformations applied to it: creation, copy-on-write updates, notes and
// readiness checks. Nothing in this package touches the filesystem.
package character

import (
	"encoding/json"
	"fmt"
	"time"
)

// now is overridden in tests.
var now = time.Now

// Timestamp returns the current time in the format stored on records.
func Timestamp() string {
	return now().Format(time.RFC3339Nano)
}

// Abilities in canonical order.
var Abilities = []string{"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma"}

// Character is a full character sheet. JSON keys match the persisted layout.
type Character struct {
	BasicInfo         BasicInfo         `json:"basic_info"`
	AbilityScores     AbilityScores     `json:"ability_scores"`
	ProficiencyBonus  int               `json:"proficiency_bonus"`
	CombatStats       CombatStats       `json:"combat_stats"`
	DeathSaves        DeathSaves        `json:"death_saves"`
	Skills            map[string]Skill  `json:"skills"`
	Proficiencies     Proficiencies     `json:"proficiencies"`
	Attacks           []Attack          `json:"attacks"`
	Equipment         Equipment         `json:"equipment"`
	FeaturesAndTraits FeaturesAndTraits `json:"features_and_traits"`
	Spellcasting      Spellcasting      `json:"spellcasting"`
	CharacterDetails  CharacterDetails  `json:"character_details"`
	Notes             map[string][]Note `json:"notes"`
	Advancement       Advancement       `json:"advancement"`
	Metadata          Metadata          `json:"metadata"`
}

type BasicInfo struct {
	Name             string `json:"name"`
	Class            string `json:"class"`
	Level            int    `json:"level"`
	Race             string `json:"race"`
	Background       string `json:"background"`
	Alignment        string `json:"alignment"`
	ExperiencePoints int    `json:"experience_points"`
}

type AbilityScore struct {
	Score       int  `json:"score"`
	Modifier    int  `json:"modifier"`
	SavingThrow int  `json:"saving_throw"`
	Proficient  bool `json:"proficient"`
}

type AbilityScores struct {
	Strength     AbilityScore `json:"strength"`
	Dexterity    AbilityScore `json:"dexterity"`
	Constitution AbilityScore `json:"constitution"`
	Intelligence AbilityScore `json:"intelligence"`
	Wisdom       AbilityScore `json:"wisdom"`
	Charisma     AbilityScore `json:"charisma"`
}

// Get returns the named ability, or nil for an unknown name.
func (a *AbilityScores) Get(name string) *AbilityScore {
	switch name {
	case "strength":
		return &a.Strength
	case "dexterity":
		return &a.Dexterity
	case "constitution":
		return &a.Constitution
	case "intelligence":
		return &a.Intelligence
	case "wisdom":
		return &a.Wisdom
	case "charisma":
		return &a.Charisma
	}
	return nil
}

type HitPoints struct {
	Current   int `json:"current"`
	Maximum   int `json:"maximum"`
	Temporary int `json:"temporary"`
}

type HitDice struct {
	Available int `json:"available"`
	Total     int `json:"total"`
}

type CombatStats struct {
	ArmorClass int       `json:"armor_class"`
	HitPoints  HitPoints `json:"hit_points"`
	HitDice    HitDice   `json:"hit_dice"`
	Speed      int       `json:"speed"`
	Initiative int       `json:"initiative"`
}

type DeathSaves struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

type Skill struct {
	Proficient bool   `json:"proficient"`
	Modifier   int    `json:"modifier"`
	Ability    string `json:"ability"`
}

type Proficiencies struct {
	Armor     []string `json:"armor"`
	Weapons   []string `json:"weapons"`
	Tools     []string `json:"tools"`
	Languages []string `json:"languages"`
}

// Attack is one attack option on the sheet.
type Attack struct {
	Name        string `json:"name"`
	AttackBonus int    `json:"attack_bonus"`
	Damage      string `json:"damage"`
	DamageType  string `json:"damage_type,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type Currency struct {
	CP int `json:"cp"`
	SP int `json:"sp"`
	GP int `json:"gp"`
	PP int `json:"pp"`
}

type Equipment struct {
	Currency Currency `json:"currency"`
	Armor    []string `json:"armor"`
	Weapons  []string `json:"weapons"`
	Gear     []string `json:"gear"`
}

type FeaturesAndTraits struct {
	RacialTraits       []string `json:"racial_traits"`
	ClassFeatures      []string `json:"class_features"`
	BackgroundFeatures []string `json:"background_features"`
}

// SpellLevels holds one value per spell level, cantrips through 9th.
type SpellLevels[T any] struct {
	Cantrips T `json:"cantrips"`
	Level1   T `json:"level_1"`
	Level2   T `json:"level_2"`
	Level3   T `json:"level_3"`
	Level4   T `json:"level_4"`
	Level5   T `json:"level_5"`
	Level6   T `json:"level_6"`
	Level7   T `json:"level_7"`
	Level8   T `json:"level_8"`
	Level9   T `json:"level_9"`
}

type Spellcasting struct {
	Ability          *string               `json:"ability"`
	SpellSaveDC      *int                  `json:"spell_save_dc"`
	SpellAttackBonus *int                  `json:"spell_attack_bonus"`
	SpellSlots       SpellLevels[int]      `json:"spell_slots"`
	SpellsKnown      SpellLevels[[]string] `json:"spells_known"`
}

type CharacterDetails struct {
	PersonalityTraits []string `json:"personality_traits"`
	Ideals            []string `json:"ideals"`
	Bonds             []string `json:"bonds"`
	Flaws             []string `json:"flaws"`
	Backstory         string   `json:"backstory"`
}

// Note is a timestamped entry under notes[session].
type Note struct {
	Note      string `json:"note"`
	Timestamp string `json:"timestamp"`
}

// Advancement entries are free-form records.
type Advancement struct {
	AbilityScoreImprovements []map[string]any `json:"ability_score_improvements"`
	Multiclassing            []map[string]any `json:"multiclassing"`
}

type Metadata struct {
	CreatedDate string `json:"created_date"`
	LastUpdated string `json:"last_updated"`
	Version     string `json:"version"`
}

// Clone returns a deep copy of c.
func (c *Character) Clone() (*Character, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("clone character: %w", err)
	}
	out := &Character{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("clone character: %w", err)
	}
	return out, nil
}
