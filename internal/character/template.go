package character

// SchemaVersion is written to metadata.version on new records.
const SchemaVersion = "1.0"

// skillAbilities maps each of the eighteen skills to its governing ability.
var skillAbilities = map[string]string{
	"athletics":       "strength",
	"acrobatics":      "dexterity",
	"sleight_of_hand": "dexterity",
	"stealth":         "dexterity",
	"arcana":          "intelligence",
	"history":         "intelligence",
	"investigation":   "intelligence",
	"nature":          "intelligence",
	"religion":        "intelligence",
	"animal_handling": "wisdom",
	"insight":         "wisdom",
	"medicine":        "wisdom",
	"perception":      "wisdom",
	"survival":        "wisdom",
	"deception":       "charisma",
	"intimidation":    "charisma",
	"performance":     "charisma",
	"persuasion":      "charisma",
}

// DefaultTemplate returns a fully populated blank sheet. Every section is
// present so updates never need to create top-level structure.
func DefaultTemplate() *Character {
	ts := Timestamp()
	base := AbilityScore{Score: 10}

	skills := make(map[string]Skill, len(skillAbilities))
	for name, ability := range skillAbilities {
		skills[name] = Skill{Ability: ability}
	}

	return &Character{
		BasicInfo: BasicInfo{Level: 1},
		AbilityScores: AbilityScores{
			Strength:     base,
			Dexterity:    base,
			Constitution: base,
			Intelligence: base,
			Wisdom:       base,
			Charisma:     base,
		},
		ProficiencyBonus: 2,
		CombatStats: CombatStats{
			ArmorClass: 10,
			HitPoints:  HitPoints{Current: 10, Maximum: 10},
			HitDice:    HitDice{Available: 1, Total: 1},
			Speed:      30,
		},
		Skills: skills,
		Proficiencies: Proficiencies{
			Armor:     []string{},
			Weapons:   []string{},
			Tools:     []string{},
			Languages: []string{"Common"},
		},
		Attacks: []Attack{},
		Equipment: Equipment{
			Armor:   []string{},
			Weapons: []string{},
			Gear:    []string{},
		},
		FeaturesAndTraits: FeaturesAndTraits{
			RacialTraits:       []string{},
			ClassFeatures:      []string{},
			BackgroundFeatures: []string{},
		},
		Spellcasting: Spellcasting{
			SpellsKnown: SpellLevels[[]string]{
				Cantrips: []string{},
				Level1:   []string{},
				Level2:   []string{},
				Level3:   []string{},
				Level4:   []string{},
				Level5:   []string{},
				Level6:   []string{},
				Level7:   []string{},
				Level8:   []string{},
				Level9:   []string{},
			},
		},
		CharacterDetails: CharacterDetails{
			PersonalityTraits: []string{},
			Ideals:            []string{},
			Bonds:             []string{},
			Flaws:             []string{},
		},
		Notes: map[string][]Note{},
		Advancement: Advancement{
			AbilityScoreImprovements: []map[string]any{},
			Multiclassing:            []map[string]any{},
		},
		Metadata: Metadata{
			CreatedDate: ts,
			LastUpdated: ts,
			Version:     SchemaVersion,
		},
	}
}

// Modifier returns floor((score-10)/2).
func Modifier(score int) int {
	d := score - 10
	m := d / 2
	if d < 0 && d%2 != 0 {
		m--
	}
	return m
}

// ProficiencyBonus returns the bonus for a character level. Levels below 1 are
// not rejected and get the level 1 bonus.
func ProficiencyBonus(level int) int {
	switch {
	case level <= 4:
		return 2
	case level <= 8:
		return 3
	case level <= 12:
		return 4
	case level <= 16:
		return 5
	}
	return 6
}
