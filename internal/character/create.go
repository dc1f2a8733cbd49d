package character

import "strings"

// CreateParams are the inputs to Create. Empty strings and nil numbers select
// the defaults; an explicit 0 is kept as given.
type CreateParams struct {
	Name       string
	Class      string // Fighter
	Race       string // Human
	Background string // Soldier
	Alignment  string // Neutral
	Level      *int   // 1

	Strength     *int // 15
	Dexterity    *int // 14
	Constitution *int // 13
	Intelligence *int // 12
	Wisdom       *int // 10
	Charisma     *int // 8

	HitPointsMax *int // 10
	ArmorClass   *int // 15
}

// Int returns a pointer to v for the numeric CreateParams fields.
func Int(v int) *int {
	return &v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// Create builds a new sheet from the default template and p.
// Saving throws start equal to the modifier and skill modifiers equal the
// governing ability modifier; proficiency is not added to either.
func Create(p CreateParams) *Character {
	c := DefaultTemplate()
	level := intOr(p.Level, 1)

	c.BasicInfo.Name = p.Name
	c.BasicInfo.Class = orDefault(strings.TrimSpace(p.Class), "Fighter")
	c.BasicInfo.Level = level
	c.BasicInfo.Race = orDefault(strings.TrimSpace(p.Race), "Human")
	c.BasicInfo.Background = orDefault(strings.TrimSpace(p.Background), "Soldier")
	c.BasicInfo.Alignment = orDefault(strings.TrimSpace(p.Alignment), "Neutral")

	scores := map[string]int{
		"strength":     intOr(p.Strength, 15),
		"dexterity":    intOr(p.Dexterity, 14),
		"constitution": intOr(p.Constitution, 13),
		"intelligence": intOr(p.Intelligence, 12),
		"wisdom":       intOr(p.Wisdom, 10),
		"charisma":     intOr(p.Charisma, 8),
	}
	for _, name := range Abilities {
		a := c.AbilityScores.Get(name)
		a.Score = scores[name]
		a.Modifier = Modifier(a.Score)
		a.SavingThrow = a.Modifier
	}

	hp := intOr(p.HitPointsMax, 10)
	c.ProficiencyBonus = ProficiencyBonus(level)
	c.CombatStats.HitPoints.Current = hp
	c.CombatStats.HitPoints.Maximum = hp
	c.CombatStats.ArmorClass = intOr(p.ArmorClass, 15)
	c.CombatStats.Initiative = c.AbilityScores.Dexterity.Modifier
	c.CombatStats.HitDice = HitDice{Available: level, Total: level}

	for name, s := range c.Skills {
		s.Modifier = c.AbilityScores.Get(s.Ability).Modifier
		c.Skills[name] = s
	}
	return c
}

// StorageKey normalizes a character name for on-disk identity: lowercase with
// spaces replaced by underscores. Names differing only in case or spacing collide.
func StorageKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
