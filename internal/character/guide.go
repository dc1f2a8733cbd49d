package character

// CreationPrompts returns the guided creation questions keyed by step.
func CreationPrompts() map[string]string {
	return map[string]string{
		"step_1_name":       "What is your character's name?",
		"step_2_class":      "What class would you like to play? (Fighter, Wizard, Rogue, Cleric, etc.)",
		"step_3_race":       "What race/species is your character? (Human, Elf, Dwarf, Halfling, etc.)",
		"step_4_background": "What background does your character have? (Soldier, Noble, Criminal, Folk Hero, etc.)",
		"step_5_abilities":  "Now let's determine your ability scores. Would you like to use standard array (15,14,13,12,10,8), roll dice, or point buy?",
		"step_6_equipment":  "Let's select your starting equipment based on your class and background.",
		"step_7_details":    "Finally, let's add some personality! What are your character's personality traits, ideals, bonds, and flaws?",
	}
}

// Requirements groups the checklist for a playable character.
type Requirements struct {
	EssentialFields   []string `json:"essential_fields"`
	RecommendedFields []string `json:"recommended_fields"`
	OptionalFields    []string `json:"optional_fields"`
}

// MinimumRequirements returns the playable-character checklist.
func MinimumRequirements() Requirements {
	return Requirements{
		EssentialFields: []string{
			"Character Name",
			"Class and Level",
			"Race/Species",
			"Background",
			"Ability Scores (all 6)",
			"Hit Points",
			"Armor Class",
		},
		RecommendedFields: []string{
			"At least one weapon/attack",
			"Saving throw proficiencies",
			"Skill proficiencies",
			"Starting equipment",
			"Class features (level 1)",
			"Racial traits",
		},
		OptionalFields: []string{
			"Detailed backstory",
			"Personality traits",
			"Ideals, bonds, flaws",
			"Specific equipment details",
			"Spell lists (for casters)",
			"Physical description",
		},
	}
}
