package character

import (
	"fmt"
	"strings"
)

// Readiness statuses.
const (
	StatusReady       = "ready"
	StatusMostlyReady = "mostly_ready"
	StatusNotReady    = "not_ready"
	StatusNotFound    = "not_found"
)

// mostlyReadyLimit is the largest number of missing fields still classed as mostly ready.
const mostlyReadyLimit = 2

const noAttackWarning = "No weapons or attacks defined - character should have at least one attack option"

// Readiness is the result of ValidateReadiness.
type Readiness struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missing_fields"`
	Warnings      []string `json:"warnings"`
	TotalMissing  int      `json:"total_missing"`
}

// ValidateReadiness checks the minimum fields needed to start play. Missing
// fields are listed in a fixed order: basic info, abilities as one entry, then
// combat stats. Zero values count as missing.
func ValidateReadiness(c *Character) Readiness {
	missing := []string{}
	warnings := []string{}

	info := c.BasicInfo
	if info.Name == "" {
		missing = append(missing, "Character Name")
	}
	if info.Class == "" || info.Level == 0 {
		missing = append(missing, "Class and Level")
	}
	if info.Race == "" {
		missing = append(missing, "Race/Species")
	}
	if info.Background == "" {
		missing = append(missing, "Background")
	}

	var abilities []string
	for _, name := range Abilities {
		if c.AbilityScores.Get(name).Score == 0 {
			abilities = append(abilities, strings.ToUpper(name[:1])+name[1:])
		}
	}
	if len(abilities) > 0 {
		missing = append(missing, fmt.Sprintf("Ability Scores (%s)", strings.Join(abilities, ", ")))
	}

	if c.CombatStats.ArmorClass == 0 {
		missing = append(missing, "Armor Class")
	}
	if hp := c.CombatStats.HitPoints; hp.Maximum == 0 || hp.Current == 0 {
		missing = append(missing, "Hit Points")
	}

	if len(c.Attacks) == 0 && len(c.Equipment.Weapons) == 0 {
		warnings = append(warnings, noAttackWarning)
	}

	r := Readiness{
		MissingFields: missing,
		Warnings:      warnings,
		TotalMissing:  len(missing),
	}
	switch {
	case len(missing) == 0:
		r.Status = StatusReady
		r.Message = "Character is ready for gameplay!"
	case len(missing) <= mostlyReadyLimit:
		r.Status = StatusMostlyReady
		r.Message = "Character is mostly ready, but missing: " + strings.Join(missing, ", ")
	default:
		r.Status = StatusNotReady
		r.Message = "Character needs more information before gameplay can begin"
	}
	return r
}

// NotFoundReadiness is reported when the character to validate does not exist.
func NotFoundReadiness(session, name string) Readiness {
	return Readiness{
		Status:        StatusNotFound,
		Message:       fmt.Sprintf("Character '%s' not found in session '%s'", name, session),
		MissingFields: []string{"Character not found"},
		Warnings:      []string{},
		TotalMissing:  1,
	}
}
