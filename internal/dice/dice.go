// Package dice parses standard dice notation ("2d6+3", "d20", "4d8-2") and rolls it.
package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	toolkit "github.com/KirkDiggler/rpg-toolkit/dice"
)

// ErrInvalidNotation is returned when a notation string does not parse.
var ErrInvalidNotation = errors.New("invalid dice notation")

var notationRe = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)

// Notation is a parsed dice expression.
type Notation struct {
	Count    int
	Sides    int
	Modifier int
}

// String renders the canonical form, e.g. "2d6+3", "1d8-2", "3d4".
func (n Notation) String() string {
	switch {
	case n.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", n.Count, n.Sides, n.Modifier)
	case n.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", n.Count, n.Sides, n.Modifier)
	}
	return fmt.Sprintf("%dd%d", n.Count, n.Sides)
}

// Result is the outcome of a single roll.
type Result struct {
	Notation        string `json:"notation"`
	Count           int    `json:"count"`
	Sides           int    `json:"sides"`
	Modifier        int    `json:"modifier"`
	IndividualRolls []int  `json:"individual_rolls"`
	Total           int    `json:"total"`
}

// Parse normalizes notation (trim, lowercase, strip whitespace) and parses it.
// Count defaults to 1 and modifier to 0.
func Parse(notation string) (Notation, error) {
	cleaned := strings.Join(strings.Fields(strings.ToLower(notation)), "")

	m := notationRe.FindStringSubmatch(cleaned)
	if m == nil {
		return Notation{}, fmt.Errorf("%w: %s", ErrInvalidNotation, cleaned)
	}

	n := Notation{Count: 1}
	var err error
	if m[1] != "" {
		if n.Count, err = strconv.Atoi(m[1]); err != nil {
			return Notation{}, fmt.Errorf("%w: %s", ErrInvalidNotation, cleaned)
		}
	}
	if n.Sides, err = strconv.Atoi(m[2]); err != nil {
		return Notation{}, fmt.Errorf("%w: %s", ErrInvalidNotation, cleaned)
	}
	if m[3] != "" {
		// Atoi accepts the leading sign.
		if n.Modifier, err = strconv.Atoi(m[3]); err != nil {
			return Notation{}, fmt.Errorf("%w: %s", ErrInvalidNotation, cleaned)
		}
	}
	return n, nil
}

// Roll parses notation and draws each die from roller, in roll order.
// The result echoes notation as given. A zero die count rolls nothing and totals the modifier alone.
func Roll(roller toolkit.Roller, notation string) (*Result, error) {
	n, err := Parse(notation)
	if err != nil {
		return nil, err
	}
	if n.Sides == 0 {
		return nil, fmt.Errorf("%w: %s has zero-sided dice", ErrInvalidNotation, n)
	}
	if roller == nil {
		roller = toolkit.DefaultRoller
	}

	rolls := []int{}
	if n.Count > 0 {
		rolls, err = roller.RollN(n.Count, n.Sides)
		if err != nil {
			return nil, fmt.Errorf("roll %s: %w", n, err)
		}
	}

	total := n.Modifier
	for _, r := range rolls {
		total += r
	}

	return &Result{
		Notation:        notation,
		Count:           n.Count,
		Sides:           n.Sides,
		Modifier:        n.Modifier,
		IndividualRolls: rolls,
		Total:           total,
	}, nil
}
