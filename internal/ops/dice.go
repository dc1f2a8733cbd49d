package ops

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/hpungsan/dmkit/internal/db"
	"github.com/hpungsan/dmkit/internal/dice"
	"github.com/hpungsan/dmkit/internal/errors"
)

// RollDiceInput contains parameters for the RollDice operation.
type RollDiceInput struct {
	Notation string
	Session  string // optional; journals the roll when set
}

// RollDiceOutput contains the result of the RollDice operation.
type RollDiceOutput struct {
	Status          string `json:"status"`
	Notation        string `json:"notation"`
	IndividualRolls []int  `json:"individual_rolls"`
	Total           int    `json:"total"`
	Modifier        int    `json:"modifier"`
}

// RollDice rolls standard dice notation.
func RollDice(ctx context.Context, rt *Runtime, input RollDiceInput) (*RollDiceOutput, error) {
	res, err := dice.Roll(rt.Roller, input.Notation)
	if err != nil {
		if stderrors.Is(err, dice.ErrInvalidNotation) {
			return nil, errors.NewInvalidInput(err.Error())
		}
		return nil, errors.NewInternal(err)
	}

	rt.log().Debug("dice rolled", "notation", res.Notation, "total", res.Total)
	rt.record(ctx, input.Session, db.KindDiceRoll, fmt.Sprintf("rolled %s = %d", res.Notation, res.Total), res)

	return &RollDiceOutput{
		Status:          StatusSuccess,
		Notation:        res.Notation,
		IndividualRolls: res.IndividualRolls,
		Total:           res.Total,
		Modifier:        res.Modifier,
	}, nil
}
