package model

import "strings"

// Move is one participant's choice for a room
type Move string

const (
	MoveRock     Move = "rock"
	MovePaper    Move = "paper"
	MoveScissors Move = "scissors"
)

// AllMoves lists every valid move in a stable order
var AllMoves = []Move{MoveRock, MovePaper, MoveScissors}

// Valid reports whether m is one of rock, paper or scissors
func (m Move) Valid() bool {
	switch m {
	case MoveRock, MovePaper, MoveScissors:
		return true
	}
	return false
}

// ParseMove converts user input into a Move (case-insensitive)
func ParseMove(s string) (Move, error) {
	m := Move(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", ErrInvalidMove
	}
	return m, nil
}

// Outcome is the result of a room from the local participant's point of view
type Outcome string

const (
	OutcomeTie  Outcome = "tie"
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
)

// Complement returns the outcome the opponent observes for the same pair of moves
func (o Outcome) Complement() Outcome {
	switch o {
	case OutcomeWin:
		return OutcomeLose
	case OutcomeLose:
		return OutcomeWin
	}
	return o
}
