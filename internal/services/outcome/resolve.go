package outcome

import "github.com/mcoot/rpsroom/internal/model"

// beats maps each move to the move it defeats
var beats = map[model.Move]model.Move{
	model.MoveRock:     model.MoveScissors,
	model.MovePaper:    model.MoveRock,
	model.MoveScissors: model.MovePaper,
}

// Resolve returns the outcome for the local participant given both moves
func Resolve(local, remote model.Move) model.Outcome {
	if local == remote {
		return model.OutcomeTie
	}
	if beats[local] == remote {
		return model.OutcomeWin
	}
	return model.OutcomeLose
}

// Describe returns the player-facing text for an outcome
func Describe(o model.Outcome) string {
	switch o {
	case model.OutcomeTie:
		return "It's a tie!"
	case model.OutcomeWin:
		return "You win!"
	case model.OutcomeLose:
		return "You lose!"
	}
	return ""
}
