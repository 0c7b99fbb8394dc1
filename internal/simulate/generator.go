package simulate

import (
	"crypto/rand"
	"math/big"

	"github.com/okian/bout/internal/domain/types"
)

// Weights of each action out of actionWeightTotal.
const (
	weightPoint       = 50
	weightCorrection  = 4 // a point taken back
	weightFoul        = 20
	weightUnfoul      = 3
	weightExit        = 14
	weightUnexit      = 3
	weightPause       = 6
	actionWeightTotal = weightPoint + weightCorrection + weightFoul + weightUnfoul + weightExit + weightUnexit + weightPause
	maxPointsPerScore = 3
)

// getRandomInt returns a random int in [0, n) using crypto/rand.
func getRandomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// generateActions creates n random scorekeeper actions.
func generateActions(n int) []Action {
	actions := make([]Action, n)
	for i := range actions {
		actions[i] = generateSingleAction()
	}
	return actions
}

// generateSingleAction picks an action by weight and a random competitor.
func generateSingleAction() Action {
	c := types.Competitors[getRandomInt(len(types.Competitors))]
	roll := getRandomInt(actionWeightTotal)

	switch {
	case roll < weightPoint:
		return Action{Kind: ActionPoint, Competitor: c, Amount: 1 + getRandomInt(maxPointsPerScore)}
	case roll < weightPoint+weightCorrection:
		return Action{Kind: ActionPoint, Competitor: c, Amount: -1}
	case roll < weightPoint+weightCorrection+weightFoul:
		return Action{Kind: ActionFoul, Competitor: c}
	case roll < weightPoint+weightCorrection+weightFoul+weightUnfoul:
		return Action{Kind: ActionUnfoul, Competitor: c}
	case roll < weightPoint+weightCorrection+weightFoul+weightUnfoul+weightExit:
		return Action{Kind: ActionExit, Competitor: c}
	case roll < actionWeightTotal-weightPause:
		return Action{Kind: ActionUnexit, Competitor: c}
	default:
		return Action{Kind: ActionPause, Competitor: c}
	}
}
