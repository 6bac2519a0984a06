package services

import (
	"math/rand/v2"

	"tonflip/domain/entities"
	"tonflip/domain/interfaces"
)

type randomFlipper struct{}

// NewCoinFlipper returns a fair coin backed by the runtime's random source
func NewCoinFlipper() interfaces.CoinFlipper {
	return randomFlipper{}
}

func (randomFlipper) Flip() entities.CoinSide {
	if rand.IntN(2) == 0 {
		return entities.CoinSideHeads
	}
	return entities.CoinSideTails
}
