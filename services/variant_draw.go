// services/variant_draw.go
package services

import (
	crand "crypto/rand"
	"math/big"

	"card-collect-system/logger"
	"card-collect-system/models"

	"go.uber.org/zap"
)

// variantWeight is one row of the draw table.
type variantWeight struct {
	Variant models.Rarity
	Percent float64
}

// variantTable is the fixed draw distribution, walked in this exact order
// (scarcest first) so boundary values always resolve the same way. The
// percentages sum to 100, asserted by test rather than runtime code.
var variantTable = []variantWeight{
	{models.RarityReliquia, 3},
	{models.RarityHolografica, 7},
	{models.RarityEdicaoDiamante, 12},
	{models.RarityComum, 78},
}

var drawRandomPercent = secureRandomPercent

// DrawVariant picks a variant from the fixed distribution. It always
// returns a value: float edge cases and randomness-source failures fall
// back to the most common tier.
func DrawVariant() models.Rarity {
	r, err := drawRandomPercent()
	if err != nil {
		logger.Warn("variant draw randomness failed, defaulting", zap.Error(err))
		return models.RarityComum
	}

	cumulative := 0.0
	for _, w := range variantTable {
		cumulative += w.Percent
		if r < cumulative {
			return w.Variant
		}
	}
	return models.RarityComum
}

// secureRandomPercent returns a uniform float in [0, 100).
func secureRandomPercent() (float64, error) {
	n, err := crand.Int(crand.Reader, big.NewInt(1<<53))
	if err != nil {
		return 0, err
	}
	return float64(n.Int64()) / (1 << 53) * 100, nil
}
