package models

// Rarity is the closed set of card tiers, ascending scarcity. The same
// values serve as an event's design rarity and as the variant drawn at
// redemption time; the two are independent classifications.
type Rarity string

const (
	RarityComum          Rarity = "comum"
	RarityEdicaoDiamante Rarity = "edicao_diamante"
	RarityHolografica    Rarity = "holografica"
	RarityReliquia       Rarity = "reliquia"
)

// AllRarities lists the tiers ascending by scarcity.
var AllRarities = []Rarity{
	RarityComum,
	RarityEdicaoDiamante,
	RarityHolografica,
	RarityReliquia,
}

// ValidRarity reports whether v is one of the four tiers.
func ValidRarity(v Rarity) bool {
	switch v {
	case RarityComum, RarityEdicaoDiamante, RarityHolografica, RarityReliquia:
		return true
	}
	return false
}
