// Attack target scoring — success probability and strategic value.
package ai

import (
	"github.com/LongView-dev/sanguo-190/internal/combat"
	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// Attack gating thresholds.
const (
	minSuccessProbability = 0.6
	minAttackTroops       = 1000
)

// TargetScore grades a potential conquest.
type TargetScore struct {
	CityID             domain.CityID
	SuccessProbability float64
	StrategicValue     float64
	// Score is the composite: probability x value.
	Score float64
}

// EvaluateAttackTarget scores an attack from one city against an adjacent
// target. The attacker fields its strongest general with the origin's
// total garrison; the defender likewise, falling back to bare city defense
// when ungarrisoned. Returns ok=false when the origin has no general to
// lead the attack.
func EvaluateAttackTarget(v domain.View, fromID, targetID domain.CityID) (TargetScore, bool) {
	target := v.CityView(targetID)
	attacker := domain.StrongestGeneral(v, fromID)
	if target == nil || attacker == nil {
		return TargetScore{}, false
	}

	atk := combat.AttackPower(domain.CityTroops(v, fromID), attacker.Attr.War, attacker.Attr.Lead)

	var def float64
	if defender := domain.StrongestGeneral(v, targetID); defender != nil {
		def = combat.DefensePower(domain.CityTroops(v, targetID), defender.Attr.Lead, defender.Attr.Int, target.Resources.Defense)
	} else {
		def = float64(target.Resources.Defense)
	}
	if def < 1 {
		def = 1
	}

	prob := atk / def / 2
	if prob < 0.05 {
		prob = 0.05
	}
	if prob > 0.95 {
		prob = 0.95
	}

	value := float64(domain.ScaleScore(target.Scale))*10 +
		float64(target.Resources.Commerce)/100 +
		float64(target.Resources.Agriculture)/100

	return TargetScore{
		CityID:             targetID,
		SuccessProbability: prob,
		StrategicValue:     value,
		Score:              prob * value,
	}, true
}

// FindBestAttackTarget scans a city's neighbors for the best eligible
// conquest: hostile diplomacy and success probability of at least 0.6.
// Among eligible targets the highest composite score wins; a tie keeps
// the earliest neighbor in connection order.
func FindBestAttackTarget(v domain.View, factionID domain.FactionID, fromID domain.CityID) (TargetScore, bool) {
	city := v.CityView(fromID)
	faction := v.FactionView(factionID)
	if city == nil || faction == nil {
		return TargetScore{}, false
	}

	var best TargetScore
	found := false
	for _, neighborID := range city.Connections {
		neighbor := v.CityView(neighborID)
		if neighbor == nil || neighbor.FactionID == factionID {
			continue
		}
		if faction.Stance(neighbor.FactionID) != domain.DiplomacyHostile {
			continue
		}
		score, ok := EvaluateAttackTarget(v, fromID, neighborID)
		if !ok || score.SuccessProbability < minSuccessProbability {
			continue
		}
		if !found || score.Score > best.Score {
			best = score
			found = true
		}
	}
	return best, found
}
