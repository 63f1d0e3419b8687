// Package combat implements battle resolution: power formulas, damage,
// the high-lead damage reduction, and the duel / instant-kill checks.
// All random draws are explicit parameters.
package combat

import (
	"math"

	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// Probability thresholds for the special single-combat outcomes.
const (
	DuelWarDiffMax     = 10   // duel possible when |warA-warB| <= 10
	DuelChance         = 0.05
	KillWarDiffMin     = 20 // instant kill possible when |warA-warB| > 20
	KillChance         = 0.01
	HighLeadThreshold  = 90
	HighLeadMultiplier = 0.8
)

// AttackPower is the offensive strength of a force led by a general.
func AttackPower(troops, war, lead int) float64 {
	return float64(troops) * (float64(war)*0.4 + float64(lead)*0.6) / 100
}

// DefensePower is the defensive strength of a garrison plus city walls.
func DefensePower(troops, lead, intel, cityDefense int) float64 {
	return float64(troops)*(float64(lead)*0.8+float64(intel)*0.2)/100 + float64(cityDefense)
}

// Damage converts an attack/defense matchup into troop losses. Defense is
// floored at 1 to avoid division by zero; roll is uniform in [0.9, 1.1].
func Damage(attackPower, defensePower, roll float64) int {
	if defensePower < 1 {
		defensePower = 1
	}
	return int(math.Floor(attackPower / defensePower * 300 * roll))
}

// HighLeadReduction applies the 20% damage reduction earned by defenders
// with lead 90 or above. Returns the final damage and whether the
// reduction fired.
func HighLeadReduction(damage, defenderLead int) (int, bool) {
	if defenderLead >= HighLeadThreshold {
		return int(math.Floor(float64(damage) * HighLeadMultiplier)), true
	}
	return damage, false
}

// DuelOutcome is the result of the special single-combat checks.
type DuelOutcome struct {
	Triggered   bool
	InstantKill bool
	Winner      domain.GeneralID
	Loser       domain.GeneralID
}

// ResolveDuel runs the instant-kill and duel checks for a battle between
// two generals. killRoll, duelRoll, and tieRoll are independent uniform
// draws in [0,1). The kill check runs first; the two conditions cannot
// both hold since they require disjoint war-difference ranges, but the
// kill-first order is the authoritative policy.
//
// An instant kill always claims the lower-war combatant. A duel is won by
// the higher war stat; an exact tie goes to the attacker when tieRoll < 0.5.
func ResolveDuel(attackerWar, defenderWar int, attackerID, defenderID domain.GeneralID, killRoll, duelRoll, tieRoll float64) DuelOutcome {
	diff := attackerWar - defenderWar
	if diff < 0 {
		diff = -diff
	}

	if diff > KillWarDiffMin {
		if killRoll < KillChance {
			out := DuelOutcome{Triggered: true, InstantKill: true}
			if attackerWar > defenderWar {
				out.Winner, out.Loser = attackerID, defenderID
			} else {
				out.Winner, out.Loser = defenderID, attackerID
			}
			return out
		}
		return DuelOutcome{}
	}

	if diff <= DuelWarDiffMax {
		if duelRoll < DuelChance {
			out := DuelOutcome{Triggered: true}
			switch {
			case attackerWar > defenderWar:
				out.Winner, out.Loser = attackerID, defenderID
			case defenderWar > attackerWar:
				out.Winner, out.Loser = defenderID, attackerID
			case tieRoll < 0.5:
				out.Winner, out.Loser = attackerID, defenderID
			default:
				out.Winner, out.Loser = defenderID, attackerID
			}
			return out
		}
	}

	return DuelOutcome{}
}
