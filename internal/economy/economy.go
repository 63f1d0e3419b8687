// Package economy implements the domestic formulas: income, grain,
// development, and recruitment. Every function is pure; stochastic inputs
// (development rolls) are explicit parameters so callers control the RNG.
package economy

import (
	"math"
	"math/rand"
)

// Costs and caps for domestic commands.
const (
	DevelopmentCost       = 100 // gold per development command
	RecruitGoldPerSoldier = 2
	RecruitPopPerSoldier  = 1
)

// FailReason classifies an expected, recoverable command failure. These
// are hot-path outcomes (a player short on gold), not errors.
type FailReason string

const (
	FailNone                   FailReason = ""
	FailInsufficientGold       FailReason = "insufficient_gold"
	FailInsufficientPopulation FailReason = "insufficient_population"
)

// PoliticsBonus is the governor-driven multiplier on city output:
// pol/100 + 0.5, or a flat 0.5 for a city with no governor.
func PoliticsBonus(governorPol *int) float64 {
	if governorPol == nil {
		return 0.5
	}
	return float64(*governorPol)/100 + 0.5
}

// MonthlyIncome is the gold a city produces each month.
func MonthlyIncome(commerce, population int, governorPol *int) int {
	base := float64(commerce)*1.5 + float64(population)/1000
	return int(math.Floor(base * PoliticsBonus(governorPol)))
}

// YearlyGrain is the grain a city produces at the July distribution.
func YearlyGrain(agriculture, population int, governorPol *int) int {
	base := float64(agriculture)*10 + float64(population)/200
	return int(math.Floor(base * PoliticsBonus(governorPol)))
}

// DevelopmentIncrease is the stat gain for one development command:
// floor(pol/5) plus a roll in [1,5].
func DevelopmentIncrease(executorPol, roll int) int {
	return executorPol/5 + roll
}

// Roll15 draws the development roll from rng: uniform in [1,5].
func Roll15(rng *rand.Rand) int {
	return rng.Intn(5) + 1
}

// DevelopResult reports the outcome of a development command.
type DevelopResult struct {
	Success   bool
	Reason    FailReason
	GoldSpent int
	Increase  int // actual gain after clamping at maxValue
	NewValue  int
}

// ExecuteDevelopment spends 100 gold to raise a development stat. Fails
// without side effects when gold is short. The increase is clamped so the
// stat never exceeds maxValue.
func ExecuteDevelopment(gold, currentValue, executorPol, maxValue, roll int) DevelopResult {
	if gold < DevelopmentCost {
		return DevelopResult{Reason: FailInsufficientGold, NewValue: currentValue}
	}
	increase := DevelopmentIncrease(executorPol, roll)
	newValue := currentValue + increase
	if newValue > maxValue {
		newValue = maxValue
	}
	return DevelopResult{
		Success:   true,
		GoldSpent: DevelopmentCost,
		Increase:  newValue - currentValue,
		NewValue:  newValue,
	}
}

// RecruitmentSoldiers is the troop yield of one recruitment command.
func RecruitmentSoldiers(lead, cha int) int {
	return lead*10 + cha*5
}

// LoyaltyDecrease is the loyalty cost of recruiting: charming officers
// upset the populace less, but the floor is always 1.
func LoyaltyDecrease(cha int) int {
	d := 5 - cha/20
	if d < 1 {
		return 1
	}
	return d
}

// RecruitResult reports the outcome of a recruitment command.
type RecruitResult struct {
	Success         bool
	Reason          FailReason
	Soldiers        int
	GoldSpent       int
	PopulationSpent int
	LoyaltyLoss     int
}

// ExecuteRecruitment computes a recruitment by the given officer from the
// city's stocks. Gold is checked before population; a failed check leaves
// everything unspent.
func ExecuteRecruitment(gold, population, lead, cha int) RecruitResult {
	soldiers := RecruitmentSoldiers(lead, cha)
	goldCost := soldiers * RecruitGoldPerSoldier
	popCost := soldiers * RecruitPopPerSoldier
	if gold < goldCost {
		return RecruitResult{Reason: FailInsufficientGold}
	}
	if population < popCost {
		return RecruitResult{Reason: FailInsufficientPopulation}
	}
	return RecruitResult{
		Success:         true,
		Soldiers:        soldiers,
		GoldSpent:       goldCost,
		PopulationSpent: popCost,
		LoyaltyLoss:     LoyaltyDecrease(cha),
	}
}
