// Package ai implements the non-player faction decision engine: threat
// evaluation, attack target scoring, per-turn planning, and the execution
// of planned actions against a working state copy.
package ai

import (
	"sort"

	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// Threat thresholds for the recruitment heuristic.
const (
	recruitTroopFloor  = 10000
	threatTroopsFactor = 1.5
)

// Threat is a hostile neighbor of an evaluated city.
type Threat struct {
	CityID    domain.CityID
	FactionID domain.FactionID
	Troops    int
	// Score = troops/1000 + 2.0. The constant term is the distance
	// weight: only direct neighbors (distance 1) are ever considered.
	Score float64
}

// EvaluateThreat examines a city's direct neighbors and returns those held
// by factions the city's owner considers hostile, sorted by descending
// score. Cities owned by the evaluating faction are always skipped, as are
// neighbors whose owners are merely neutral.
func EvaluateThreat(v domain.View, cityID domain.CityID) []Threat {
	city := v.CityView(cityID)
	if city == nil {
		return nil
	}
	owner := v.FactionView(city.FactionID)
	if owner == nil {
		return nil
	}

	var threats []Threat
	for _, neighborID := range city.Connections {
		neighbor := v.CityView(neighborID)
		if neighbor == nil || neighbor.FactionID == city.FactionID {
			continue
		}
		if owner.Stance(neighbor.FactionID) != domain.DiplomacyHostile {
			continue
		}
		troops := domain.CityTroops(v, neighborID)
		threats = append(threats, Threat{
			CityID:    neighborID,
			FactionID: neighbor.FactionID,
			Troops:    troops,
			Score:     float64(troops)/1000 + 2.0,
		})
	}

	sort.SliceStable(threats, func(i, j int) bool {
		return threats[i].Score > threats[j].Score
	})
	return threats
}

// ShouldRecruit reports whether a city wants more troops: garrison under
// 10,000, or adjacent hostile troops exceeding 1.5x the garrison.
func ShouldRecruit(v domain.View, cityID domain.CityID) bool {
	troops := domain.CityTroops(v, cityID)
	if troops < recruitTroopFloor {
		return true
	}
	threatTroops := 0
	for _, th := range EvaluateThreat(v, cityID) {
		threatTroops += th.Troops
	}
	return float64(threatTroops) > threatTroopsFactor*float64(troops)
}
