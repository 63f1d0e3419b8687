// Execution of planned AI actions against the working state copy. The
// same domestic and combat formulas serve the player path; the AI merely
// invokes them and converts results into events.
package ai

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/LongView-dev/sanguo-190/internal/combat"
	"github.com/LongView-dev/sanguo-190/internal/domain"
	"github.com/LongView-dev/sanguo-190/internal/economy"
)

// AI-path constants. Recruitment by an AI faction costs a flat 3 loyalty;
// battle outcomes scale the base casualties by +-20%.
const (
	aiRecruitLoyaltyLoss = 3
	winRatio             = 1.5
	loseRatio            = 0.67
)

// ExecuteActions applies a faction's planned actions to the draft in
// order, emitting exactly one event per action that takes effect. Actions
// whose preconditions no longer hold (resources drained by an earlier
// action, city lost mid-turn) are skipped silently: insufficiency is
// never an error on the AI path.
func ExecuteActions(d *domain.Draft, actions []Action, rng *rand.Rand) []domain.GameEvent {
	var events []domain.GameEvent
	for _, a := range actions {
		var ev *domain.GameEvent
		switch a.Kind {
		case ActionRecruit:
			ev = executeRecruit(d, a)
		case ActionDevelop:
			ev = executeDevelop(d, a, rng)
		case ActionAttack:
			ev = executeAttack(d, a, rng)
		}
		if ev != nil {
			d.AppendEvent(*ev)
			events = append(events, *ev)
		}
	}
	return events
}

func executeRecruit(d *domain.Draft, a Action) *domain.GameEvent {
	city := d.CityView(a.CityID)
	g := d.GeneralView(a.GeneralID)
	if city == nil || g == nil || !g.Alive || city.FactionID != a.FactionID {
		return nil
	}

	res := economy.ExecuteRecruitment(city.Resources.Gold, city.Resources.Population, g.Attr.Lead, g.Attr.Cha)
	if !res.Success {
		return nil
	}

	c := d.City(a.CityID)
	c.Resources.Gold -= res.GoldSpent
	c.Resources.Population -= res.PopulationSpent
	c.Resources.Loyalty -= aiRecruitLoyaltyLoss
	if c.Resources.Loyalty < 0 {
		c.Resources.Loyalty = 0
	}
	d.General(a.GeneralID).Troops += res.Soldiers

	return &domain.GameEvent{
		ID:        uuid.NewString(),
		Type:      domain.EventDomestic,
		Date:      d.Date,
		CreatedAt: time.Now(),
		Data: map[string]any{
			"action":   "recruit",
			"faction":  string(a.FactionID),
			"city":     string(a.CityID),
			"general":  string(a.GeneralID),
			"soldiers": res.Soldiers,
			"gold":     res.GoldSpent,
		},
	}
}

func executeDevelop(d *domain.Draft, a Action, rng *rand.Rand) *domain.GameEvent {
	city := d.CityView(a.CityID)
	g := d.GeneralView(a.GeneralID)
	if city == nil || g == nil || !g.Alive || city.FactionID != a.FactionID {
		return nil
	}

	current := city.Resources.Commerce
	if a.Develop == DevelopAgriculture {
		current = city.Resources.Agriculture
	}
	res := economy.ExecuteDevelopment(city.Resources.Gold, current, g.Attr.Pol, domain.MaxDevelopment, economy.Roll15(rng))
	if !res.Success {
		return nil
	}

	c := d.City(a.CityID)
	c.Resources.Gold -= res.GoldSpent
	if a.Develop == DevelopAgriculture {
		c.Resources.Agriculture = res.NewValue
	} else {
		c.Resources.Commerce = res.NewValue
	}

	return &domain.GameEvent{
		ID:        uuid.NewString(),
		Type:      domain.EventDomestic,
		Date:      d.Date,
		CreatedAt: time.Now(),
		Data: map[string]any{
			"action":   "develop",
			"faction":  string(a.FactionID),
			"city":     string(a.CityID),
			"general":  string(a.GeneralID),
			"target":   string(a.Develop),
			"increase": res.Increase,
		},
	}
}

func executeAttack(d *domain.Draft, a Action, rng *rand.Rand) *domain.GameEvent {
	from := d.CityView(a.CityID)
	target := d.CityView(a.Target)
	attacker := d.GeneralView(a.GeneralID)
	if from == nil || target == nil || attacker == nil || !attacker.Alive {
		return nil
	}
	if from.FactionID != a.FactionID || target.FactionID == a.FactionID {
		return nil
	}

	attackerTroops := domain.CityTroops(d, a.CityID)
	defenderTroops := domain.CityTroops(d, a.Target)
	atk := combat.AttackPower(attackerTroops, attacker.Attr.War, attacker.Attr.Lead)

	defender := domain.StrongestGeneral(d, a.Target)
	var def float64
	if defender != nil {
		def = combat.DefensePower(defenderTroops, defender.Attr.Lead, defender.Attr.Int, target.Resources.Defense)
	} else {
		def = float64(target.Resources.Defense)
	}
	if def < 1 {
		def = 1
	}

	ratio := atk / def
	var won bool
	switch {
	case ratio > winRatio:
		won = true
	case ratio < loseRatio:
		won = false
	default:
		won = rng.Float64() < 0.5
	}

	// Simplified casualties: a tenth of the smaller force, shifted 20%
	// toward the loser. Integer arithmetic keeps floor(base*0.8) and
	// floor(base*1.2) exact.
	base := attackerTroops
	if defenderTroops < base {
		base = defenderTroops
	}
	base /= 10
	attackerLoss, defenderLoss := base*12/10, base*8/10
	if won {
		attackerLoss, defenderLoss = base*8/10, base*12/10
	}

	ag := d.General(a.GeneralID)
	ag.Troops -= attackerLoss
	if ag.Troops < 0 {
		ag.Troops = 0
	}
	if defender != nil {
		dg := d.General(defender.ID)
		dg.Troops -= defenderLoss
		if dg.Troops < 0 {
			dg.Troops = 0
		}
	}

	data := map[string]any{
		"action":        "attack",
		"faction":       string(a.FactionID),
		"from":          string(a.CityID),
		"target":        string(a.Target),
		"general":       string(a.GeneralID),
		"won":           won,
		"attacker_loss": attackerLoss,
		"defender_loss": defenderLoss,
	}

	if won {
		conquer(d, a, data)
	}

	slog.Debug("battle resolved",
		"faction", a.FactionID,
		"from", a.CityID,
		"target", a.Target,
		"won", won,
	)

	return &domain.GameEvent{
		ID:        uuid.NewString(),
		Type:      domain.EventBattle,
		Date:      d.Date,
		CreatedAt: time.Now(),
		Data:      data,
	}
}

// conquer transfers the target city to the winning faction: ownership
// flips, the attacking general moves in, and the loser's stationed
// generals retreat to the loser's first remaining city. A loser with no
// city left is finished; its stranded generals stay where they fell and a
// fall-of-faction event is recorded.
func conquer(d *domain.Draft, a Action, data map[string]any) {
	target := d.City(a.Target)
	loserID := target.FactionID

	winner := d.Faction(a.FactionID)
	loser := d.Faction(loserID)

	// Ownership flip.
	target.FactionID = a.FactionID
	winner.Cities = append(winner.Cities, a.Target)
	loser.Cities = removeCity(loser.Cities, a.Target)

	// Retreat destination: the loser's first remaining city, if any.
	var refuge domain.CityID
	if len(loser.Cities) > 0 {
		refuge = loser.Cities[0]
	}

	evicted := target.Stationed
	target.Stationed = nil
	for _, gid := range evicted {
		g := d.General(gid)
		if g == nil {
			continue
		}
		if g.FactionID == a.FactionID {
			target.Stationed = append(target.Stationed, gid)
			continue
		}
		if refuge != "" {
			g.CityID = refuge
			refugeCity := d.City(refuge)
			refugeCity.Stationed = append(refugeCity.Stationed, gid)
		} else {
			// Nowhere to run: the general stays in the fallen city.
			g.CityID = a.Target
			target.Stationed = append(target.Stationed, gid)
		}
	}
	// The old governor left with the garrison.
	target.GovernorID = ""

	// The attacking general occupies the conquest.
	from := d.City(a.CityID)
	from.Stationed = removeGeneral(from.Stationed, a.GeneralID)
	if from.GovernorID == a.GeneralID {
		from.GovernorID = ""
	}
	target.Stationed = append(target.Stationed, a.GeneralID)
	d.General(a.GeneralID).CityID = a.Target

	data["captured"] = true

	if len(loser.Cities) == 0 {
		d.AppendEvent(domain.GameEvent{
			ID:        uuid.NewString(),
			Type:      domain.EventGeneral,
			Date:      d.Date,
			CreatedAt: time.Now(),
			Data: map[string]any{
				"action":    "faction_fallen",
				"faction":   string(loserID),
				"last_city": string(a.Target),
				"victor":    string(a.FactionID),
			},
		})
		slog.Info("faction has fallen",
			"faction", loserID,
			"last_city", a.Target,
			"victor", a.FactionID,
		)
	}
}

func removeCity(ids []domain.CityID, id domain.CityID) []domain.CityID {
	out := ids[:0]
	for _, c := range ids {
		if c != id {
			out = append(out, c)
		}
	}
	return out
}

func removeGeneral(ids []domain.GeneralID, id domain.GeneralID) []domain.GeneralID {
	out := ids[:0]
	for _, g := range ids {
		if g != id {
			out = append(out, g)
		}
	}
	return out
}

// String renders an action for logs and reports.
func (a Action) String() string {
	switch a.Kind {
	case ActionAttack:
		return fmt.Sprintf("%s: %s attacks %s from %s", a.FactionID, a.GeneralID, a.Target, a.CityID)
	case ActionRecruit:
		return fmt.Sprintf("%s: %s recruits in %s", a.FactionID, a.GeneralID, a.CityID)
	default:
		return fmt.Sprintf("%s: %s develops %s in %s", a.FactionID, a.GeneralID, a.Develop, a.CityID)
	}
}
