// Per-faction per-turn planning.
package ai

import (
	"log/slog"

	"github.com/LongView-dev/sanguo-190/internal/calendar"
	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// Planning resource gates.
const (
	recruitGoldGate = 1000
	recruitPopGate  = 500
	developGoldGate = 100
)

// ActionKind is a planned AI command.
type ActionKind string

const (
	ActionRecruit ActionKind = "recruit"
	ActionDevelop ActionKind = "develop"
	ActionAttack  ActionKind = "attack"
)

// DevelopTarget selects which stat a develop action raises.
type DevelopTarget string

const (
	DevelopCommerce    DevelopTarget = "commerce"
	DevelopAgriculture DevelopTarget = "agriculture"
)

// Action is one planned command, ready for execution.
type Action struct {
	Kind      ActionKind
	FactionID domain.FactionID
	CityID    domain.CityID
	GeneralID domain.GeneralID // executor: recruiter, developer, or attack leader
	Target    domain.CityID    // attack only
	Develop   DevelopTarget    // develop only
}

// MakeDecision plans a faction's turn. The faction starts with the same
// 3-point budget as the player, shared sequentially across its cities in
// list order. Per city the priority is fixed: recruit, then attack, then
// develop; a city that can afford none of them consumes no points.
// Planning stops when the budget runs out.
func MakeDecision(v domain.View, factionID domain.FactionID) []Action {
	faction := v.FactionView(factionID)
	if faction == nil || len(faction.Cities) == 0 {
		return nil
	}

	ap := calendar.MaxActionPoints
	var actions []Action

	for _, cityID := range faction.Cities {
		if ap <= 0 {
			break
		}
		city := v.CityView(cityID)
		if city == nil {
			continue
		}

		// Priority 1: recruit when the garrison is thin or threatened.
		if ShouldRecruit(v, cityID) && ap >= calendar.Cost(calendar.ActionDomestic) &&
			city.Resources.Gold >= recruitGoldGate && city.Resources.Population >= recruitPopGate {
			if recruiter := domain.BestPolGeneral(v, cityID); recruiter != nil {
				actions = append(actions, Action{
					Kind:      ActionRecruit,
					FactionID: factionID,
					CityID:    cityID,
					GeneralID: recruiter.ID,
				})
				ap -= calendar.Cost(calendar.ActionDomestic)
				continue
			}
		}

		// Priority 2: attack a promising neighbor.
		if ap >= calendar.Cost(calendar.ActionCampaign) {
			if target, ok := FindBestAttackTarget(v, factionID, cityID); ok {
				if leader := domain.StrongestGeneral(v, cityID); leader != nil && leader.Troops >= minAttackTroops {
					actions = append(actions, Action{
						Kind:      ActionAttack,
						FactionID: factionID,
						CityID:    cityID,
						GeneralID: leader.ID,
						Target:    target.CityID,
					})
					ap -= calendar.Cost(calendar.ActionCampaign)
					continue
				}
			}
		}

		// Priority 3: develop whichever stat lags.
		if ap >= calendar.Cost(calendar.ActionDomestic) && city.Resources.Gold >= developGoldGate {
			if developer := domain.BestPolGeneral(v, cityID); developer != nil {
				target := DevelopCommerce
				if city.Resources.Agriculture < city.Resources.Commerce {
					target = DevelopAgriculture
				}
				actions = append(actions, Action{
					Kind:      ActionDevelop,
					FactionID: factionID,
					CityID:    cityID,
					GeneralID: developer.ID,
					Develop:   target,
				})
				ap -= calendar.Cost(calendar.ActionDomestic)
			}
		}
	}

	slog.Debug("faction turn planned",
		"faction", factionID,
		"actions", len(actions),
		"ap_left", ap,
	)
	return actions
}
