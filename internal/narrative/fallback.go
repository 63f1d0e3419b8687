// Template narration — deterministic prose used when no LLM is configured
// or the API call fails.
package narrative

import (
	"context"
	"fmt"

	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// TemplateNarrator fills fixed templates from event data. It never fails.
type TemplateNarrator struct{}

// Narrate implements Narrator.
func (TemplateNarrator) Narrate(_ context.Context, ev domain.GameEvent, names NameContext) (string, error) {
	return DescribeEvent(ev, names), nil
}

// DescribeEvent renders an event as one plain sentence. Shared between the
// template narrator and the LLM prompt builder.
func DescribeEvent(ev domain.GameEvent, names NameContext) string {
	str := func(key string) string {
		s, _ := ev.Data[key].(string)
		return s
	}

	switch ev.Data["action"] {
	case "attack":
		attacker := names.General(domain.GeneralID(str("general")))
		faction := names.Faction(domain.FactionID(str("faction")))
		target := names.City(domain.CityID(str("target")))
		if won, _ := ev.Data["won"].(bool); won {
			return fmt.Sprintf("%s of %s stormed %s and took the city.", attacker, faction, target)
		}
		return fmt.Sprintf("%s of %s assaulted %s but was driven back.", attacker, faction, target)
	case "recruit":
		g := names.General(domain.GeneralID(str("general")))
		city := names.City(domain.CityID(str("city")))
		return fmt.Sprintf("%s raised fresh troops in %s.", g, city)
	case "develop":
		g := names.General(domain.GeneralID(str("general")))
		city := names.City(domain.CityID(str("city")))
		return fmt.Sprintf("%s oversaw %s works in %s.", g, str("target"), city)
	case "faction_fallen":
		faction := names.Faction(domain.FactionID(str("faction")))
		victor := names.Faction(domain.FactionID(str("victor")))
		return fmt.Sprintf("The banners of %s have fallen; %s claims dominion.", faction, victor)
	}

	if ev.Type == domain.EventDisaster {
		city := names.City(domain.CityID(str("city")))
		return fmt.Sprintf("Calamity in %s: %s.", city, str("detail"))
	}

	return fmt.Sprintf("In year %d, month %d, the land stirred.", ev.Date.Year, ev.Date.Month)
}
