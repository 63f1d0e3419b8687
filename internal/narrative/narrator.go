// Package narrative turns game events into prose. The kernel depends only
// on the Narrator interface; the LLM-backed client and the deterministic
// template fallback both satisfy it, and callers inject whichever they
// want. Narration is always best-effort: a failure leaves the event's
// narrative empty and the turn proceeds.
package narrative

import (
	"context"

	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// NameContext resolves ids to display names for prose generation.
type NameContext struct {
	General func(domain.GeneralID) string
	City    func(domain.CityID) string
	Faction func(domain.FactionID) string
}

// NamesFromState builds a NameContext over a game state, falling back to
// the raw id when a lookup misses.
func NamesFromState(s *domain.GameState) NameContext {
	return NameContext{
		General: func(id domain.GeneralID) string {
			if g, ok := s.Generals[id]; ok {
				return g.Name
			}
			return string(id)
		},
		City: func(id domain.CityID) string {
			if c, ok := s.Cities[id]; ok {
				return c.Name
			}
			return string(id)
		},
		Faction: func(id domain.FactionID) string {
			if f, ok := s.Factions[id]; ok {
				return f.Name
			}
			return string(id)
		},
	}
}

// Narrator generates prose for a single event.
type Narrator interface {
	Narrate(ctx context.Context, ev domain.GameEvent, names NameContext) (string, error)
}
