// Scenario validation — the data-model invariants are enforced once, at
// load time. A state that passes here is safe for the kernel, which
// treats violations found later as programming errors.
package scenario

import (
	"fmt"
	"log/slog"

	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// Validate checks every structural invariant of the entity graph:
// referenced ids exist, ownership lists agree with entity records,
// adjacency is symmetric and the map connected, governors are stationed
// in their city, and every numeric stat is in range.
func Validate(s *domain.GameState) error {
	if s.Date.Month < 1 || s.Date.Month > 12 {
		return fmt.Errorf("start month %d out of range", s.Date.Month)
	}
	if len(s.Cities) == 0 {
		return fmt.Errorf("scenario has no cities")
	}
	if _, ok := s.Factions[s.PlayerFaction]; s.PlayerFaction != "" && !ok {
		return fmt.Errorf("player faction %q does not exist", s.PlayerFaction)
	}

	for id, f := range s.Factions {
		if f.LeaderID != "" {
			leader, ok := s.Generals[f.LeaderID]
			if !ok {
				return fmt.Errorf("faction %s: leader %q does not exist", id, f.LeaderID)
			}
			if leader.FactionID != id {
				return fmt.Errorf("faction %s: leader %q serves %s", id, f.LeaderID, leader.FactionID)
			}
		}
		for _, cid := range f.Cities {
			c, ok := s.Cities[cid]
			if !ok {
				return fmt.Errorf("faction %s: city %q does not exist", id, cid)
			}
			if c.FactionID != id {
				return fmt.Errorf("faction %s lists city %q owned by %s", id, cid, c.FactionID)
			}
		}
		for _, gid := range f.Generals {
			g, ok := s.Generals[gid]
			if !ok {
				return fmt.Errorf("faction %s: general %q does not exist", id, gid)
			}
			if g.FactionID != id {
				return fmt.Errorf("faction %s lists general %q serving %s", id, gid, g.FactionID)
			}
		}
		for other, stance := range f.Diplomacy {
			if _, ok := s.Factions[other]; !ok {
				return fmt.Errorf("faction %s: diplomacy references unknown faction %q", id, other)
			}
			if other == id {
				return fmt.Errorf("faction %s: diplomacy references itself", id)
			}
			switch stance {
			case domain.DiplomacyHostile, domain.DiplomacyNeutral, domain.DiplomacyAlly:
			default:
				return fmt.Errorf("faction %s: unknown diplomacy status %q", id, stance)
			}
		}
	}

	// Asymmetric hostility is allowed but worth surfacing: the AI reads
	// only its own faction's map.
	for id, f := range s.Factions {
		for other, stance := range f.Diplomacy {
			if stance != domain.DiplomacyHostile {
				continue
			}
			if s.Factions[other].Stance(id) != domain.DiplomacyHostile {
				slog.Warn("asymmetric hostility",
					"faction", id,
					"toward", other,
				)
			}
		}
	}

	for id, c := range s.Cities {
		if _, ok := s.Factions[c.FactionID]; !ok {
			return fmt.Errorf("city %s: owner %q does not exist", id, c.FactionID)
		}
		switch c.Scale {
		case domain.ScaleSmall, domain.ScaleMedium, domain.ScaleLarge:
		default:
			return fmt.Errorf("city %s: unknown scale %q", id, c.Scale)
		}
		r := c.Resources
		if r.Commerce < 0 || r.Commerce > domain.MaxDevelopment {
			return fmt.Errorf("city %s: commerce %d out of range", id, r.Commerce)
		}
		if r.Agriculture < 0 || r.Agriculture > domain.MaxDevelopment {
			return fmt.Errorf("city %s: agriculture %d out of range", id, r.Agriculture)
		}
		if r.Defense < 0 || r.Defense > 100 {
			return fmt.Errorf("city %s: defense %d out of range", id, r.Defense)
		}
		if r.Loyalty < 0 || r.Loyalty > 100 {
			return fmt.Errorf("city %s: loyalty %d out of range", id, r.Loyalty)
		}
		if r.Population < 0 || r.Gold < 0 || r.Grain < 0 {
			return fmt.Errorf("city %s: negative stocks", id)
		}

		for _, other := range c.Connections {
			oc, ok := s.Cities[other]
			if !ok {
				return fmt.Errorf("city %s: connection %q does not exist", id, other)
			}
			if other == id {
				return fmt.Errorf("city %s: connected to itself", id)
			}
			if !oc.ConnectedTo(id) {
				return fmt.Errorf("adjacency not symmetric: %s lists %s but not the reverse", id, other)
			}
		}

		if c.GovernorID != "" {
			stationed := false
			for _, gid := range c.Stationed {
				if gid == c.GovernorID {
					stationed = true
				}
			}
			if !stationed {
				return fmt.Errorf("city %s: governor %q is not stationed there", id, c.GovernorID)
			}
		}
	}

	for id, g := range s.Generals {
		if _, ok := s.Factions[g.FactionID]; !ok {
			return fmt.Errorf("general %s: faction %q does not exist", id, g.FactionID)
		}
		if _, ok := s.Cities[g.CityID]; !ok {
			return fmt.Errorf("general %s: city %q does not exist", id, g.CityID)
		}
		for _, a := range []struct {
			name string
			v    int
		}{
			{"lead", g.Attr.Lead}, {"war", g.Attr.War}, {"int", g.Attr.Int},
			{"pol", g.Attr.Pol}, {"cha", g.Attr.Cha},
		} {
			if a.v < 0 || a.v > 100 {
				return fmt.Errorf("general %s: %s %d out of range", id, a.name, a.v)
			}
		}
		if g.Troops < 0 {
			return fmt.Errorf("general %s: negative troops", id)
		}
	}

	if err := checkConnected(s); err != nil {
		return err
	}
	return nil
}

// checkConnected verifies the map forms a single connected component.
func checkConnected(s *domain.GameState) error {
	var start domain.CityID
	for id := range s.Cities {
		start = id
		break
	}
	seen := map[domain.CityID]bool{start: true}
	queue := []domain.CityID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range s.Cities[id].Connections {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	if len(seen) != len(s.Cities) {
		return fmt.Errorf("map is not connected: reached %d of %d cities", len(seen), len(s.Cities))
	}
	return nil
}
