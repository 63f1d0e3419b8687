// Package domain holds the entity model for the warlord simulation:
// factions, cities, generals, the game state that ties them together,
// and the event log the kernel appends to.
package domain

import (
	"sort"
	"time"
)

// Typed identifiers. Scenario files use short slugs ("wei", "xuchang",
// "caocao") which double as map keys everywhere in the kernel.
type (
	FactionID string
	CityID    string
	GeneralID string
)

// DiplomacyStatus is one faction's stance toward another.
type DiplomacyStatus string

const (
	DiplomacyHostile DiplomacyStatus = "hostile"
	DiplomacyNeutral DiplomacyStatus = "neutral"
	DiplomacyAlly    DiplomacyStatus = "ally"
)

// Faction is a warlord power competing over the map.
type Faction struct {
	ID       FactionID                     `json:"id" yaml:"id"`
	Name     string                        `json:"name" yaml:"name"`
	LeaderID GeneralID                     `json:"leader_id" yaml:"leader"`
	Color    string                        `json:"color" yaml:"color"`
	Cities   []CityID                      `json:"cities" yaml:"-"`
	Generals []GeneralID                   `json:"generals" yaml:"-"`
	// Diplomacy is this faction's own view of the others. It is not
	// required to be symmetric; the AI only ever reads the acting
	// faction's map.
	Diplomacy map[FactionID]DiplomacyStatus `json:"diplomacy" yaml:"diplomacy"`
}

// Stance returns the faction's stance toward other, defaulting to neutral
// when no entry exists.
func (f *Faction) Stance(other FactionID) DiplomacyStatus {
	if s, ok := f.Diplomacy[other]; ok {
		return s
	}
	return DiplomacyNeutral
}

// CityScale is the size tier of a city, feeding the AI's strategic value.
type CityScale string

const (
	ScaleSmall  CityScale = "small"
	ScaleMedium CityScale = "medium"
	ScaleLarge  CityScale = "large"
)

// ScaleScore maps a city scale to its strategic-value weight.
func ScaleScore(s CityScale) int {
	switch s {
	case ScaleMedium:
		return 2
	case ScaleLarge:
		return 3
	default:
		return 1
	}
}

// Position is a map coordinate, used only for layout and reporting.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// CityResources holds a city's stocks and development levels.
// Commerce and Agriculture cap at 999; Defense and Loyalty at 100.
type CityResources struct {
	Population  int `json:"population" yaml:"population"`
	Gold        int `json:"gold" yaml:"gold"`
	Grain       int `json:"grain" yaml:"grain"`
	Commerce    int `json:"commerce" yaml:"commerce"`
	Agriculture int `json:"agriculture" yaml:"agriculture"`
	Defense     int `json:"defense" yaml:"defense"`
	Loyalty     int `json:"loyalty" yaml:"loyalty"`
}

// MaxDevelopment is the cap for commerce and agriculture.
const MaxDevelopment = 999

// City is a map node owned by a faction.
type City struct {
	ID          CityID        `json:"id"`
	Name        string        `json:"name"`
	FactionID   FactionID     `json:"faction_id"`
	Position    Position      `json:"position"`
	Scale       CityScale     `json:"scale"`
	Resources   CityResources `json:"resources"`
	// Connections is the adjacency list. Symmetric by construction:
	// the scenario validator rejects maps where A lists B but not the
	// reverse.
	Connections []CityID    `json:"connections"`
	Stationed   []GeneralID `json:"stationed"`
	// GovernorID, when set, must be one of Stationed. Empty means no
	// governor (halved politics bonus).
	GovernorID GeneralID `json:"governor_id"`
}

// ConnectedTo reports whether other is directly adjacent.
func (c *City) ConnectedTo(other CityID) bool {
	for _, id := range c.Connections {
		if id == other {
			return true
		}
	}
	return false
}

// Attributes are a general's five core stats, each in [0,100].
type Attributes struct {
	Lead int `json:"lead" yaml:"lead"`
	War  int `json:"war" yaml:"war"`
	Int  int `json:"int" yaml:"int"`
	Pol  int `json:"pol" yaml:"pol"`
	Cha  int `json:"cha" yaml:"cha"`
}

// General is an officer serving a faction.
type General struct {
	ID        GeneralID  `json:"id"`
	Name      string     `json:"name"`
	FactionID FactionID  `json:"faction_id"`
	Attr      Attributes `json:"attr"`
	Age       int        `json:"age"`
	Alive     bool       `json:"alive"`
	CityID    CityID     `json:"city_id"`
	Troops    int        `json:"troops"`
}

// Date is the in-game calendar position. Month is 1-12.
type Date struct {
	Year  int `json:"year" yaml:"year"`
	Month int `json:"month" yaml:"month"`
}

// Phase is the turn state machine position. The cycle is
// player → calculation → narrative → player with no terminal state.
type Phase string

const (
	PhasePlayer      Phase = "player"
	PhaseCalculation Phase = "calculation"
	PhaseNarrative   Phase = "narrative"
)

// EventType categorizes a GameEvent.
type EventType string

const (
	EventBattle   EventType = "battle"
	EventDomestic EventType = "domestic"
	EventDisaster EventType = "disaster"
	EventGeneral  EventType = "general"
)

// GameEvent is an immutable record of something that happened. The kernel
// only appends events; the narrative collaborator may fill Narrative after
// the fact, and that is the one field written post-creation.
type GameEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Date      Date           `json:"date"`
	CreatedAt time.Time      `json:"created_at"`
	Data      map[string]any `json:"data"`
	Narrative string         `json:"narrative,omitempty"`
}

// GameState is the complete simulation state for one campaign.
type GameState struct {
	Date          Date                     `json:"date"`
	PlayerFaction FactionID                `json:"player_faction"`
	ActionPoints  int                      `json:"action_points"`
	Phase         Phase                    `json:"phase"`
	Factions      map[FactionID]*Faction   `json:"factions"`
	Cities        map[CityID]*City         `json:"cities"`
	Generals      map[GeneralID]*General   `json:"generals"`
	SelectedCity  CityID                   `json:"selected_city"`
	// Events is stored in append order; display layers reverse it.
	Events []GameEvent `json:"events"`
}

// View is read access to the entity graph. Both *GameState and *Draft
// satisfy it, so planning code can run against either a committed state
// (tests) or an in-progress working copy (the orchestrator).
type View interface {
	FactionView(FactionID) *Faction
	CityView(CityID) *City
	GeneralView(GeneralID) *General
}

// SortedFactionIDs returns every faction id in ascending order. Sorted
// iteration is the determinism policy: nothing in the kernel depends on
// Go map order.
func (s *GameState) SortedFactionIDs() []FactionID {
	ids := make([]FactionID, 0, len(s.Factions))
	for id := range s.Factions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SortedCityIDs returns every city id in ascending order.
func (s *GameState) SortedCityIDs() []CityID {
	ids := make([]CityID, 0, len(s.Cities))
	for id := range s.Cities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SortedGeneralIDs returns every general id in ascending order.
func (s *GameState) SortedGeneralIDs() []GeneralID {
	ids := make([]GeneralID, 0, len(s.Generals))
	for id := range s.Generals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FactionView returns the faction or nil.
func (s *GameState) FactionView(id FactionID) *Faction { return s.Factions[id] }

// CityView returns the city or nil.
func (s *GameState) CityView(id CityID) *City { return s.Cities[id] }

// GeneralView returns the general or nil.
func (s *GameState) GeneralView(id GeneralID) *General { return s.Generals[id] }

// CityTroops sums the troops of a city's living stationed generals.
func CityTroops(v View, cityID CityID) int {
	c := v.CityView(cityID)
	if c == nil {
		return 0
	}
	total := 0
	for _, gid := range c.Stationed {
		g := v.GeneralView(gid)
		if g != nil && g.Alive {
			total += g.Troops
		}
	}
	return total
}

// StrongestGeneral returns the living stationed general with the highest
// combat rating (war*0.4 + lead*0.6), or nil if the city is empty.
// Ties keep the earlier general in station order.
func StrongestGeneral(v View, cityID CityID) *General {
	c := v.CityView(cityID)
	if c == nil {
		return nil
	}
	var best *General
	var bestRating float64
	for _, gid := range c.Stationed {
		g := v.GeneralView(gid)
		if g == nil || !g.Alive {
			continue
		}
		rating := float64(g.Attr.War)*0.4 + float64(g.Attr.Lead)*0.6
		if best == nil || rating > bestRating {
			best = g
			bestRating = rating
		}
	}
	return best
}

// BestPolGeneral returns the living stationed general with the highest
// politics stat, or nil. Ties keep station order.
func BestPolGeneral(v View, cityID CityID) *General {
	c := v.CityView(cityID)
	if c == nil {
		return nil
	}
	var best *General
	for _, gid := range c.Stationed {
		g := v.GeneralView(gid)
		if g == nil || !g.Alive {
			continue
		}
		if best == nil || g.Attr.Pol > best.Attr.Pol {
			best = g
		}
	}
	return best
}

// GovernorPol returns a pointer to the city governor's politics stat, or
// nil when the city has no living governor.
func GovernorPol(v View, cityID CityID) *int {
	c := v.CityView(cityID)
	if c == nil || c.GovernorID == "" {
		return nil
	}
	g := v.GeneralView(c.GovernorID)
	if g == nil || !g.Alive {
		return nil
	}
	pol := g.Attr.Pol
	return &pol
}
