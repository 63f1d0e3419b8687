// Package scenario loads campaign setups from YAML and validates the
// entity graph before the kernel ever sees it. It also generates random
// skirmish maps for quick games.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// File is the on-disk scenario format. Faction city/general rosters are
// derived from the city and general records, never listed twice.
type File struct {
	Name     string           `yaml:"name"`
	Start    domain.Date      `yaml:"start"`
	Player   domain.FactionID `yaml:"player"`
	Factions []FactionSpec    `yaml:"factions"`
	Cities   []CitySpec       `yaml:"cities"`
	Generals []GeneralSpec    `yaml:"generals"`
}

// FactionSpec describes one faction.
type FactionSpec struct {
	ID        domain.FactionID                            `yaml:"id"`
	Name      string                                      `yaml:"name"`
	Leader    domain.GeneralID                            `yaml:"leader"`
	Color     string                                      `yaml:"color"`
	Diplomacy map[domain.FactionID]domain.DiplomacyStatus `yaml:"diplomacy"`
}

// CitySpec describes one city. Stationed generals come from the general
// records; only the governor is named here.
type CitySpec struct {
	ID          domain.CityID        `yaml:"id"`
	Name        string               `yaml:"name"`
	Faction     domain.FactionID     `yaml:"faction"`
	Position    domain.Position      `yaml:"position"`
	Scale       domain.CityScale     `yaml:"scale"`
	Resources   domain.CityResources `yaml:"resources"`
	Connections []domain.CityID      `yaml:"connections"`
	Governor    domain.GeneralID     `yaml:"governor,omitempty"`
}

// GeneralSpec describes one general.
type GeneralSpec struct {
	ID      domain.GeneralID  `yaml:"id"`
	Name    string            `yaml:"name"`
	Faction domain.FactionID  `yaml:"faction"`
	Attr    domain.Attributes `yaml:"attr"`
	Age     int               `yaml:"age"`
	City    domain.CityID     `yaml:"city"`
	Troops  int               `yaml:"troops"`
}

// Load reads, parses, and validates a scenario file into a fresh game
// state.
func Load(path string) (*domain.GameState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(b)
}

// Parse builds a game state from scenario YAML.
func Parse(b []byte) (*domain.GameState, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return f.GameState()
}

// GameState assembles and validates the initial state described by the
// file.
func (f *File) GameState() (*domain.GameState, error) {
	s := &domain.GameState{
		Date:          f.Start,
		PlayerFaction: f.Player,
		ActionPoints:  3,
		Phase:         domain.PhasePlayer,
		Factions:      make(map[domain.FactionID]*domain.Faction, len(f.Factions)),
		Cities:        make(map[domain.CityID]*domain.City, len(f.Cities)),
		Generals:      make(map[domain.GeneralID]*domain.General, len(f.Generals)),
	}

	for _, fs := range f.Factions {
		dip := fs.Diplomacy
		if dip == nil {
			dip = make(map[domain.FactionID]domain.DiplomacyStatus)
		}
		s.Factions[fs.ID] = &domain.Faction{
			ID:        fs.ID,
			Name:      fs.Name,
			LeaderID:  fs.Leader,
			Color:     fs.Color,
			Diplomacy: dip,
		}
	}

	for _, cs := range f.Cities {
		s.Cities[cs.ID] = &domain.City{
			ID:          cs.ID,
			Name:        cs.Name,
			FactionID:   cs.Faction,
			Position:    cs.Position,
			Scale:       cs.Scale,
			Resources:   cs.Resources,
			Connections: append([]domain.CityID(nil), cs.Connections...),
			GovernorID:  cs.Governor,
		}
		if owner, ok := s.Factions[cs.Faction]; ok {
			owner.Cities = append(owner.Cities, cs.ID)
		}
	}

	for _, gs := range f.Generals {
		s.Generals[gs.ID] = &domain.General{
			ID:        gs.ID,
			Name:      gs.Name,
			FactionID: gs.Faction,
			Attr:      gs.Attr,
			Age:       gs.Age,
			Alive:     true,
			CityID:    gs.City,
			Troops:    gs.Troops,
		}
		if owner, ok := s.Factions[gs.Faction]; ok {
			owner.Generals = append(owner.Generals, gs.ID)
		}
		if city, ok := s.Cities[gs.City]; ok {
			city.Stationed = append(city.Stationed, gs.ID)
		}
	}

	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}
