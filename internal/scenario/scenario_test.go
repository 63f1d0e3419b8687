package scenario

import (
	"reflect"
	"strings"
	"testing"

	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// minimalFile builds the smallest valid two-faction scenario for tests to
// corrupt.
func minimalFile() *File {
	return &File{
		Name:   "test",
		Start:  domain.Date{Year: 190, Month: 1},
		Player: "a",
		Factions: []FactionSpec{
			{ID: "a", Name: "A", Leader: "ga",
				Diplomacy: map[domain.FactionID]domain.DiplomacyStatus{"b": domain.DiplomacyHostile}},
			{ID: "b", Name: "B", Leader: "gb",
				Diplomacy: map[domain.FactionID]domain.DiplomacyStatus{"a": domain.DiplomacyHostile}},
		},
		Cities: []CitySpec{
			{ID: "east", Name: "East", Faction: "a", Scale: domain.ScaleSmall,
				Resources:   domain.CityResources{Population: 1000, Gold: 100, Grain: 100, Commerce: 100, Agriculture: 100, Defense: 10, Loyalty: 50},
				Connections: []domain.CityID{"west"}, Governor: "ga"},
			{ID: "west", Name: "West", Faction: "b", Scale: domain.ScaleSmall,
				Resources:   domain.CityResources{Population: 1000, Gold: 100, Grain: 100, Commerce: 100, Agriculture: 100, Defense: 10, Loyalty: 50},
				Connections: []domain.CityID{"east"}, Governor: "gb"},
		},
		Generals: []GeneralSpec{
			{ID: "ga", Name: "Ga", Faction: "a", Attr: domain.Attributes{Lead: 50, War: 50, Int: 50, Pol: 50, Cha: 50}, Age: 30, City: "east", Troops: 1000},
			{ID: "gb", Name: "Gb", Faction: "b", Attr: domain.Attributes{Lead: 50, War: 50, Int: 50, Pol: 50, Cha: 50}, Age: 30, City: "west", Troops: 1000},
		},
	}
}

func TestLoadBundledScenario(t *testing.T) {
	s, err := Load("../../scenarios/zhongyuan190.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.PlayerFaction != "cao" {
		t.Errorf("player = %s, want cao", s.PlayerFaction)
	}
	if s.Date != (domain.Date{Year: 190, Month: 1}) {
		t.Errorf("start = %+v", s.Date)
	}
	if s.ActionPoints != 3 || s.Phase != domain.PhasePlayer {
		t.Errorf("fresh state AP/phase = %d/%s", s.ActionPoints, s.Phase)
	}
	if len(s.Factions) != 3 || len(s.Cities) != 8 || len(s.Generals) != 11 {
		t.Fatalf("counts = %d factions, %d cities, %d generals",
			len(s.Factions), len(s.Cities), len(s.Generals))
	}

	// Rosters are derived from the records, never listed in the file.
	cao := s.Factions["cao"]
	if len(cao.Cities) != 3 || len(cao.Generals) != 4 {
		t.Errorf("cao roster = %d cities, %d generals, want 3/4", len(cao.Cities), len(cao.Generals))
	}
	if got := s.Cities["chenliu"].Stationed; len(got) != 2 {
		t.Errorf("chenliu garrison = %v, want caocao and dianwei", got)
	}
	if s.Cities["chenliu"].GovernorID != "caocao" {
		t.Errorf("chenliu governor = %s", s.Cities["chenliu"].GovernorID)
	}
	// Luoyang deliberately has no governor.
	if s.Cities["luoyang"].GovernorID != "" {
		t.Errorf("luoyang governor = %s, want none", s.Cities["luoyang"].GovernorID)
	}

	if s.Factions["cao"].Stance("liu") != domain.DiplomacyNeutral {
		t.Error("cao-liu should be neutral")
	}
	if s.Factions["yuan"].Stance("cao") != domain.DiplomacyHostile {
		t.Error("yuan-cao should be hostile")
	}
	for _, g := range s.Generals {
		if !g.Alive {
			t.Errorf("general %s loaded dead", g.ID)
		}
	}
}

func TestParseRejectsAsymmetricAdjacency(t *testing.T) {
	f := minimalFile()
	f.Cities[1].Connections = nil
	if _, err := f.GameState(); err == nil || !strings.Contains(err.Error(), "symmetric") {
		t.Errorf("asymmetric adjacency accepted: %v", err)
	}
}

func TestParseRejectsDisconnectedMap(t *testing.T) {
	f := minimalFile()
	f.Cities = append(f.Cities, CitySpec{
		ID: "island", Name: "Island", Faction: "a", Scale: domain.ScaleSmall,
		Resources: domain.CityResources{Population: 1000, Gold: 100, Grain: 100, Commerce: 100, Agriculture: 100, Defense: 10, Loyalty: 50},
	})
	if _, err := f.GameState(); err == nil || !strings.Contains(err.Error(), "not connected") {
		t.Errorf("disconnected map accepted: %v", err)
	}
}

func TestParseRejectsUnstationedGovernor(t *testing.T) {
	f := minimalFile()
	f.Cities[0].Governor = "gb" // stationed in the other city
	if _, err := f.GameState(); err == nil || !strings.Contains(err.Error(), "governor") {
		t.Errorf("unstationed governor accepted: %v", err)
	}
}

func TestParseRejectsOutOfRangeStats(t *testing.T) {
	cases := []struct {
		name    string
		corrupt func(*File)
	}{
		{"commerce over cap", func(f *File) { f.Cities[0].Resources.Commerce = 1000 }},
		{"loyalty over cap", func(f *File) { f.Cities[0].Resources.Loyalty = 101 }},
		{"war over cap", func(f *File) { f.Generals[0].Attr.War = 120 }},
		{"negative troops", func(f *File) { f.Generals[0].Troops = -1 }},
		{"month thirteen", func(f *File) { f.Start.Month = 13 }},
		{"leader serves rival", func(f *File) { f.Factions[0].Leader = "gb" }},
		{"unknown diplomacy target", func(f *File) {
			f.Factions[0].Diplomacy["c"] = domain.DiplomacyHostile
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := minimalFile()
			tc.corrupt(f)
			if _, err := f.GameState(); err == nil {
				t.Error("invalid scenario accepted")
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	a, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same config produced different scenarios")
	}
}

func TestGenerateProducesPlayableMap(t *testing.T) {
	f, err := Generate(GenConfig{Seed: 42, Cities: 10, Factions: 4, GridSize: 14})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	s, err := f.GameState()
	if err != nil {
		t.Fatalf("generated scenario failed validation: %v", err)
	}

	if len(s.Cities) != 10 || len(s.Factions) != 4 {
		t.Fatalf("counts = %d cities, %d factions", len(s.Cities), len(s.Factions))
	}
	for id, fac := range s.Factions {
		if len(fac.Cities) == 0 {
			t.Errorf("faction %s owns no cities", id)
		}
		if fac.LeaderID == "" {
			t.Errorf("faction %s has no leader", id)
		}
		for other := range s.Factions {
			if other != id && fac.Stance(other) != domain.DiplomacyHostile {
				t.Errorf("%s-%s stance = %s, want hostile", id, other, fac.Stance(other))
			}
		}
	}
	for id, c := range s.Cities {
		if c.GovernorID == "" {
			t.Errorf("city %s has no governor", id)
		}
	}
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	if _, err := Generate(GenConfig{Seed: 1, Cities: 2, Factions: 3, GridSize: 10}); err == nil {
		t.Error("fewer cities than factions accepted")
	}
	if _, err := Generate(GenConfig{Seed: 1, Cities: 4, Factions: 1, GridSize: 10}); err == nil {
		t.Error("single-faction skirmish accepted")
	}
	if _, err := Generate(GenConfig{Seed: 1, Cities: 4, Factions: 2, GridSize: 2}); err == nil {
		t.Error("tiny grid accepted")
	}
}
