package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LongView-dev/sanguo-190/internal/domain"
	"github.com/LongView-dev/sanguo-190/internal/turn"
)

func apiState() *domain.GameState {
	return &domain.GameState{
		Date:          domain.Date{Year: 190, Month: 3},
		PlayerFaction: "shu",
		ActionPoints:  3,
		Phase:         domain.PhasePlayer,
		Factions: map[domain.FactionID]*domain.Faction{
			"shu": {ID: "shu", Name: "Shu", LeaderID: "liubei",
				Cities: []domain.CityID{"chengdu"}, Generals: []domain.GeneralID{"liubei"},
				Diplomacy: map[domain.FactionID]domain.DiplomacyStatus{"wei": domain.DiplomacyHostile}},
			"wei": {ID: "wei", Name: "Wei", LeaderID: "caocao",
				Cities: []domain.CityID{"changan"}, Generals: []domain.GeneralID{"caocao"},
				Diplomacy: map[domain.FactionID]domain.DiplomacyStatus{"shu": domain.DiplomacyHostile}},
		},
		Cities: map[domain.CityID]*domain.City{
			"chengdu": {ID: "chengdu", Name: "Chengdu", FactionID: "shu", Scale: domain.ScaleLarge,
				Resources:   domain.CityResources{Population: 400000, Gold: 2000, Grain: 9000, Commerce: 500, Agriculture: 600, Defense: 70, Loyalty: 80},
				Connections: []domain.CityID{"changan"},
				Stationed:   []domain.GeneralID{"liubei"}, GovernorID: "liubei"},
			"changan": {ID: "changan", Name: "Changan", FactionID: "wei", Scale: domain.ScaleMedium,
				Resources:   domain.CityResources{Population: 250000, Gold: 5000, Grain: 6000, Commerce: 400, Agriculture: 300, Defense: 40, Loyalty: 60},
				Connections: []domain.CityID{"chengdu"},
				Stationed:   []domain.GeneralID{"caocao"}, GovernorID: "caocao"},
		},
		Generals: map[domain.GeneralID]*domain.General{
			"liubei": {ID: "liubei", Name: "Liu Bei", FactionID: "shu",
				Attr: domain.Attributes{Lead: 84, War: 73, Int: 77, Pol: 82, Cha: 99},
				Age:  30, Alive: true, CityID: "chengdu", Troops: 12000},
			"caocao": {ID: "caocao", Name: "Cao Cao", FactionID: "wei",
				Attr: domain.Attributes{Lead: 96, War: 72, Int: 91, Pol: 94, Cha: 96},
				Age:  36, Alive: true, CityID: "changan", Troops: 15000},
		},
		Events: []domain.GameEvent{
			{ID: "ev-1", Type: domain.EventDomestic, Date: domain.Date{Year: 190, Month: 1},
				CreatedAt: time.Now(), Data: map[string]any{"action": "develop"}},
			{ID: "ev-2", Type: domain.EventBattle, Date: domain.Date{Year: 190, Month: 2},
				CreatedAt: time.Now(), Data: map[string]any{"action": "attack"}},
		},
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	orch := &turn.Orchestrator{RNG: rand.New(rand.NewSource(3))}
	return NewServer(orch, apiState(), 0)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStatusEndpoint(t *testing.T) {
	s := testServer(t)
	w := get(t, s.Handler(), "/api/v1/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp["year"] != float64(190) || resp["month"] != float64(3) {
		t.Errorf("date = %v/%v", resp["year"], resp["month"])
	}
	if resp["player_faction"] != "shu" {
		t.Errorf("player = %v", resp["player_faction"])
	}
	if _, hasWinner := resp["winner"]; hasWinner {
		t.Error("two-faction campaign reported a winner")
	}
}

func TestFactionsSortedAndSummarized(t *testing.T) {
	s := testServer(t)
	w := get(t, s.Handler(), "/api/v1/factions")

	var resp []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(resp) != 2 || resp[0]["id"] != "shu" || resp[1]["id"] != "wei" {
		t.Fatalf("factions = %v, want shu then wei", resp)
	}
	if resp[0]["troops"] != float64(12000) || resp[0]["leader"] != "Liu Bei" {
		t.Errorf("shu summary = %v", resp[0])
	}
}

func TestCityDetail(t *testing.T) {
	s := testServer(t)
	w := get(t, s.Handler(), "/api/v1/city/chengdu")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		City     domain.City      `json:"city"`
		Garrison []domain.General `json:"garrison"`
		Troops   int              `json:"troops"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.City.Name != "Chengdu" || resp.Troops != 12000 || len(resp.Garrison) != 1 {
		t.Errorf("detail = %+v", resp)
	}

	if w := get(t, s.Handler(), "/api/v1/city/atlantis"); w.Code != http.StatusNotFound {
		t.Errorf("unknown city status = %d", w.Code)
	}
}

func TestEventsNewestFirstWithFilter(t *testing.T) {
	s := testServer(t)

	var resp []domain.GameEvent
	w := get(t, s.Handler(), "/api/v1/events")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != "ev-2" {
		t.Errorf("events = %+v, want ev-2 first", resp)
	}

	w = get(t, s.Handler(), "/api/v1/events?type=battle")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(resp) != 1 || resp[0].Type != domain.EventBattle {
		t.Errorf("filtered events = %+v", resp)
	}
}

func TestTurnEndAdvancesState(t *testing.T) {
	s := testServer(t)
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/turn/end", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp["month"] != float64(4) {
		t.Errorf("month = %v, want 4", resp["month"])
	}
	if s.State().Date.Month != 4 {
		t.Errorf("server state month = %d", s.State().Date.Month)
	}
}

func TestTurnEndRejectsGet(t *testing.T) {
	s := testServer(t)
	if w := get(t, s.Handler(), "/api/v1/turn/end"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET turn/end status = %d", w.Code)
	}
}

func TestTurnEndRequiresToken(t *testing.T) {
	s := testServer(t)
	s.AdminKey = "secret"
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/turn/end", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/turn/end", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d: %s", w.Code, w.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request within window should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("limits must be per client")
	}
	if rl.RetryAfter("1.2.3.4") <= 0 {
		t.Error("RetryAfter should be positive for a limited client")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4444"
	if got := clientIP(r); got != "10.0.0.1" {
		t.Errorf("clientIP = %s", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.9" {
		t.Errorf("clientIP with XFF = %s", got)
	}
}
