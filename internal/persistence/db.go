// Package persistence provides SQLite-based campaign storage. A save is a
// full snapshot: every table is replaced in one transaction, so a
// campaign file is always internally consistent.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/LongView-dev/sanguo-190/internal/domain"
)

// DB wraps a SQLite connection for campaign persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS factions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		leader_id TEXT NOT NULL,
		color TEXT NOT NULL,
		cities_json TEXT NOT NULL,
		generals_json TEXT NOT NULL,
		diplomacy_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		faction_id TEXT NOT NULL,
		pos_x INTEGER NOT NULL,
		pos_y INTEGER NOT NULL,
		scale TEXT NOT NULL,
		population INTEGER NOT NULL,
		gold INTEGER NOT NULL,
		grain INTEGER NOT NULL,
		commerce INTEGER NOT NULL,
		agriculture INTEGER NOT NULL,
		defense INTEGER NOT NULL,
		loyalty INTEGER NOT NULL,
		connections_json TEXT NOT NULL,
		stationed_json TEXT NOT NULL,
		governor_id TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS generals (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		faction_id TEXT NOT NULL,
		lead INTEGER NOT NULL,
		war INTEGER NOT NULL,
		intellect INTEGER NOT NULL,
		politics INTEGER NOT NULL,
		charisma INTEGER NOT NULL,
		age INTEGER NOT NULL,
		alive INTEGER NOT NULL,
		city_id TEXT NOT NULL,
		troops INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		type TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		data_json TEXT NOT NULL,
		narrative TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_date ON events(year, month);
	CREATE INDEX IF NOT EXISTS idx_cities_faction ON cities(faction_id);
	CREATE INDEX IF NOT EXISTS idx_generals_city ON generals(city_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveState writes a full snapshot of the campaign, replacing any
// previous one, in a single transaction.
func (db *DB) SaveState(s *domain.GameState) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"factions", "cities", "generals", "events"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	if err := saveFactions(tx, s); err != nil {
		return fmt.Errorf("save factions: %w", err)
	}
	if err := saveCities(tx, s); err != nil {
		return fmt.Errorf("save cities: %w", err)
	}
	if err := saveGenerals(tx, s); err != nil {
		return fmt.Errorf("save generals: %w", err)
	}
	if err := saveEvents(tx, s); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	meta := map[string]string{
		"year":           strconv.Itoa(s.Date.Year),
		"month":          strconv.Itoa(s.Date.Month),
		"player_faction": string(s.PlayerFaction),
		"action_points":  strconv.Itoa(s.ActionPoints),
		"phase":          string(s.Phase),
		"saved_at":       time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO campaign_meta (key, value) VALUES (?, ?)", k, v,
		); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	return tx.Commit()
}

func saveFactions(tx *sqlx.Tx, s *domain.GameState) error {
	stmt, err := tx.Preparex(`INSERT INTO factions
		(id, name, leader_id, color, cities_json, generals_json, diplomacy_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range s.Factions {
		cities, _ := json.Marshal(f.Cities)
		generals, _ := json.Marshal(f.Generals)
		diplomacy, _ := json.Marshal(f.Diplomacy)
		if _, err := stmt.Exec(
			f.ID, f.Name, f.LeaderID, f.Color,
			string(cities), string(generals), string(diplomacy),
		); err != nil {
			return fmt.Errorf("insert faction %s: %w", f.ID, err)
		}
	}
	return nil
}

func saveCities(tx *sqlx.Tx, s *domain.GameState) error {
	stmt, err := tx.Preparex(`INSERT INTO cities
		(id, name, faction_id, pos_x, pos_y, scale,
		 population, gold, grain, commerce, agriculture, defense, loyalty,
		 connections_json, stationed_json, governor_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range s.Cities {
		connections, _ := json.Marshal(c.Connections)
		stationed, _ := json.Marshal(c.Stationed)
		r := c.Resources
		if _, err := stmt.Exec(
			c.ID, c.Name, c.FactionID, c.Position.X, c.Position.Y, c.Scale,
			r.Population, r.Gold, r.Grain, r.Commerce, r.Agriculture, r.Defense, r.Loyalty,
			string(connections), string(stationed), c.GovernorID,
		); err != nil {
			return fmt.Errorf("insert city %s: %w", c.ID, err)
		}
	}
	return nil
}

func saveGenerals(tx *sqlx.Tx, s *domain.GameState) error {
	stmt, err := tx.Preparex(`INSERT INTO generals
		(id, name, faction_id, lead, war, intellect, politics, charisma,
		 age, alive, city_id, troops)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range s.Generals {
		alive := 0
		if g.Alive {
			alive = 1
		}
		if _, err := stmt.Exec(
			g.ID, g.Name, g.FactionID,
			g.Attr.Lead, g.Attr.War, g.Attr.Int, g.Attr.Pol, g.Attr.Cha,
			g.Age, alive, g.CityID, g.Troops,
		); err != nil {
			return fmt.Errorf("insert general %s: %w", g.ID, err)
		}
	}
	return nil
}

func saveEvents(tx *sqlx.Tx, s *domain.GameState) error {
	if len(s.Events) == 0 {
		return nil
	}
	stmt, err := tx.Preparex(`INSERT INTO events
		(id, type, year, month, created_at, data_json, narrative)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range s.Events {
		data, _ := json.Marshal(e.Data)
		if _, err := stmt.Exec(
			e.ID, e.Type, e.Date.Year, e.Date.Month,
			e.CreatedAt.UTC().Format(time.RFC3339), string(data), e.Narrative,
		); err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}
	return nil
}

// AutoSave persists a completed turn in the background. Failures are
// logged, never surfaced: a lost autosave must not break the campaign.
func (db *DB) AutoSave(s *domain.GameState) {
	if err := db.SaveState(s); err != nil {
		slog.Error("autosave failed", "error", err)
		return
	}
	slog.Debug("autosave complete",
		"year", s.Date.Year,
		"month", s.Date.Month,
		"events", len(s.Events),
	)
}

type factionRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	LeaderID      string `db:"leader_id"`
	Color         string `db:"color"`
	CitiesJSON    string `db:"cities_json"`
	GeneralsJSON  string `db:"generals_json"`
	DiplomacyJSON string `db:"diplomacy_json"`
}

type cityRow struct {
	ID              string `db:"id"`
	Name            string `db:"name"`
	FactionID       string `db:"faction_id"`
	PosX            int    `db:"pos_x"`
	PosY            int    `db:"pos_y"`
	Scale           string `db:"scale"`
	Population      int    `db:"population"`
	Gold            int    `db:"gold"`
	Grain           int    `db:"grain"`
	Commerce        int    `db:"commerce"`
	Agriculture     int    `db:"agriculture"`
	Defense         int    `db:"defense"`
	Loyalty         int    `db:"loyalty"`
	ConnectionsJSON string `db:"connections_json"`
	StationedJSON   string `db:"stationed_json"`
	GovernorID      string `db:"governor_id"`
}

type generalRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	FactionID string `db:"faction_id"`
	Lead      int    `db:"lead"`
	War       int    `db:"war"`
	Intellect int    `db:"intellect"`
	Politics  int    `db:"politics"`
	Charisma  int    `db:"charisma"`
	Age       int    `db:"age"`
	Alive     int    `db:"alive"`
	CityID    string `db:"city_id"`
	Troops    int    `db:"troops"`
}

type eventRow struct {
	Seq       int64  `db:"seq"`
	ID        string `db:"id"`
	Type      string `db:"type"`
	Year      int    `db:"year"`
	Month     int    `db:"month"`
	CreatedAt string `db:"created_at"`
	DataJSON  string `db:"data_json"`
	Narrative string `db:"narrative"`
}

// Load reconstructs the most recently saved campaign state.
func (db *DB) Load() (*domain.GameState, error) {
	s := &domain.GameState{
		Factions: make(map[domain.FactionID]*domain.Faction),
		Cities:   make(map[domain.CityID]*domain.City),
		Generals: make(map[domain.GeneralID]*domain.General),
	}

	meta, err := db.loadMeta()
	if err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}
	s.Date.Year, _ = strconv.Atoi(meta["year"])
	s.Date.Month, _ = strconv.Atoi(meta["month"])
	s.PlayerFaction = domain.FactionID(meta["player_faction"])
	s.ActionPoints, _ = strconv.Atoi(meta["action_points"])
	s.Phase = domain.Phase(meta["phase"])
	if s.Date.Month == 0 {
		return nil, fmt.Errorf("no saved campaign")
	}

	var factions []factionRow
	if err := db.conn.Select(&factions, "SELECT * FROM factions"); err != nil {
		return nil, fmt.Errorf("load factions: %w", err)
	}
	for _, row := range factions {
		f := &domain.Faction{
			ID:       domain.FactionID(row.ID),
			Name:     row.Name,
			LeaderID: domain.GeneralID(row.LeaderID),
			Color:    row.Color,
		}
		if err := json.Unmarshal([]byte(row.CitiesJSON), &f.Cities); err != nil {
			return nil, fmt.Errorf("faction %s cities: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.GeneralsJSON), &f.Generals); err != nil {
			return nil, fmt.Errorf("faction %s generals: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.DiplomacyJSON), &f.Diplomacy); err != nil {
			return nil, fmt.Errorf("faction %s diplomacy: %w", row.ID, err)
		}
		if f.Diplomacy == nil {
			f.Diplomacy = make(map[domain.FactionID]domain.DiplomacyStatus)
		}
		s.Factions[f.ID] = f
	}

	var cities []cityRow
	if err := db.conn.Select(&cities, "SELECT * FROM cities"); err != nil {
		return nil, fmt.Errorf("load cities: %w", err)
	}
	for _, row := range cities {
		c := &domain.City{
			ID:        domain.CityID(row.ID),
			Name:      row.Name,
			FactionID: domain.FactionID(row.FactionID),
			Position:  domain.Position{X: row.PosX, Y: row.PosY},
			Scale:     domain.CityScale(row.Scale),
			Resources: domain.CityResources{
				Population:  row.Population,
				Gold:        row.Gold,
				Grain:       row.Grain,
				Commerce:    row.Commerce,
				Agriculture: row.Agriculture,
				Defense:     row.Defense,
				Loyalty:     row.Loyalty,
			},
			GovernorID: domain.GeneralID(row.GovernorID),
		}
		if err := json.Unmarshal([]byte(row.ConnectionsJSON), &c.Connections); err != nil {
			return nil, fmt.Errorf("city %s connections: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.StationedJSON), &c.Stationed); err != nil {
			return nil, fmt.Errorf("city %s stationed: %w", row.ID, err)
		}
		s.Cities[c.ID] = c
	}

	var generals []generalRow
	if err := db.conn.Select(&generals, "SELECT * FROM generals"); err != nil {
		return nil, fmt.Errorf("load generals: %w", err)
	}
	for _, row := range generals {
		s.Generals[domain.GeneralID(row.ID)] = &domain.General{
			ID:        domain.GeneralID(row.ID),
			Name:      row.Name,
			FactionID: domain.FactionID(row.FactionID),
			Attr: domain.Attributes{
				Lead: row.Lead, War: row.War, Int: row.Intellect,
				Pol: row.Politics, Cha: row.Charisma,
			},
			Age:    row.Age,
			Alive:  row.Alive != 0,
			CityID: domain.CityID(row.CityID),
			Troops: row.Troops,
		}
	}

	var events []eventRow
	if err := db.conn.Select(&events, "SELECT * FROM events ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	for _, row := range events {
		ev, err := rowToEvent(row)
		if err != nil {
			return nil, err
		}
		s.Events = append(s.Events, ev)
	}

	return s, nil
}

func (db *DB) loadMeta() (map[string]string, error) {
	rows, err := db.conn.Queryx("SELECT key, value FROM campaign_meta")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]domain.GameEvent, error) {
	var rows []eventRow
	err := db.conn.Select(&rows, "SELECT * FROM events ORDER BY seq DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}

	events := make([]domain.GameEvent, 0, len(rows))
	for _, row := range rows {
		ev, err := rowToEvent(row)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func rowToEvent(row eventRow) (domain.GameEvent, error) {
	ev := domain.GameEvent{
		ID:        row.ID,
		Type:      domain.EventType(row.Type),
		Date:      domain.Date{Year: row.Year, Month: row.Month},
		Narrative: row.Narrative,
	}
	if t, err := time.Parse(time.RFC3339, row.CreatedAt); err == nil {
		ev.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(row.DataJSON), &ev.Data); err != nil {
		return ev, fmt.Errorf("event %s data: %w", row.ID, err)
	}
	return ev, nil
}
