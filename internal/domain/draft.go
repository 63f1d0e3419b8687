package domain

// Draft is a copy-on-write working view of a GameState. The turn
// orchestrator mutates a Draft for the duration of one turn-end sequence;
// entities are copied the first time they are touched for writing, so a
// turn that only moves a few armies never clones the whole graph. The base
// state is never modified; Commit produces the successor state.
type Draft struct {
	base *GameState

	Date          Date
	PlayerFaction FactionID
	ActionPoints  int
	Phase         Phase
	SelectedCity  CityID

	factions map[FactionID]*Faction
	cities   map[CityID]*City
	generals map[GeneralID]*General
	events   []GameEvent
}

// NewDraft starts a working copy over base.
func NewDraft(base *GameState) *Draft {
	return &Draft{
		base:          base,
		Date:          base.Date,
		PlayerFaction: base.PlayerFaction,
		ActionPoints:  base.ActionPoints,
		Phase:         base.Phase,
		SelectedCity:  base.SelectedCity,
		factions:      make(map[FactionID]*Faction),
		cities:        make(map[CityID]*City),
		generals:      make(map[GeneralID]*General),
	}
}

// FactionView returns the current faction record without copying. Callers
// holding a View must treat the result as read-only.
func (d *Draft) FactionView(id FactionID) *Faction {
	if f, ok := d.factions[id]; ok {
		return f
	}
	return d.base.Factions[id]
}

// CityView returns the current city record without copying.
func (d *Draft) CityView(id CityID) *City {
	if c, ok := d.cities[id]; ok {
		return c
	}
	return d.base.Cities[id]
}

// GeneralView returns the current general record without copying.
func (d *Draft) GeneralView(id GeneralID) *General {
	if g, ok := d.generals[id]; ok {
		return g
	}
	return d.base.Generals[id]
}

// Faction returns a writable copy of the faction, cloning it into the
// draft on first touch. Returns nil for unknown ids.
func (d *Draft) Faction(id FactionID) *Faction {
	if f, ok := d.factions[id]; ok {
		return f
	}
	orig := d.base.Factions[id]
	if orig == nil {
		return nil
	}
	cp := *orig
	cp.Cities = append([]CityID(nil), orig.Cities...)
	cp.Generals = append([]GeneralID(nil), orig.Generals...)
	cp.Diplomacy = make(map[FactionID]DiplomacyStatus, len(orig.Diplomacy))
	for k, v := range orig.Diplomacy {
		cp.Diplomacy[k] = v
	}
	d.factions[id] = &cp
	return &cp
}

// City returns a writable copy of the city.
func (d *Draft) City(id CityID) *City {
	if c, ok := d.cities[id]; ok {
		return c
	}
	orig := d.base.Cities[id]
	if orig == nil {
		return nil
	}
	cp := *orig
	cp.Connections = append([]CityID(nil), orig.Connections...)
	cp.Stationed = append([]GeneralID(nil), orig.Stationed...)
	d.cities[id] = &cp
	return &cp
}

// General returns a writable copy of the general.
func (d *Draft) General(id GeneralID) *General {
	if g, ok := d.generals[id]; ok {
		return g
	}
	orig := d.base.Generals[id]
	if orig == nil {
		return nil
	}
	cp := *orig
	d.generals[id] = &cp
	return &cp
}

// AppendEvent records a new event in the draft.
func (d *Draft) AppendEvent(ev GameEvent) {
	d.events = append(d.events, ev)
}

// NewEvents returns the events appended to this draft so far. The returned
// slice aliases draft storage; callers may set Narrative on elements before
// Commit.
func (d *Draft) NewEvents() []GameEvent {
	return d.events
}

// SetNarrative fills the narrative text of the i-th appended event.
func (d *Draft) SetNarrative(i int, text string) {
	if i >= 0 && i < len(d.events) {
		d.events[i].Narrative = text
	}
}

// FactionIDs returns every faction id in ascending order, the same
// iteration policy as GameState.SortedFactionIDs.
func (d *Draft) FactionIDs() []FactionID { return d.base.SortedFactionIDs() }

// CityIDs returns every city id in ascending order.
func (d *Draft) CityIDs() []CityID { return d.base.SortedCityIDs() }

// GeneralIDs returns every general id in ascending order.
func (d *Draft) GeneralIDs() []GeneralID { return d.base.SortedGeneralIDs() }

// Commit builds the successor GameState. Untouched entities are shared
// with the base state; touched ones use their draft copies. The base state
// itself is left intact.
func (d *Draft) Commit() *GameState {
	next := &GameState{
		Date:          d.Date,
		PlayerFaction: d.PlayerFaction,
		ActionPoints:  d.ActionPoints,
		Phase:         d.Phase,
		SelectedCity:  d.SelectedCity,
		Factions:      make(map[FactionID]*Faction, len(d.base.Factions)),
		Cities:        make(map[CityID]*City, len(d.base.Cities)),
		Generals:      make(map[GeneralID]*General, len(d.base.Generals)),
	}
	for id, f := range d.base.Factions {
		next.Factions[id] = f
	}
	for id, f := range d.factions {
		next.Factions[id] = f
	}
	for id, c := range d.base.Cities {
		next.Cities[id] = c
	}
	for id, c := range d.cities {
		next.Cities[id] = c
	}
	for id, g := range d.base.Generals {
		next.Generals[id] = g
	}
	for id, g := range d.generals {
		next.Generals[id] = g
	}
	next.Events = make([]GameEvent, 0, len(d.base.Events)+len(d.events))
	next.Events = append(next.Events, d.base.Events...)
	next.Events = append(next.Events, d.events...)
	return next
}
