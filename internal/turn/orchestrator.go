// Package turn sequences the end-of-turn pipeline: AI faction turns,
// calendar advancement and periodic effects, best-effort narration, and
// fire-and-forget persistence. It owns a private working copy of the game
// state for the whole sequence; the input state is never mutated.
package turn

import (
	"context"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/LongView-dev/sanguo-190/internal/ai"
	"github.com/LongView-dev/sanguo-190/internal/calendar"
	"github.com/LongView-dev/sanguo-190/internal/domain"
	"github.com/LongView-dev/sanguo-190/internal/narrative"
)

// narrateTimeout bounds each narration call; on expiry the event keeps an
// empty narrative and the turn proceeds.
const narrateTimeout = 10 * time.Second

// Saver receives completed states for persistence. The orchestrator never
// blocks on or inspects the save.
type Saver interface {
	AutoSave(s *domain.GameState)
}

// Orchestrator drives the turn-end sequence. Narrator and Store are
// injected; either may be nil to disable that collaborator.
type Orchestrator struct {
	Narrator narrative.Narrator
	Store    Saver
	RNG      *rand.Rand

	// AutoPlayer lets the AI engine drive the player's faction too,
	// used by the autoplay CLI.
	AutoPlayer bool

	inFlight atomic.Bool
}

// EndPlayerTurn runs the full turn-end sequence and returns the successor
// state. A second call while one is in progress is a no-op returning the
// input unchanged. The fixed order: AI turns, calendar advance, monthly
// income, January aging, July grain, narration, persistence, action-point
// restore.
func (o *Orchestrator) EndPlayerTurn(ctx context.Context, s *domain.GameState) *domain.GameState {
	if !o.inFlight.CompareAndSwap(false, true) {
		slog.Warn("turn end already in progress, ignoring")
		return s
	}
	defer o.inFlight.Store(false)

	start := time.Now()
	d := domain.NewDraft(s)
	d.Phase = domain.PhaseCalculation

	// AI factions act in ascending id order; each plans against the
	// working state as left by its predecessors.
	for _, fid := range d.FactionIDs() {
		if fid == d.PlayerFaction && !o.AutoPlayer {
			continue
		}
		f := d.FactionView(fid)
		if f == nil || len(f.Cities) == 0 {
			continue
		}
		actions := ai.MakeDecision(d, fid)
		ai.ExecuteActions(d, actions, o.RNG)
	}

	// Calendar and periodic effects.
	adv := calendar.AdvanceMonth(d.Date)
	d.Date = adv.Date
	calendar.ApplyMonthlyIncome(d)
	if adv.IsJanuary {
		calendar.ApplyAging(d)
	}
	if adv.IsJuly {
		calendar.DistributeGrain(d)
	}
	calendar.CheckDisasters(d, o.RNG)

	// Narration is best-effort: failures leave events bare.
	d.Phase = domain.PhaseNarrative
	o.narrate(ctx, d)

	// Back to the player.
	d.ActionPoints = calendar.RestoreActionPoints()
	d.Phase = domain.PhasePlayer
	next := d.Commit()

	// Persistence is fire-and-forget on the committed state.
	if o.Store != nil {
		go o.Store.AutoSave(next)
	}

	slog.Info("turn complete",
		"year", next.Date.Year,
		"month", next.Date.Month,
		"new_events", len(d.NewEvents()),
		"elapsed", time.Since(start),
	)
	return next
}

// narrate fills narrative text for each event appended this turn.
func (o *Orchestrator) narrate(ctx context.Context, d *domain.Draft) {
	if o.Narrator == nil {
		return
	}
	names := narrative.NameContext{
		General: func(id domain.GeneralID) string {
			if g := d.GeneralView(id); g != nil {
				return g.Name
			}
			return string(id)
		},
		City: func(id domain.CityID) string {
			if c := d.CityView(id); c != nil {
				return c.Name
			}
			return string(id)
		},
		Faction: func(id domain.FactionID) string {
			if f := d.FactionView(id); f != nil {
				return f.Name
			}
			return string(id)
		},
	}

	for i, ev := range d.NewEvents() {
		callCtx, cancel := context.WithTimeout(ctx, narrateTimeout)
		text, err := o.Narrator.Narrate(callCtx, ev, names)
		cancel()
		if err != nil {
			slog.Warn("narration failed, keeping event without prose",
				"event", ev.ID,
				"error", err,
			)
			continue
		}
		d.SetNarrative(i, text)
	}
}

// Winner reports the sole surviving faction, if the campaign has one:
// a faction holding every city on the map.
func Winner(s *domain.GameState) (domain.FactionID, bool) {
	var holder domain.FactionID
	for _, c := range s.Cities {
		if holder == "" {
			holder = c.FactionID
			continue
		}
		if c.FactionID != holder {
			return "", false
		}
	}
	return holder, holder != ""
}
