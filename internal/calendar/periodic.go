// Periodic turn-end effects: monthly gold income, January aging, July
// grain, and the rare seasonal disasters.
package calendar

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/LongView-dev/sanguo-190/internal/domain"
	"github.com/LongView-dev/sanguo-190/internal/economy"
)

// ApplyMonthlyIncome credits every city with its commerce-driven gold
// income. Runs each month regardless of season.
func ApplyMonthlyIncome(d *domain.Draft) {
	for _, id := range d.CityIDs() {
		pol := domain.GovernorPol(d, id)
		view := d.CityView(id)
		income := economy.MonthlyIncome(view.Resources.Commerce, view.Resources.Population, pol)
		if income == 0 {
			continue
		}
		city := d.City(id)
		city.Resources.Gold += income
	}
}

// ApplyAging advances every living general's age by one year. Dead
// generals are untouched. Runs only in January.
func ApplyAging(d *domain.Draft) {
	aged := 0
	for _, id := range d.GeneralIDs() {
		if !d.GeneralView(id).Alive {
			continue
		}
		d.General(id).Age++
		aged++
	}
	slog.Debug("new year aging applied", "year", d.Date.Year, "generals", aged)
}

// DistributeGrain credits every city with its yearly agriculture output.
// Runs only in July.
func DistributeGrain(d *domain.Draft) {
	for _, id := range d.CityIDs() {
		pol := domain.GovernorPol(d, id)
		view := d.CityView(id)
		grain := economy.YearlyGrain(view.Resources.Agriculture, view.Resources.Population, pol)
		if grain == 0 {
			continue
		}
		city := d.City(id)
		city.Resources.Grain += grain
	}
}

// Disaster probabilities per city per month, by season window.
const (
	floodChance  = 0.02 // months 6-8
	locustChance = 0.015 // months 4-9
	plagueChance = 0.01 // any month
)

// CheckDisasters rolls for natural disasters in every city and applies
// their resource losses. At most one disaster strikes a city per month;
// flood is checked first, then locusts, then plague. Returns the emitted
// disaster events.
func CheckDisasters(d *domain.Draft, rng *rand.Rand) []domain.GameEvent {
	var events []domain.GameEvent
	for _, id := range d.CityIDs() {
		view := d.CityView(id)
		var kind string
		switch {
		case d.Date.Month >= 6 && d.Date.Month <= 8 && rng.Float64() < floodChance:
			kind = "flood"
		case d.Date.Month >= 4 && d.Date.Month <= 9 && rng.Float64() < locustChance:
			kind = "locusts"
		case rng.Float64() < plagueChance:
			kind = "plague"
		default:
			continue
		}

		city := d.City(id)
		var detail string
		switch kind {
		case "flood":
			lost := city.Resources.Grain / 5
			city.Resources.Grain -= lost
			if city.Resources.Agriculture > 20 {
				city.Resources.Agriculture -= 20
			} else {
				city.Resources.Agriculture = 0
			}
			detail = fmt.Sprintf("floodwaters destroy %d grain", lost)
		case "locusts":
			lost := city.Resources.Grain / 4
			city.Resources.Grain -= lost
			detail = fmt.Sprintf("locust swarms devour %d grain", lost)
		case "plague":
			lost := city.Resources.Population / 20
			city.Resources.Population -= lost
			if city.Resources.Loyalty > 5 {
				city.Resources.Loyalty -= 5
			} else {
				city.Resources.Loyalty = 0
			}
			detail = fmt.Sprintf("plague claims %d people", lost)
		}

		ev := domain.GameEvent{
			ID:        uuid.NewString(),
			Type:      domain.EventDisaster,
			Date:      d.Date,
			CreatedAt: time.Now(),
			Data: map[string]any{
				"kind":   kind,
				"city":   string(id),
				"detail": detail,
			},
		}
		d.AppendEvent(ev)
		events = append(events, ev)

		slog.Info("disaster struck",
			"kind", kind,
			"city", view.Name,
			"year", d.Date.Year,
			"month", d.Date.Month,
		)
	}
	return events
}
