// Package calendar implements the turn and calendar state machine:
// action-point accounting, month advancement, and the periodic effects
// (monthly income, January aging, July grain) applied at turn end.
package calendar

import "github.com/LongView-dev/sanguo-190/internal/domain"

// MaxActionPoints is the per-turn budget for the player and for each AI
// faction alike.
const MaxActionPoints = 3

// ActionType classifies a command for action-point costing.
type ActionType string

const (
	ActionDomestic ActionType = "domestic"
	ActionMovement ActionType = "movement"
	ActionCampaign ActionType = "campaign"
)

// Cost returns the action-point price of a command type.
func Cost(a ActionType) int {
	if a == ActionCampaign {
		return 2
	}
	return 1
}

// DeductActionPoints spends the cost of a command from the current budget.
// When the budget is short it returns the budget unchanged and ok=false;
// action points never go negative.
func DeductActionPoints(current int, a ActionType) (remaining int, ok bool) {
	cost := Cost(a)
	if current < cost {
		return current, false
	}
	return current - cost, true
}

// RestoreActionPoints is the budget granted at the start of each player
// phase.
func RestoreActionPoints() int {
	return MaxActionPoints
}

// APStep records one deduction in a validated sequence.
type APStep struct {
	Action ActionType
	Before int
	After  int
	Valid  bool
}

// APReport summarizes a validated sequence of deductions.
type APReport struct {
	Steps    []APStep
	FinalAP  int
	AllValid bool
}

// ValidateAPConsumption replays a sequence of commands against a fresh
// budget, recording each step. The final budget is never negative;
// AllValid turns false at the first deduction that would underflow.
func ValidateAPConsumption(actions []ActionType) APReport {
	report := APReport{FinalAP: MaxActionPoints, AllValid: true}
	ap := MaxActionPoints
	for _, a := range actions {
		after, ok := DeductActionPoints(ap, a)
		report.Steps = append(report.Steps, APStep{Action: a, Before: ap, After: after, Valid: ok})
		if !ok {
			report.AllValid = false
		}
		ap = after
	}
	report.FinalAP = ap
	return report
}

// MonthAdvance describes one calendar step and the periodic triggers it
// fires.
type MonthAdvance struct {
	Date        domain.Date
	YearChanged bool
	IsJanuary   bool // aging month
	IsJuly      bool // grain distribution month
}

// AdvanceMonth moves the calendar forward one month, wrapping December
// into January of the next year.
func AdvanceMonth(d domain.Date) MonthAdvance {
	next := domain.Date{Year: d.Year, Month: d.Month + 1}
	yearChanged := false
	if next.Month > 12 {
		next.Month = 1
		next.Year++
		yearChanged = true
	}
	return MonthAdvance{
		Date:        next,
		YearChanged: yearChanged,
		IsJanuary:   next.Month == 1,
		IsJuly:      next.Month == 7,
	}
}
