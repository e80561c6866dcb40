// Package director classifies a unit's lifecycle state and computes its
// demurrage/detention exposure. Evaluation is a pure function of the unit's
// current fields and the evaluation time: no I/O, nothing cached, the same
// inputs always produce the same assessment.
package director

import (
	"fmt"
	"strings"
	"time"

	"github.com/clearhaul/freight-cli/internal/model"
)

// Tariff constants. Rates are the fixed contract rates applied fleet-wide.
const (
	DemurrageDailyRate = 150.0
	DetentionDailyRate = 175.0

	// DetentionFreeDays is the assumed free time after gate-out before
	// detention accrues.
	DetentionFreeDays = 10
	// DetentionTriggerDays is how long after gate-out a unit must sit,
	// without an empty return, before it is flagged as a detention risk.
	DetentionTriggerDays = 14

	// Demurrage urgency bounds in days remaining before the last free day.
	criticalWindowDays = 3
	warningWindowDays  = 7
)

// rule is one rung of the priority ladder: the first rule whose predicate
// holds builds the assessment. Keeping the ladder as an ordered list makes
// the override semantics (detention beats standard demurrage) auditable.
type rule struct {
	applies func(u *model.Unit, now time.Time) bool
	build   func(u *model.Unit, now time.Time) model.Assessment
}

var ladder = []rule{
	{appliesComplete, buildComplete},
	{appliesDetention, buildDetention},
	{appliesActive, buildActive},
	{appliesMonitor, buildMonitor},
}

// Evaluate classifies a unit as of now. Every branch returns a fully
// populated assessment so consumers never branch on missing sub-fields.
func Evaluate(u *model.Unit, now time.Time) model.Assessment {
	for _, r := range ladder {
		if r.applies(u, now) {
			a := r.build(u, now)
			a.UnitID = u.ID
			a.EvaluatedAt = now.UTC()
			return a
		}
	}
	a := buildTransit(u, now)
	a.UnitID = u.ID
	a.EvaluatedAt = now.UTC()
	return a
}

// EvaluateNow classifies a unit against the wall clock.
func EvaluateNow(u *model.Unit) model.Assessment {
	return Evaluate(u, time.Now())
}

// --- predicates ---

func appliesComplete(u *model.Unit, _ time.Time) bool {
	return u.EmptyReturnDate != nil
}

func appliesDetention(u *model.Unit, now time.Time) bool {
	return gatedOut(u) && u.GateOutDate != nil && wholeDays(now.Sub(*u.GateOutDate)) > DetentionTriggerDays
}

func appliesActive(u *model.Unit, _ time.Time) bool {
	return gatedOut(u)
}

func appliesMonitor(u *model.Unit, _ time.Time) bool {
	return u.ATA != nil || u.DischargeDate != nil || u.CustomsCleared != nil || statusArrived(u.Status)
}

// gatedOut reports whether the unit has left the terminal, either by a
// recorded gate-out date or by a status the carrier uses to mean delivered.
func gatedOut(u *model.Unit) bool {
	if u.GateOutDate != nil {
		return true
	}
	return statusDelivered(u.Status)
}

func statusDelivered(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "delivered") || strings.Contains(s, "discharge complete") ||
		strings.Contains(s, "gated out") || strings.Contains(s, "gate out")
}

func statusArrived(status string) bool {
	s := strings.ToLower(status)
	return strings.Contains(s, "arrived") || strings.Contains(s, "discharged") ||
		strings.Contains(s, "customs cleared") || strings.Contains(s, "released")
}

// --- builders ---

func buildComplete(u *model.Unit, now time.Time) model.Assessment {
	// Charges are still computed so the audit trail has figures, but the
	// presentation layer is told not to surface them.
	dem, valid := standardDemurrage(u.LastFreeDay, now)
	return model.Assessment{
		Mode:        model.ModeComplete,
		Headline:    "Empty returned, cycle complete",
		Theme:       "success",
		Demurrage:   dem,
		LFDValid:    valid,
		ShowCharges: false,
	}
}

func buildDetention(u *model.Unit, now time.Time) model.Assessment {
	daysOut := wholeDays(now.Sub(*u.GateOutDate))
	detentionDays := daysOut - DetentionFreeDays
	if detentionDays < 0 {
		detentionDays = 0
	}
	return model.Assessment{
		Mode:           model.ModeRiskDetention,
		Headline:       fmt.Sprintf("Container out %d days, return the empty", daysOut),
		Theme:          "danger",
		ActionRequired: true,
		Demurrage: model.Demurrage{
			Total:       float64(detentionDays) * DetentionDailyRate,
			DaysOverdue: daysOut,
			DailyRate:   DetentionDailyRate,
			Status:      model.DemurrageOverdue,
		},
		// Forced true: a detention-stage unit must never display an
		// "unknown" last-free-day state.
		LFDValid:    true,
		ShowCharges: true,
	}
}

func buildActive(u *model.Unit, now time.Time) model.Assessment {
	dem, valid := standardDemurrage(u.LastFreeDay, now)
	return model.Assessment{
		Mode:        model.ModeActive,
		Headline:    "Out for delivery, within free time",
		Theme:       themeFor(dem.Status),
		Demurrage:   dem,
		LFDValid:    valid,
		ShowCharges: true,
	}
}

func buildMonitor(u *model.Unit, now time.Time) model.Assessment {
	dem, valid := standardDemurrage(u.LastFreeDay, now)
	return model.Assessment{
		Mode:           model.ModeRiskMonitor,
		Headline:       "At terminal, schedule pickup",
		Theme:          "warning",
		ActionRequired: true,
		Demurrage:      dem,
		LFDValid:       valid,
		ShowCharges:    true,
	}
}

func buildTransit(u *model.Unit, now time.Time) model.Assessment {
	dem, valid := standardDemurrage(u.LastFreeDay, now)
	return model.Assessment{
		Mode:        model.ModeTransit,
		Headline:    "On the water",
		Theme:       "info",
		Demurrage:   dem,
		LFDValid:    valid,
		ShowCharges: false,
	}
}

// standardDemurrage computes the demurrage block from the last free day.
// An absent or unparseable LFD yields status unknown, never an error.
func standardDemurrage(lfd *time.Time, now time.Time) (model.Demurrage, bool) {
	dem := model.Demurrage{DailyRate: DemurrageDailyRate, Status: model.DemurrageUnknown}
	if lfd == nil {
		return dem, false
	}

	daysRemaining := wholeDays(lfd.Sub(now))
	switch {
	case daysRemaining < 0:
		dem.Status = model.DemurrageOverdue
		dem.DaysOverdue = -daysRemaining
		dem.Total = float64(dem.DaysOverdue) * DemurrageDailyRate
	case daysRemaining <= criticalWindowDays:
		dem.Status = model.DemurrageCritical
	case daysRemaining <= warningWindowDays:
		dem.Status = model.DemurrageWarning
	default:
		dem.Status = model.DemurrageSafe
	}
	return dem, true
}

func themeFor(status model.DemurrageStatus) string {
	switch status {
	case model.DemurrageOverdue, model.DemurrageCritical:
		return "danger"
	case model.DemurrageWarning:
		return "warning"
	case model.DemurrageSafe:
		return "info"
	default:
		return "neutral"
	}
}

// wholeDays truncates a duration to whole days, toward zero.
func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}
