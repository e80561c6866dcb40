package director

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearhaul/freight-cli/internal/model"
)

var now = time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

func ts(daysFromNow int) *time.Time {
	t := now.AddDate(0, 0, daysFromNow)
	return &t
}

func TestEvaluate_Transit(t *testing.T) {
	u := &model.Unit{ID: "u1", ATD: ts(-10)}

	a := Evaluate(u, now)
	assert.Equal(t, model.ModeTransit, a.Mode)
	assert.Equal(t, "info", a.Theme)
	assert.False(t, a.ActionRequired)
	assert.False(t, a.ShowCharges)
	assert.False(t, a.LFDValid)
	assert.Equal(t, model.DemurrageUnknown, a.Demurrage.Status)
	assert.Equal(t, "u1", a.UnitID)
	assert.Equal(t, now, a.EvaluatedAt)
}

func TestEvaluate_MonitorOnArrival(t *testing.T) {
	tests := []struct {
		name string
		unit model.Unit
	}{
		{"ata set", model.Unit{ATA: ts(-2)}},
		{"discharge set", model.Unit{DischargeDate: ts(-1)}},
		{"customs cleared", model.Unit{CustomsCleared: ts(-1)}},
		{"status arrived", model.Unit{Status: "Arrived at POD"}},
		{"status discharged", model.Unit{Status: "DISCHARGED"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Evaluate(&tt.unit, now)
			assert.Equal(t, model.ModeRiskMonitor, a.Mode)
			assert.True(t, a.ActionRequired)
			assert.True(t, a.ShowCharges)
		})
	}
}

func TestEvaluate_ActiveAfterGateOut(t *testing.T) {
	u := &model.Unit{GateOutDate: ts(-5), LastFreeDay: ts(10)}

	a := Evaluate(u, now)
	assert.Equal(t, model.ModeActive, a.Mode)
	assert.Equal(t, model.DemurrageSafe, a.Demurrage.Status)
	assert.True(t, a.LFDValid)
	assert.False(t, a.ActionRequired)
}

func TestEvaluate_ActiveByDeliveredStatusWithoutDate(t *testing.T) {
	// A delivered status without a recorded gate-out date can never escalate
	// to detention; there is no date to count from.
	u := &model.Unit{Status: "Delivered to consignee"}

	a := Evaluate(u, now)
	assert.Equal(t, model.ModeActive, a.Mode)
}

func TestEvaluate_DetentionAfterTrigger(t *testing.T) {
	u := &model.Unit{ID: "u1", GateOutDate: ts(-15), LastFreeDay: ts(-20)}

	a := Evaluate(u, now)
	require.Equal(t, model.ModeRiskDetention, a.Mode)
	assert.True(t, a.ActionRequired)
	assert.True(t, a.ShowCharges)
	assert.Equal(t, "danger", a.Theme)

	// 15 days out, 10 free: 5 chargeable days at the detention rate. The
	// overdue counter reports total days since gate-out.
	assert.Equal(t, 15, a.Demurrage.DaysOverdue)
	assert.Equal(t, DetentionDailyRate, a.Demurrage.DailyRate)
	assert.InDelta(t, 875.0, a.Demurrage.Total, 1e-9)
	assert.Equal(t, model.DemurrageOverdue, a.Demurrage.Status)
	assert.True(t, a.LFDValid)
}

func TestEvaluate_DetentionBoundary(t *testing.T) {
	// Exactly 14 days out stays active; day 15 crosses the trigger.
	a := Evaluate(&model.Unit{GateOutDate: ts(-14)}, now)
	assert.Equal(t, model.ModeActive, a.Mode)

	a = Evaluate(&model.Unit{GateOutDate: ts(-15)}, now)
	assert.Equal(t, model.ModeRiskDetention, a.Mode)
}

func TestEvaluate_CompleteBeatsEverything(t *testing.T) {
	u := &model.Unit{
		EmptyReturnDate: ts(-1),
		GateOutDate:     ts(-30),
		ATA:             ts(-40),
		LastFreeDay:     ts(-35),
	}

	a := Evaluate(u, now)
	assert.Equal(t, model.ModeComplete, a.Mode)
	assert.Equal(t, "success", a.Theme)
	assert.False(t, a.ShowCharges)
	// Figures are still computed for the audit trail.
	assert.Equal(t, model.DemurrageOverdue, a.Demurrage.Status)
	assert.True(t, a.LFDValid)
}

func TestStandardDemurrage_Windows(t *testing.T) {
	tests := []struct {
		name        string
		lfd         *time.Time
		wantStatus  model.DemurrageStatus
		wantOverdue int
		wantTotal   float64
		wantValid   bool
	}{
		{"no lfd", nil, model.DemurrageUnknown, 0, 0, false},
		{"overdue 1 day", ts(-1), model.DemurrageOverdue, 1, 150, true},
		{"overdue 6 days", ts(-6), model.DemurrageOverdue, 6, 900, true},
		{"critical today", ts(0), model.DemurrageCritical, 0, 0, true},
		{"critical 3 days out", ts(3), model.DemurrageCritical, 0, 0, true},
		{"warning 4 days out", ts(4), model.DemurrageWarning, 0, 0, true},
		{"warning 7 days out", ts(7), model.DemurrageWarning, 0, 0, true},
		{"safe 8 days out", ts(8), model.DemurrageSafe, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dem, valid := standardDemurrage(tt.lfd, now)
			assert.Equal(t, tt.wantStatus, dem.Status)
			assert.Equal(t, tt.wantOverdue, dem.DaysOverdue)
			assert.InDelta(t, tt.wantTotal, dem.Total, 1e-9)
			assert.Equal(t, tt.wantValid, valid)
			assert.Equal(t, DemurrageDailyRate, dem.DailyRate)
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	u := &model.Unit{GateOutDate: ts(-15), LastFreeDay: ts(-3)}
	first := Evaluate(u, now)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Evaluate(u, now))
	}
}

func TestEvaluate_EmptyUnit(t *testing.T) {
	a := Evaluate(&model.Unit{}, now)
	assert.Equal(t, model.ModeTransit, a.Mode)
	assert.Equal(t, model.DemurrageUnknown, a.Demurrage.Status)
}
