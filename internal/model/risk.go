package model

import "time"

// Mode is the lifecycle classification of a unit.
type Mode string

const (
	ModeComplete      Mode = "COMPLETE"
	ModeRiskDetention Mode = "RISK_DETENTION"
	ModeActive        Mode = "ACTIVE"
	ModeRiskMonitor   Mode = "RISK_MONITOR"
	ModeTransit       Mode = "TRANSIT"
)

// DemurrageStatus grades how close a unit is to (or past) its last free day.
type DemurrageStatus string

const (
	DemurrageUnknown  DemurrageStatus = "unknown"
	DemurrageOverdue  DemurrageStatus = "overdue"
	DemurrageCritical DemurrageStatus = "critical"
	DemurrageWarning  DemurrageStatus = "warning"
	DemurrageSafe     DemurrageStatus = "safe"
)

// Demurrage holds the computed financial exposure block. Every assessment
// carries a fully populated block, even when charges are not surfaced.
type Demurrage struct {
	Total       float64         `json:"total"`
	DaysOverdue int             `json:"days_overdue"`
	DailyRate   float64         `json:"daily_rate"`
	Status      DemurrageStatus `json:"status"`
}

// Assessment is the derived risk state of one unit at evaluation time. It is
// recomputed whenever needed; a persisted copy is only an audit snapshot,
// never the source of truth.
type Assessment struct {
	UnitID         string    `json:"unit_id,omitempty"`
	Mode           Mode      `json:"mode"`
	Headline       string    `json:"headline"`
	Theme          string    `json:"theme"`
	ActionRequired bool      `json:"action_required"`
	Demurrage      Demurrage `json:"demurrage"`
	LFDValid       bool      `json:"lfd_valid"`
	ShowCharges    bool      `json:"show_charges"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}
