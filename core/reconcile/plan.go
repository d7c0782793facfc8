package reconcile

import (
	"collection-sync/core/catalog"
)

// PlannedAction is the serializable form of an ItemResult.
type PlannedAction struct {
	ID        string            `json:"id"`
	Title     string            `json:"title,omitempty"`
	Partition catalog.Partition `json:"partition"`
	Action    Action            `json:"action"`
	ErrorKind ErrorKind         `json:"errorKind,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Plan is the flattened outcome of a cycle, printed by the sync command.
// Known items are omitted from Actions.
type Plan struct {
	Kind     catalog.Kind    `json:"kind"`
	DryRun   bool            `json:"dryRun"`
	Complete bool            `json:"complete"`
	Error    string          `json:"error,omitempty"`
	Summary  Stats           `json:"summary"`
	Actions  []PlannedAction `json:"actions"`
}

// BuildPlan flattens a report. err is the error RunCycle returned alongside it.
func BuildPlan(report *CycleReport, err error) *Plan {
	plan := &Plan{
		Kind:     report.Kind,
		DryRun:   report.DryRun,
		Complete: report.Complete,
		Summary:  report.Stats(),
		Actions:  []PlannedAction{},
	}
	if err != nil {
		plan.Error = err.Error()
	}
	for _, pass := range report.Passes {
		for _, res := range pass.Results {
			if res.Action == ActionKnown && res.Err == nil {
				continue
			}
			a := PlannedAction{
				ID:        res.ID,
				Title:     res.Title,
				Partition: res.Partition,
				Action:    res.Action,
				ErrorKind: res.ErrKind,
			}
			if res.Err != nil {
				a.Error = res.Err.Error()
			}
			plan.Actions = append(plan.Actions, a)
		}
	}
	return plan
}
