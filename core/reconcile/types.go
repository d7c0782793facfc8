package reconcile

import (
	"time"

	"collection-sync/core/catalog"
)

// State is the position of one (kind, partition) pass in the state machine.
type State string

const (
	StateIdle           State = "idle"
	StatePaginating     State = "paginating"
	StateItemProcessing State = "item_processing"
	StateReporting      State = "reporting"
)

// Action is the outcome of reconciling one item.
type Action string

const (
	// ActionNew means the item was created.
	ActionNew Action = "new"
	// ActionUpdated means updatable fields were merged into the stored item.
	ActionUpdated Action = "updated"
	// ActionKnown means the item was already stored without changes.
	ActionKnown Action = "known"
	// ActionRemoved means the item vanished from the provider and was deleted.
	ActionRemoved Action = "removed"
	// ActionSkipped means the raw item could not be normalized.
	ActionSkipped Action = "skipped"
	// ActionFailed means persistence failed; stored state is unchanged.
	ActionFailed Action = "failed"
)

// ErrorKind classifies per-item errors.
type ErrorKind string

const (
	ErrKindNone      ErrorKind = ""
	ErrKindNormalize ErrorKind = "normalize"
	ErrKindLookup    ErrorKind = "lookup"
	ErrKindPersist   ErrorKind = "persist"
	ErrKindAsset     ErrorKind = "asset"
	ErrKindEnrich    ErrorKind = "enrich"
)

// ItemResult records what happened to one item. Asset and enrichment errors
// are non-fatal and are carried alongside a successful Action.
type ItemResult struct {
	ID        string
	Title     string
	Partition catalog.Partition
	Action    Action
	ErrKind   ErrorKind
	Err       error
}

// Stats counts item outcomes.
type Stats struct {
	Known   int `json:"known"`
	New     int `json:"new"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (s *Stats) count(a Action) {
	switch a {
	case ActionKnown:
		s.Known++
	case ActionNew:
		s.New++
	case ActionUpdated:
		s.Updated++
	case ActionRemoved:
		s.Removed++
	case ActionSkipped:
		s.Skipped++
	case ActionFailed:
		s.Failed++
	}
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Known += other.Known
	s.New += other.New
	s.Updated += other.Updated
	s.Removed += other.Removed
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// Changed reports whether anything was created, updated or removed.
func (s Stats) Changed() bool {
	return s.New+s.Updated+s.Removed > 0
}

// PassResult is the outcome of one partition pass.
type PassResult struct {
	Partition catalog.Partition
	Pages     int
	Stats     Stats
	Results   []ItemResult
	Err       error
}

func (p *PassResult) add(r ItemResult) {
	p.Stats.count(r.Action)
	p.Results = append(p.Results, r)
}

// CycleReport is the outcome of a collection+wishlist cycle for one kind.
type CycleReport struct {
	Kind       catalog.Kind
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	// Complete is true when every pass finished and the removal sweep ran.
	Complete bool
	Passes   []*PassResult
}

// Stats sums the stats of every pass.
func (r *CycleReport) Stats() Stats {
	var total Stats
	for _, p := range r.Passes {
		total.Add(p.Stats)
	}
	return total
}

func (r *CycleReport) pass(p catalog.Partition) *PassResult {
	for _, pr := range r.Passes {
		if pr.Partition == p {
			return pr
		}
	}
	pr := &PassResult{Partition: p}
	r.Passes = append(r.Passes, pr)
	return pr
}

// Options tunes the reconciler.
type Options struct {
	// MaxDimension bounds downloaded artwork.
	MaxDimension int
	// MaxPendingRetries bounds "access pending" retries of the same page.
	MaxPendingRetries int
	// PendingDelay is the wait between "access pending" retries.
	PendingDelay time.Duration
	// MaxFetchRetries bounds retries of a page after a transient error.
	MaxFetchRetries int
	// RetryDelay is the base backoff between transient retries.
	RetryDelay time.Duration
	// DryRun computes actions without any side effect.
	DryRun bool
	// Now replaces time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxPendingRetries <= 0 {
		o.MaxPendingRetries = 5
	}
	if o.PendingDelay <= 0 {
		o.PendingDelay = 3 * time.Second
	}
	if o.MaxFetchRetries < 0 {
		o.MaxFetchRetries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 2 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
