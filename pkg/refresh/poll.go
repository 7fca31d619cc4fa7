package refresh

import (
	"time"

	"vaultswap/pkg/types"
)

const (
	// DefaultTries is the number of balance reads including the baseline.
	DefaultTries = 12
	// DefaultInterval separates consecutive reads.
	DefaultInterval = time.Second
	// MinInterval is the floor applied to Interval.
	MinInterval = 200 * time.Millisecond
)

// Options bounds one refresh by read count, not wall-clock time.
type Options struct {
	Tries    int
	Interval time.Duration
}

// DefaultOptions returns 12 tries one second apart.
func DefaultOptions() Options {
	return Options{Tries: DefaultTries, Interval: DefaultInterval}
}

// Normalize clamps Tries to at least 1 and Interval to at least MinInterval.
func (o Options) Normalize() Options {
	if o.Tries < 1 {
		o.Tries = 1
	}
	if o.Interval < MinInterval {
		o.Interval = MinInterval
	}
	return o
}

// Phase is the state of a Poll.
type Phase int

const (
	Triggered Phase = iota
	Observing
	Settled
)

func (p Phase) String() string {
	switch p {
	case Triggered:
		return "triggered"
	case Observing:
		return "observing"
	default:
		return "settled"
	}
}

// Observation is the outcome of a refresh.
type Observation struct {
	Balance  types.AvailableBalance
	Attempts int
	Changed  bool
}

// Poll tracks the reads of one refresh. It settles on the first read that
// differs from the baseline or when the tries are used up.
type Poll struct {
	tries   int
	phase   Phase
	attempt int
	last    types.AvailableBalance
	changed bool
}

// NewPoll starts a poll in the Triggered phase.
func NewPoll(tries int) *Poll {
	if tries < 1 {
		tries = 1
	}
	return &Poll{tries: tries, phase: Triggered}
}

// Baseline records the first read.
func (p *Poll) Baseline(b types.AvailableBalance) {
	if p.phase != Triggered {
		return
	}
	p.last = b
	p.attempt = 1
	p.phase = Observing
	if p.attempt >= p.tries {
		p.phase = Settled
	}
}

// Observe records a later read. A failed read (ok false) uses up a try but
// keeps the last value.
func (p *Poll) Observe(b types.AvailableBalance, ok bool) {
	if p.phase != Observing {
		return
	}
	p.attempt++
	if ok && !b.Equal(p.last) {
		p.last = b
		p.changed = true
		p.phase = Settled
		return
	}
	if p.attempt >= p.tries {
		p.phase = Settled
	}
}

// Phase returns the current phase.
func (p *Poll) Phase() Phase { return p.phase }

// Done reports whether the poll has settled.
func (p *Poll) Done() bool { return p.phase == Settled }

// Result returns the last observed balance and the number of reads so far.
func (p *Poll) Result() Observation {
	return Observation{Balance: p.last, Attempts: p.attempt, Changed: p.changed}
}
