// Package sequencer makes sure only the newest request on a channel can
// publish its result. Each request takes a token before its first remote
// call; when a newer token has been issued on the same channel, the older
// result is stale and is dropped.
package sequencer

import (
	"errors"
	"sync"

	"vaultswap/pkg/metrics"
)

// Channel groups requests that supersede each other.
type Channel string

const (
	ChannelQuote    Channel = "quote"
	ChannelBalance  Channel = "balance"
	ChannelActivity Channel = "activity"
)

// ErrStale is returned by work that a newer request superseded. Callers
// drop it silently.
var ErrStale = errors.New("stale result")

// Token identifies one request on a channel.
type Token struct {
	Channel Channel
	N       uint64
}

// Sequencer issues tokens and guards the state their results are applied to.
type Sequencer struct {
	mu     sync.Mutex
	latest map[Channel]uint64
	m      *metrics.Metrics
}

// New creates a sequencer.
func New(m *metrics.Metrics) *Sequencer {
	return &Sequencer{latest: make(map[Channel]uint64), m: m}
}

// Next issues a token newer than every token issued so far on ch.
func (s *Sequencer) Next(ch Channel) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[ch]++
	return Token{Channel: ch, N: s.latest[ch]}
}

// IsCurrent reports whether t is the newest token on its channel.
func (s *Sequencer) IsCurrent(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[t.Channel] == t.N
}

// Check returns ErrStale when t has been superseded.
func (s *Sequencer) Check(t Token) error {
	if s.IsCurrent(t) {
		return nil
	}
	s.m.RecordStale(string(t.Channel))
	return ErrStale
}

// Commit runs apply if t is still current, holding the lock so no newer
// token can be issued or committed in between. It reports whether apply ran.
func (s *Sequencer) Commit(t Token, apply func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[t.Channel] != t.N {
		s.m.RecordStale(string(t.Channel))
		return false
	}
	apply()
	return true
}

// Read runs fn under the same lock Commit uses, for consistent reads of
// committed state.
func (s *Sequencer) Read(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}
