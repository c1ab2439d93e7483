package alerting

import "time"

// State is the per-rule hysteresis state.
type State struct {
	Firing    bool      `json:"firing"`
	FireCount int       `json:"fireCount"`
	LastFired time.Time `json:"lastFired,omitempty"`
}

// Policy bounds how often a holding rule may fire.
type Policy struct {
	MaxFires     int
	RealertAfter time.Duration
}

// Transition advances the state machine by one evaluation and reports
// whether an alert should be emitted. It is pure; callers own the state.
//
// A rule fires on entering breach, may fire again once RealertAfter has
// elapsed, never more than MaxFires times per breach, and resets as soon
// as the condition stops holding.
func Transition(prev State, holding bool, now time.Time, p Policy) (State, bool) {
	if !holding {
		return State{}, false
	}

	if !prev.Firing {
		return State{Firing: true, FireCount: 1, LastFired: now}, true
	}

	if prev.FireCount < p.MaxFires && now.Sub(prev.LastFired) >= p.RealertAfter {
		return State{Firing: true, FireCount: prev.FireCount + 1, LastFired: now}, true
	}

	return prev, false
}
