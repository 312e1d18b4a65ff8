package beacon

import (
	"sync"
	"time"
)

// SuccessClearDelay is how long a success message stays visible.
const SuccessClearDelay = 3 * time.Second

type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusSuccess
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "none"
	}
}

// Status is the single message indicator of the beacon. The most recent
// message wins. Success messages clear themselves after clearAfter unless
// something newer was shown first; errors stay until replaced.
type Status struct {
	mu         sync.Mutex
	text       string
	kind       StatusKind
	seq        uint64
	clearAfter time.Duration

	// notifyMu orders callbacks; notified is the last seq reported.
	notifyMu sync.Mutex
	notified uint64
	onChange func(text string, kind StatusKind)
}

// NewStatus creates an indicator. onChange may be nil. It runs outside the
// state lock, so it may call Current, but it must not call Success or Error.
// A change that was already superseded when its callback is due is skipped.
func NewStatus(clearAfter time.Duration, onChange func(text string, kind StatusKind)) *Status {
	return &Status{clearAfter: clearAfter, onChange: onChange}
}

func (s *Status) Success(text string) { s.show(text, StatusSuccess) }

func (s *Status) Error(text string) { s.show(text, StatusError) }

// Current returns what is displayed right now.
func (s *Status) Current() (string, StatusKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text, s.kind
}

func (s *Status) show(text string, kind StatusKind) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.text, s.kind = text, kind
	s.mu.Unlock()

	s.notify(seq, text, kind)

	if kind == StatusSuccess && s.clearAfter > 0 {
		time.AfterFunc(s.clearAfter, func() { s.clear(seq) })
	}
}

func (s *Status) clear(seq uint64) {
	s.mu.Lock()
	if s.seq != seq {
		s.mu.Unlock()
		return
	}
	s.seq++
	next := s.seq
	s.text, s.kind = "", StatusNone
	s.mu.Unlock()

	s.notify(next, "", StatusNone)
}

func (s *Status) notify(seq uint64, text string, kind StatusKind) {
	if s.onChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.notified {
		return
	}
	s.notified = seq
	s.onChange(text, kind)
}
