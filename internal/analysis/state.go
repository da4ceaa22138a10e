package analysis

import (
	"errors"
	"fmt"
)

// State is one step of the per-item analysis machine.
type State string

const (
	StateSelect      State = "select"
	StateSkipped     State = "skipped"
	StateDirect      State = "direct"
	StateDownloading State = "downloading"
	StateUploading   State = "uploading"
	StateProcessing  State = "processing"
	StateReady       State = "ready"
	StateFailed      State = "failed"
	StateTimeout     State = "timeout"
	StateAnalyzed    State = "analyzed"
	StateErrored     State = "errored"
	StateCleanup     State = "cleanup"
	StateDone        State = "done"
)

// ErrInvalidTransition is returned when a step requests a transition the
// table does not allow.
var ErrInvalidTransition = errors.New("invalid state transition")

// transitions lists the allowed successors of every state.
//
//	select → skipped → done
//	select → direct → analyzed
//	direct → downloading → uploading → processing → ready → analyzed
//	processing → failed | timeout → errored
//	analyzed | errored → cleanup → done
var transitions = map[State][]State{
	StateSelect:      {StateSkipped, StateDirect},
	StateSkipped:     {StateDone},
	StateDirect:      {StateAnalyzed, StateDownloading, StateErrored},
	StateDownloading: {StateUploading, StateErrored},
	StateUploading:   {StateProcessing, StateErrored},
	StateProcessing:  {StateReady, StateFailed, StateTimeout, StateErrored},
	StateReady:       {StateAnalyzed, StateErrored},
	StateFailed:      {StateErrored},
	StateTimeout:     {StateErrored},
	StateAnalyzed:    {StateCleanup},
	StateErrored:     {StateCleanup},
	StateCleanup:     {StateDone},
}

// CanTransition reports whether the machine may move from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// machine tracks the current state and the states visited so far.
type machine struct {
	state   State
	history []State
	onMove  func(from, to State)
}

func newMachine(onMove func(from, to State)) *machine {
	return &machine{state: StateSelect, history: []State{StateSelect}, onMove: onMove}
}

func (m *machine) to(next State) error {
	if !CanTransition(m.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
	}
	if m.onMove != nil {
		m.onMove(m.state, next)
	}
	m.state = next
	m.history = append(m.history, next)
	return nil
}
