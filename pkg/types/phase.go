// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Phase is a state of the export pipeline.
//
//	Idle -> Staging -> Converting -> Packaging -> Done
//
// Failed is absorbing and reachable from Staging, Converting and Packaging.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseStaging    Phase = "staging"
	PhaseConverting Phase = "converting"
	PhasePackaging  Phase = "packaging"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// Text returns the human-readable status line for the phase.
func (p Phase) Text() string {
	switch p {
	case PhaseIdle:
		return "ready"
	case PhaseStaging:
		return "preparing export"
	case PhaseConverting:
		return "converting to PDF"
	case PhasePackaging:
		return "creating zip archive"
	case PhaseDone:
		return "export finished"
	case PhaseFailed:
		return "export failed"
	default:
		return string(p)
	}
}

// Active reports whether an export is underway in this phase.
func (p Phase) Active() bool {
	return p == PhaseStaging || p == PhaseConverting || p == PhasePackaging
}

// Terminal reports whether p ends an export run.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// CanTransition reports whether the pipeline may move from p to next.
func (p Phase) CanTransition(next Phase) bool {
	switch next {
	case PhaseStaging:
		return p == PhaseIdle || p.Terminal()
	case PhaseConverting:
		return p == PhaseStaging
	case PhasePackaging:
		return p == PhaseConverting
	case PhaseDone:
		return p == PhasePackaging
	case PhaseFailed:
		return p.Active()
	case PhaseIdle:
		return p == PhaseIdle || p.Terminal()
	}
	return false
}
