package receipt

// DispatchState is a step of a single receipt dispatch
type DispatchState string

const (
	StateIdle            DispatchState = "IDLE"
	StateComposing       DispatchState = "COMPOSING"
	StateDispatching     DispatchState = "DISPATCHING"
	StateAutoSubmitted   DispatchState = "AUTO_SUBMITTED"
	StateDialogPresented DispatchState = "DIALOG_PRESENTED"
	StateDone            DispatchState = "DONE"
	StateFailed          DispatchState = "FAILED"
)

// String returns the string representation of DispatchState
func (s DispatchState) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s DispatchState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransitionTo checks if the state can move to target
func (s DispatchState) CanTransitionTo(target DispatchState) bool {
	switch s {
	case StateIdle:
		return target == StateComposing
	case StateComposing:
		return target == StateDispatching || target == StateFailed
	case StateDispatching:
		return target == StateAutoSubmitted || target == StateDialogPresented || target == StateFailed
	case StateAutoSubmitted, StateDialogPresented:
		return target == StateDone
	}
	return false
}
