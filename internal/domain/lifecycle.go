package domain

// LifecycleState is the match state machine position.
type LifecycleState string

const (
	StateIdle        LifecycleState = "IDLE"        // name entry, no match data
	StateConfiguring LifecycleState = "CONFIGURING" // settings screen
	StateActive      LifecycleState = "ACTIVE"      // question loop running
	StateConcluded   LifecycleState = "CONCLUDED"   // final tally and review
)

func (s LifecycleState) String() string {
	return string(s)
}

// CanTransitionTo reports whether moving from s to target is allowed.
// Reset to Idle is always allowed and is not listed here.
func (s LifecycleState) CanTransitionTo(target LifecycleState) bool {
	validTransitions := map[LifecycleState][]LifecycleState{
		StateIdle:        {StateConfiguring, StateActive},
		StateConfiguring: {StateIdle, StateActive},
		StateActive:      {StateConcluded},
		StateConcluded:   {},
	}
	if target == StateIdle {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
