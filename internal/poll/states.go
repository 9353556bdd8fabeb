package poll

import "strings"

// StateSet classifies string states into phases. Matching is case-insensitive.
type StateSet struct {
	Terminal []string
	Pending  []string
}

// DefaultStates is the classification used for generic long-running operations.
var DefaultStates = StateSet{
	Terminal: []string{"TERMINATED", "SKIPPED", "SUCCESS", "FAILED", "CANCELLED"},
	Pending:  []string{"PENDING", "RUNNING", "EXECUTING"},
}

// Classify returns the observation for state.
func (s StateSet) Classify(state string) Observation {
	normalized := strings.ToUpper(strings.TrimSpace(state))
	obs := Observation{State: normalized, Phase: PhaseUnknown}
	switch {
	case contains(s.Terminal, normalized):
		obs.Phase = PhaseTerminal
	case contains(s.Pending, normalized):
		obs.Phase = PhasePending
	}
	return obs
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
