package domain

import "slices"

// DefaultWorkflowState is reported when a node's storage holds no explicit state.
const DefaultWorkflowState = "unknown"

// Transition defines the states an action may start from and the state it leads to.
type Transition struct {
	From []string `json:"from" yaml:"from" mapstructure:"from"`
	To   string   `json:"to" yaml:"to" mapstructure:"to"`
}

// Allows reports whether the transition may start from state.
func (t Transition) Allows(state string) bool {
	return slices.Contains(t.From, state)
}

// Transitions maps action names to their transition.
type Transitions map[string]Transition

// Lookup returns the transition for action.
func (t Transitions) Lookup(action string) (Transition, bool) {
	tr, ok := t[action]
	return tr, ok
}

// Actions returns the actions available from state, sorted by name.
func (t Transitions) Actions(state string) []string {
	actions := make([]string, 0, len(t))
	for action, tr := range t {
		if tr.Allows(state) {
			actions = append(actions, action)
		}
	}
	slices.Sort(actions)
	return actions
}
