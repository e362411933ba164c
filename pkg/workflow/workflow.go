/*
Package workflow performs declarative state transitions on domain nodes.

The machinery holds no state of its own. A node supplies its current state
and a setter through [Subject]; the transition table maps action names to the
permitted source states and the destination state. Transitions are announced
through events so they compose with the event bus:

	workflow-before-<action>  {action, from_state, to_state}
	workflow-after-<action>   {action, from_state, to_state}
*/
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/contextplus/pkg/domain"
)

// Storage reads and writes a node's workflow state.
// SetState must either succeed or leave the stored state untouched.
type Storage interface {
	State(ctx context.Context) (string, error)
	SetState(ctx context.Context, state string) error
}

// Subject is a node able to undergo workflow transitions.
type Subject interface {
	Storage
	Emit(ctx context.Context, name string, data map[string]any) error
	Title() string
	Path() []string
	Logger() *slog.Logger
}

// Payload keys of the workflow events.
const (
	KeyAction    = "action"
	KeyFromState = "from_state"
	KeyToState   = "to_state"
)

// Perform executes action on subject according to table.
//
// The before event fires before the state is written. If the setter fails no
// compensating event is emitted; the error is returned as is.
func Perform(ctx context.Context, subject Subject, table domain.Transitions, action string) error {
	from, err := subject.State(ctx)
	if err != nil {
		return fmt.Errorf("failed to read workflow state: %w", err)
	}

	transition, ok := table.Lookup(action)
	if !ok {
		return &domain.WorkflowError{
			Action: action,
			Object: subject.Title(),
			State:  from,
			Reason: domain.ErrWorkflowUnknownAction,
		}
	}
	if !transition.Allows(from) {
		return &domain.WorkflowError{
			Action: action,
			Object: subject.Title(),
			State:  from,
			Reason: domain.ErrWorkflowIllegalTransition,
		}
	}
	to := transition.To

	subject.Logger().Info("workflow", "action", action, "from", from, "to", to,
		"path", strings.Join(subject.Path(), "/"))

	data := map[string]any{
		KeyAction:    action,
		KeyFromState: from,
		KeyToState:   to,
	}
	if err := subject.Emit(ctx, domain.EventWorkflowBeforePrefix+action, data); err != nil {
		return err
	}
	if err := subject.SetState(ctx, to); err != nil {
		return err
	}
	return subject.Emit(ctx, domain.EventWorkflowAfterPrefix+action, data)
}

// Memory keeps a workflow state in a field. The zero value reports def.
type Memory struct {
	state string
	def   string
}

// NewMemory creates in-memory storage starting at state (may be empty),
// reporting def when no state is set.
func NewMemory(state, def string) *Memory {
	if def == "" {
		def = domain.DefaultWorkflowState
	}
	return &Memory{state: state, def: def}
}

// State implements Storage.
func (m *Memory) State(ctx context.Context) (string, error) {
	if m.state == "" {
		if m.def == "" {
			return domain.DefaultWorkflowState, nil
		}
		return m.def, nil
	}
	return m.state, nil
}

// SetState implements Storage.
func (m *Memory) SetState(ctx context.Context, state string) error {
	m.state = state
	return nil
}
