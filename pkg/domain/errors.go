package domain

import (
	"errors"
	"fmt"
)

// ErrContextPlus is the root of every error emitted by domain code.
var ErrContextPlus = errors.New("contextplus")

// Category errors. Use errors.Is against these; the typed errors below carry details.
var (
	// ErrAcquisition is returned when a capability is not found anywhere in the ancestor chain.
	ErrAcquisition = fmt.Errorf("%w: capability not acquired", ErrContextPlus)

	// ErrTraversalKey is returned when an indexed lookup finds nothing.
	ErrTraversalKey = fmt.Errorf("%w: traversal key not found", ErrContextPlus)

	// ErrNameNotSet is returned when the external name of an unplaced node is read.
	ErrNameNotSet = fmt.Errorf("%w: name not set", ErrContextPlus)

	// ErrCollection is the category of collection errors.
	ErrCollection = fmt.Errorf("%w: collection", ErrContextPlus)
	// ErrCollectionNotListable is returned by collections that refuse enumeration.
	ErrCollectionNotListable = fmt.Errorf("%w: not listable", ErrCollection)
	// ErrUnsupportedCriteria is returned for a filter shape the collection does not support.
	ErrUnsupportedCriteria = fmt.Errorf("%w: unsupported criteria", ErrCollection)

	// ErrRecord is the category of record errors.
	ErrRecord = fmt.Errorf("%w: record", ErrContextPlus)
	// ErrRecordID is returned when an id does not match the record's id fields.
	ErrRecordID = fmt.Errorf("%w: invalid id", ErrRecord)
	// ErrRecordUpdate is the category of rejected edits.
	ErrRecordUpdate = fmt.Errorf("%w: update failed", ErrRecord)
	// ErrProtectedField is returned when editing a field with the reserved prefix.
	ErrProtectedField = fmt.Errorf("%w: protected field", ErrRecordUpdate)
	// ErrPrimaryKeyField is returned when editing a primary key field.
	ErrPrimaryKeyField = fmt.Errorf("%w: primary key field", ErrRecordUpdate)
	// ErrUnknownField is returned when editing a field the record type does not declare.
	ErrUnknownField = fmt.Errorf("%w: field not found", ErrRecordUpdate)

	// ErrWorkflowTransition is the category of workflow errors.
	ErrWorkflowTransition = fmt.Errorf("%w: workflow transition", ErrContextPlus)
	// ErrWorkflowUnknownAction is returned for an action absent from the transition table.
	ErrWorkflowUnknownAction = fmt.Errorf("%w: unknown action", ErrWorkflowTransition)
	// ErrWorkflowIllegalTransition is returned when the current state is not a permitted source.
	ErrWorkflowIllegalTransition = fmt.Errorf("%w: illegal transition", ErrWorkflowTransition)
	// ErrWorkflowNotSupported is returned by nodes that do not store a workflow state.
	ErrWorkflowNotSupported = fmt.Errorf("%w: not supported", ErrWorkflowTransition)

	// ErrStateNotFound is returned by a state store holding nothing for a key.
	ErrStateNotFound = fmt.Errorf("%w: state not found", ErrContextPlus)
)

// AcquisitionError reports a capability missing from the whole ancestor chain.
type AcquisitionError struct {
	Capability Capability
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("capability %q not found in ancestor chain", e.Capability)
}

func (e *AcquisitionError) Unwrap() error { return ErrAcquisition }

// TraversalKeyError reports an indexed lookup that found nothing.
type TraversalKeyError struct {
	Key string
}

func (e *TraversalKeyError) Error() string {
	return fmt.Sprintf("traversal key %q not found", e.Key)
}

func (e *TraversalKeyError) Unwrap() error { return ErrTraversalKey }

// UnsupportedCriteriaError reports a filter criteria type the collection cannot apply.
type UnsupportedCriteriaError struct {
	Type string
}

func (e *UnsupportedCriteriaError) Error() string {
	if e.Type == "" {
		return "criteria not supported by this collection"
	}
	return fmt.Sprintf("unsupported criteria %q", e.Type)
}

func (e *UnsupportedCriteriaError) Unwrap() error { return ErrUnsupportedCriteria }

// RecordUpdateError reports an edit rejected during validation.
// Reason is one of ErrProtectedField, ErrPrimaryKeyField or ErrUnknownField.
type RecordUpdateError struct {
	Field  string
	Reason error
}

func (e *RecordUpdateError) Error() string {
	switch e.Reason {
	case ErrProtectedField:
		return fmt.Sprintf("can not edit protected field: %s", e.Field)
	case ErrPrimaryKeyField:
		return fmt.Sprintf("can not edit primary key field: %s", e.Field)
	case ErrUnknownField:
		return fmt.Sprintf("field not found: %s", e.Field)
	}
	return fmt.Sprintf("can not edit field %s: %v", e.Field, e.Reason)
}

func (e *RecordUpdateError) Unwrap() error {
	if e.Reason == nil {
		return ErrRecordUpdate
	}
	return e.Reason
}

// WorkflowError reports a rejected workflow action. It names the action and the
// object's type and state so callers can build a user-facing message.
type WorkflowError struct {
	Action string
	Object string // title or type of the object
	State  string
	Reason error // ErrWorkflowUnknownAction or ErrWorkflowIllegalTransition
}

func (e *WorkflowError) Error() string {
	if e.Reason == ErrWorkflowUnknownAction {
		return fmt.Sprintf("unknown workflow action %s on %s", e.Action, e.Object)
	}
	return fmt.Sprintf("can not %s on an instance of %s in the state %s", e.Action, e.Object, e.State)
}

func (e *WorkflowError) Unwrap() error { return e.Reason }
