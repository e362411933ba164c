package contextplus

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ProtectedPrefix marks record fields that can not be edited.
const ProtectedPrefix = "_"

// DefaultWorkflowField is the record field holding the workflow state.
const DefaultWorkflowField = "workflow_state"

// Edit event payload keys.
const (
	KeyKwargs  = "kwargs"
	KeyChanges = "changes"
)

// RecordType describes the fields of a record.
type RecordType struct {
	Table         string
	Fields        []string
	IDFields      []string
	WorkflowField string
}

// HasField reports whether the record type declares field.
func (rt *RecordType) HasField(field string) bool {
	return slices.Contains(rt.Fields, field)
}

// IsIDField reports whether field is part of the primary key.
func (rt *RecordType) IsIDField(field string) bool {
	return slices.Contains(rt.IDFields, field)
}

func (rt *RecordType) workflowField() string {
	if rt.WorkflowField == "" {
		return DefaultWorkflowField
	}
	return rt.WorkflowField
}

// Record holds the field values of one record.
type Record map[string]any

// Editor is implemented by nodes accepting field edits.
type Editor interface {
	Edit(ctx context.Context, changes map[string]any) error
}

// FieldWriter is implemented by record nodes that persist edits. WriteFields
// runs before the values are applied in memory; when it fails the record is
// left untouched.
type FieldWriter interface {
	WriteFields(ctx context.Context, values map[string]any) error
}

// RecordItem is a node backed by a record. Its workflow state is kept in the
// record's workflow field.
type RecordItem struct {
	Base

	recordType *RecordType
	record     Record
	dirty      map[string]struct{}
}

// NewRecordItem creates a standalone record item.
func NewRecordItem(typ *Type, rt *RecordType, parent domain.Node, name string, record Record) *RecordItem {
	r := &RecordItem{}
	r.InitRecord(r, typ, rt, parent, name, record)
	return r
}

// InitRecord initialises a record item embedded in this.
func (r *RecordItem) InitRecord(this Node, typ *Type, rt *RecordType, parent domain.Node, name string, record Record) {
	r.Init(this, typ, parent, name)
	if record == nil {
		record = Record{}
	}
	r.recordType = rt
	r.record = record
}

// RecordType returns the record type.
func (r *RecordItem) RecordType() *RecordType { return r.recordType }

// Record returns the backing record. Callers must not modify it; use Edit.
func (r *RecordItem) Record() Record { return r.record }

// Value returns one field of the record.
func (r *RecordItem) Value(field string) (any, bool) {
	v, ok := r.record[field]
	return v, ok
}

// ID returns the primary key fields and their values.
func (r *RecordItem) ID() map[string]any {
	id := make(map[string]any, len(r.recordType.IDFields))
	for _, f := range r.recordType.IDFields {
		id[f] = r.record[f]
	}
	return id
}

// Validate checks that every key of changes may be edited.
func (r *RecordItem) Validate(changes map[string]any) error {
	for _, key := range slices.Sorted(maps.Keys(changes)) {
		switch {
		case strings.HasPrefix(key, ProtectedPrefix):
			return &domain.RecordUpdateError{Field: key, Reason: domain.ErrProtectedField}
		case r.recordType.IsIDField(key):
			return &domain.RecordUpdateError{Field: key, Reason: domain.ErrPrimaryKeyField}
		case !r.recordType.HasField(key):
			return &domain.RecordUpdateError{Field: key, Reason: domain.ErrUnknownField}
		}
	}
	return nil
}

// Edit validates every key before writing any, then sets the fields whose
// value differs. It emits before-edit and after-edit with the requested
// changes (kwargs) and the names of the fields that actually changed.
//
// When the node is a FieldWriter the changed values are written first and
// only applied once the write succeeded; otherwise they are marked dirty.
func (r *RecordItem) Edit(ctx context.Context, changes map[string]any) error {
	if err := r.Validate(changes); err != nil {
		return err
	}

	var changed []string
	for _, key := range slices.Sorted(maps.Keys(changes)) {
		if !reflect.DeepEqual(r.record[key], changes[key]) {
			changed = append(changed, key)
		}
	}

	data := map[string]any{KeyKwargs: changes, KeyChanges: changed}
	if err := r.Emit(ctx, domain.EventBeforeEdit, data); err != nil {
		return err
	}

	writer, persisted := r.this().(FieldWriter)
	if persisted && len(changed) > 0 {
		values := make(map[string]any, len(changed))
		for _, key := range changed {
			values[key] = changes[key]
		}
		if err := writer.WriteFields(ctx, values); err != nil {
			return err
		}
	}

	if r.dirty == nil {
		r.dirty = make(map[string]struct{})
	}
	for _, key := range changed {
		r.record[key] = changes[key]
		if !persisted {
			r.dirty[key] = struct{}{}
		}
	}
	return r.Emit(ctx, domain.EventAfterEdit, data)
}

// Dirty returns the fields edited but not yet persisted, sorted.
func (r *RecordItem) Dirty() []string {
	return slices.Sorted(maps.Keys(r.dirty))
}

// ClearDirty forgets pending edits, typically after they were persisted.
func (r *RecordItem) ClearDirty() {
	clear(r.dirty)
}

// State implements workflow.Storage.
func (r *RecordItem) State(ctx context.Context) (string, error) {
	if s, ok := r.record[r.recordType.workflowField()].(string); ok && s != "" {
		return s, nil
	}
	return r.Type().FallbackState(), nil
}

// SetState edits the workflow field.
func (r *RecordItem) SetState(ctx context.Context, state string) error {
	changes := map[string]any{r.recordType.workflowField(): state}
	if e, ok := r.this().(Editor); ok {
		return e.Edit(ctx, changes)
	}
	return r.Edit(ctx, changes)
}

// Decode copies the record into out, a pointer to a struct or map,
// matching fields by their mapstructure tags.
func (r *RecordItem) Decode(out any) error {
	return mapstructure.Decode(map[string]any(r.record), out)
}
