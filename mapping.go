package contextplus

import (
	"context"

	"github.com/aretw0/contextplus/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Mapping is an ordered string-keyed map, such as a spreadsheet row.
type Mapping struct {
	keys   []string
	values map[string]any
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]any)}
}

// MappingOf builds a mapping from parallel keys and values. Missing values are nil.
func MappingOf(keys []string, values []any) *Mapping {
	m := NewMapping()
	for i, k := range keys {
		var v any
		if i < len(values) {
			v = values[i]
		}
		m.Set(k, v)
	}
	return m
}

// Set stores v under k, keeping the position of an existing key.
func (m *Mapping) Set(k string, v any) {
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

// Get returns the value stored under k.
func (m *Mapping) Get(k string) (any, bool) {
	v, ok := m.values[k]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string { return m.keys }

// Len returns the number of keys.
func (m *Mapping) Len() int { return len(m.keys) }

// Map returns a copy as a plain map.
func (m *Mapping) Map() map[string]any {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// MappingItem is a node backed by a mapping. Its workflow state is kept under
// WorkflowKey.
type MappingItem struct {
	Base

	// WorkflowKey defaults to "workflow_state".
	WorkflowKey string
	mapping     *Mapping
}

// NewMappingItem creates a standalone mapping item.
func NewMappingItem(typ *Type, parent domain.Node, name string, mapping *Mapping) *MappingItem {
	m := &MappingItem{}
	m.InitMapping(m, typ, parent, name, mapping)
	return m
}

// InitMapping initialises a mapping item embedded in this.
func (m *MappingItem) InitMapping(this Node, typ *Type, parent domain.Node, name string, mapping *Mapping) {
	m.Init(this, typ, parent, name)
	if mapping == nil {
		mapping = NewMapping()
	}
	m.mapping = mapping
}

// Mapping returns the backing mapping.
func (m *MappingItem) Mapping() *Mapping { return m.mapping }

// Value returns one entry of the mapping.
func (m *MappingItem) Value(key string) (any, bool) { return m.mapping.Get(key) }

func (m *MappingItem) workflowKey() string {
	if m.WorkflowKey == "" {
		return DefaultWorkflowField
	}
	return m.WorkflowKey
}

// State implements workflow.Storage.
func (m *MappingItem) State(ctx context.Context) (string, error) {
	if v, ok := m.mapping.Get(m.workflowKey()); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, nil
		}
	}
	return m.Type().FallbackState(), nil
}

// SetState implements workflow.Storage.
func (m *MappingItem) SetState(ctx context.Context, state string) error {
	m.mapping.Set(m.workflowKey(), state)
	return nil
}

// Info adds a column_<key> entry per mapping key.
func (m *MappingItem) Info(ctx context.Context) (map[string]any, error) {
	info, err := m.Base.Info(ctx)
	if err != nil {
		return nil, err
	}
	for _, k := range m.mapping.Keys() {
		v, _ := m.mapping.Get(k)
		info["column_"+k] = v
	}
	return info, nil
}

// Decode copies the mapping into out using mapstructure tags.
// Weakly typed input is accepted since spreadsheet cells are formatted strings.
func (m *MappingItem) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(m.mapping.Map())
}
