// Package sql adapts relational tables to record-backed nodes. The database
// handle is acquired through the db_session capability.
package sql

import (
	"context"
	backend "database/sql"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/pkg/acquisition"
	"github.com/aretw0/contextplus/pkg/domain"
)

// DB acquires the database handle from n's chain.
func DB(n domain.Node) (*backend.DB, error) {
	return acquisition.As[*backend.DB](n, domain.CapDBSession)
}

// Item is a node backed by one row. Edits are written to the row before
// they are applied to the node.
type Item struct {
	contextplus.RecordItem
}

// NewItem wraps an already loaded row.
func NewItem(typ *contextplus.Type, rt *contextplus.RecordType, parent domain.Node, name string, record contextplus.Record) *Item {
	i := &Item{}
	i.InitRecord(i, typ, rt, parent, name, record)
	return i
}

// FromID loads the row identified by id. The keys of id must be exactly the
// id fields of rt, otherwise domain.ErrRecordID is returned. A missing row
// yields a nil item and a nil error.
func FromID(ctx context.Context, typ *contextplus.Type, rt *contextplus.RecordType, parent domain.Node, name string, id map[string]any) (*Item, error) {
	if err := checkID(rt, id); err != nil {
		return nil, err
	}
	db, err := DB(parent)
	if err != nil {
		return nil, err
	}

	where, args := idClause(rt, id)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", columnList(rt), quote(rt.Table), where)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, rows.Err()
	}
	record, err := scanRecord(rows, rt)
	if err != nil {
		return nil, err
	}
	return NewItem(typ, rt, parent, name, record), nil
}

func checkID(rt *contextplus.RecordType, id map[string]any) error {
	keys := slices.Sorted(maps.Keys(id))
	want := slices.Sorted(slices.Values(rt.IDFields))
	if !slices.Equal(keys, want) {
		return fmt.Errorf("%w: got fields %v, want %v", domain.ErrRecordID, keys, want)
	}
	return nil
}

// WriteFields implements contextplus.FieldWriter: edits reach the row before
// the in-memory record.
func (i *Item) WriteFields(ctx context.Context, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	db, err := DB(i)
	if err != nil {
		return err
	}

	rt := i.RecordType()
	fields := slices.Sorted(maps.Keys(values))
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+len(rt.IDFields))
	for _, field := range fields {
		sets = append(sets, quote(field)+" = ?")
		args = append(args, values[field])
	}
	where, idArgs := idClause(rt, i.ID())
	args = append(args, idArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", quote(rt.Table), strings.Join(sets, ", "), where)
	i.Logger().Debug("saving record", "table", rt.Table, "fields", fields)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update error: %w", err)
	}
	return nil
}

func idClause(rt *contextplus.RecordType, id map[string]any) (string, []any) {
	conds := make([]string, 0, len(rt.IDFields))
	args := make([]any, 0, len(rt.IDFields))
	for _, f := range rt.IDFields {
		conds = append(conds, quote(f)+" = ?")
		args = append(args, id[f])
	}
	return strings.Join(conds, " AND "), args
}

func columnList(rt *contextplus.RecordType) string {
	cols := make([]string, 0, len(rt.Fields))
	for _, f := range rt.Fields {
		cols = append(cols, quote(f))
	}
	return strings.Join(cols, ", ")
}

// quote quotes an identifier. Identifiers only ever come from a RecordType.
func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func scanRecord(rows *backend.Rows, rt *contextplus.RecordType) (contextplus.Record, error) {
	values := make([]any, len(rt.Fields))
	ptrs := make([]any, len(rt.Fields))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}
	record := make(contextplus.Record, len(rt.Fields))
	for i, f := range rt.Fields {
		if b, ok := values[i].([]byte); ok {
			record[f] = string(b)
			continue
		}
		record[f] = values[i]
	}
	return record, nil
}
