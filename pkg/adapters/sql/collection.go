package sql

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/pkg/domain"
)

// Supported criteria types.
const (
	// CriteriaFilterBy matches rows whose field equals the value.
	CriteriaFilterBy = "filter_by"
	// CriteriaSubString matches rows whose field contains the value, ignoring case.
	CriteriaSubString = "sub_string"
)

// Collection is a node whose children are the rows of a table.
type Collection struct {
	contextplus.Collection

	RecordType *contextplus.RecordType
	ItemType   *contextplus.Type

	// NameFromItem names a child. Defaults to its id values joined by "-".
	NameFromItem func(item *Item) string
	// IDFromName parses a child name back to an id. Defaults to the name as
	// the single id field.
	IDFromName func(name string) (map[string]any, error)
}

// NewCollection creates a collection over the table described by rt.
func NewCollection(typ, itemType *contextplus.Type, rt *contextplus.RecordType, parent domain.Node, name string) *Collection {
	c := &Collection{RecordType: rt, ItemType: itemType}
	if typ == nil {
		typ = &contextplus.Type{Name: "Collection", ChildType: itemType}
	}
	c.Init(c, typ, parent, name)
	return c
}

func (c *Collection) nameFromItem(item *Item) string {
	if c.NameFromItem != nil {
		return c.NameFromItem(item)
	}
	id := item.ID()
	parts := make([]string, 0, len(c.RecordType.IDFields))
	for _, f := range c.RecordType.IDFields {
		parts = append(parts, fmt.Sprint(id[f]))
	}
	return strings.Join(parts, "-")
}

func (c *Collection) idFromName(name string) (map[string]any, error) {
	if c.IDFromName != nil {
		return c.IDFromName(name)
	}
	if len(c.RecordType.IDFields) != 1 {
		return nil, fmt.Errorf("%w: name %q can not identify a composite key", domain.ErrRecordID, name)
	}
	return map[string]any{c.RecordType.IDFields[0]: name}, nil
}

func (c *Collection) childFromRecord(record contextplus.Record) *Item {
	item := NewItem(c.ItemType, c.RecordType, c, "", record)
	item.SetName(c.nameFromItem(item))
	return item
}

// likeEscaper escapes the LIKE wildcards of a literal, using \ as the escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// where builds the WHERE clause of the criteria.
func (c *Collection) where(criteria []contextplus.Criterion) (string, []any, error) {
	conds := make([]string, 0, len(criteria))
	args := make([]any, 0, len(criteria))
	for _, cr := range criteria {
		if !c.RecordType.HasField(cr.Field) {
			return "", nil, &domain.RecordUpdateError{Field: cr.Field, Reason: domain.ErrUnknownField}
		}
		switch cr.Type {
		case CriteriaFilterBy:
			conds = append(conds, quote(cr.Field)+" = ?")
			args = append(args, cr.Value)
		case CriteriaSubString:
			conds = append(conds, "LOWER("+quote(cr.Field)+`) LIKE ? ESCAPE '\'`)
			args = append(args, "%"+likeEscaper.Replace(strings.ToLower(fmt.Sprint(cr.Value)))+"%")
		default:
			return "", nil, &domain.UnsupportedCriteriaError{Type: cr.Type}
		}
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// orderBy parses expressions of the form "field" or "field desc". Without
// expressions rows are ordered by the id fields so pages are stable.
func (c *Collection) orderBy(exprs []string) (string, error) {
	if len(exprs) == 0 {
		exprs = c.RecordType.IDFields
	}
	if len(exprs) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		fields := strings.Fields(expr)
		if len(fields) == 0 || len(fields) > 2 || !c.RecordType.HasField(fields[0]) {
			return "", &domain.UnsupportedCriteriaError{Type: "order_by " + expr}
		}
		dir := "ASC"
		if len(fields) == 2 {
			switch strings.ToLower(fields[1]) {
			case "asc":
			case "desc":
				dir = "DESC"
			default:
				return "", &domain.UnsupportedCriteriaError{Type: "order_by " + expr}
			}
		}
		parts = append(parts, quote(fields[0])+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// Query returns the children matching opts, without computing a total.
func (c *Collection) Query(ctx context.Context, opts contextplus.FilterOptions) iter.Seq2[domain.Node, error] {
	return func(yield func(domain.Node, error) bool) {
		db, err := DB(c)
		if err != nil {
			yield(nil, err)
			return
		}
		where, args, err := c.where(opts.Criteria)
		if err != nil {
			yield(nil, err)
			return
		}
		order, err := c.orderBy(opts.OrderBy)
		if err != nil {
			yield(nil, err)
			return
		}

		query := fmt.Sprintf("SELECT %s FROM %s%s%s", columnList(c.RecordType), quote(c.RecordType.Table), where, order)
		switch {
		case opts.Limit > 0:
			query += " LIMIT ? OFFSET ?"
			args = append(args, opts.Limit, opts.Offset)
		case opts.Offset > 0:
			query += " LIMIT -1 OFFSET ?"
			args = append(args, opts.Offset)
		}

		c.Logger().Debug("executing SQL", "table", c.RecordType.Table, "argCount", len(args))
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("query error: %w", err))
			return
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			record, err := scanRecord(rows, c.RecordType)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(c.childFromRecord(record), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("rows error: %w", err))
		}
	}
}

// Count returns the number of rows matching criteria.
func (c *Collection) Count(ctx context.Context, criteria []contextplus.Criterion) (int, error) {
	db, err := DB(c)
	if err != nil {
		return 0, err
	}
	where, args, err := c.where(criteria)
	if err != nil {
		return 0, err
	}
	var total int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quote(c.RecordType.Table), where)
	if err := db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count error: %w", err)
	}
	return total, nil
}

// IterChildren lists every row.
func (c *Collection) IterChildren(ctx context.Context) iter.Seq2[domain.Node, error] {
	return c.Query(ctx, contextplus.FilterOptions{})
}

// Filter returns a window of the matching rows with their true total.
func (c *Collection) Filter(ctx context.Context, opts contextplus.FilterOptions) (contextplus.FilterResult, error) {
	total, err := c.Count(ctx, opts.Criteria)
	if err != nil {
		return contextplus.FilterResult{}, err
	}
	result := contextplus.FilterResult{Total: &total}
	for child, err := range c.Query(ctx, opts) {
		if err != nil {
			return contextplus.FilterResult{}, err
		}
		result.Items = append(result.Items, child)
	}
	return result, nil
}

// Child loads the row named name, or returns nil when there is none. A name
// that does not parse to an id names no row.
func (c *Collection) Child(ctx context.Context, name string) (domain.Node, error) {
	id, err := c.idFromName(name)
	if errors.Is(err, domain.ErrRecordID) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item, err := FromID(ctx, c.ItemType, c.RecordType, c, name, id)
	if err != nil || item == nil {
		return nil, err
	}
	return item, nil
}

// Add inserts record and returns the new child. The child emits created.
func (c *Collection) Add(ctx context.Context, record contextplus.Record) (*Item, error) {
	db, err := DB(c)
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(record))
	for _, f := range c.RecordType.Fields {
		if _, ok := record[f]; ok {
			fields = append(fields, f)
		}
	}
	for f := range record {
		if !slices.Contains(fields, f) {
			return nil, &domain.RecordUpdateError{Field: f, Reason: domain.ErrUnknownField}
		}
	}

	cols := make([]string, 0, len(fields))
	marks := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, quote(f))
		marks = append(marks, "?")
		args = append(args, record[f])
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(c.RecordType.Table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert error: %w", err)
	}

	// A single integer key left to the database is read back.
	stored := make(contextplus.Record, len(record)+1)
	for k, v := range record {
		stored[k] = v
	}
	if len(c.RecordType.IDFields) == 1 {
		if _, ok := stored[c.RecordType.IDFields[0]]; !ok {
			if id, err := res.LastInsertId(); err == nil {
				stored[c.RecordType.IDFields[0]] = id
			}
		}
	}

	item := c.childFromRecord(stored)
	if err := item.Emit(ctx, domain.EventCreated, map[string]any{"record": stored}); err != nil {
		return nil, err
	}
	return item, nil
}
