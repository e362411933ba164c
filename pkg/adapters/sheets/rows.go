// Package sheets exposes the rows of a spreadsheet as a collection of mapping
// items. The spreadsheet is read through a ValuesAPI acquired from the sheets_api
// capability; value ranges are kept in the site's value cache.
package sheets

import (
	"context"
	"fmt"
	"iter"
	"strconv"

	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/pkg/acquisition"
	"github.com/aretw0/contextplus/pkg/cache"
	"github.com/aretw0/contextplus/pkg/domain"
)

// DefaultRange is read when a collection names none.
const DefaultRange = "Sheet1!A:Z"

var (
	// ErrNoValues is returned when the value range holds no values at all.
	ErrNoValues = fmt.Errorf("%w: no values", domain.ErrCollection)
	// ErrNoHeaderRow is returned when the value range holds no header row.
	ErrNoHeaderRow = fmt.Errorf("%w: no header row found", domain.ErrCollection)
)

// ValueRange is a block of formatted cell values. A nil Values means the
// range carried no values.
type ValueRange struct {
	Range  string
	Values [][]any
}

// ValuesAPI reads cell values from a spreadsheet.
type ValuesAPI interface {
	Get(ctx context.Context, spreadsheetID, rng string) (ValueRange, error)
}

var (
	RowType        = &contextplus.Type{Name: "Row"}
	CollectionType = &contextplus.Type{Name: "Rows", ChildType: RowType}
)

// RowCollection lists one MappingItem per data row, keyed by the header row.
type RowCollection struct {
	contextplus.Collection

	SpreadsheetID string
	Range         string
	RowType       *contextplus.Type
	// NameFromRow names a child. Defaults to the 1-based data row number.
	NameFromRow func(row *contextplus.MappingItem, index int) string
}

// NewRowCollection creates a collection over spreadsheetID.
func NewRowCollection(typ *contextplus.Type, parent domain.Node, name, spreadsheetID string) *RowCollection {
	if typ == nil {
		typ = CollectionType
	}
	c := &RowCollection{
		SpreadsheetID: spreadsheetID,
		Range:         DefaultRange,
		RowType:       typ.ChildType,
	}
	c.Init(c, typ, parent, name)
	return c
}

func (c *RowCollection) cacheKey() string {
	return c.PathHash() + ":value_range"
}

// ValueRange returns the value range, from the value cache when present.
func (c *RowCollection) ValueRange(ctx context.Context) (ValueRange, error) {
	logger := c.Logger()
	valueCache, cacheErr := acquisition.As[*cache.TTL](c.This, domain.CapCache)
	if cacheErr == nil {
		if vr, ok := cache.Lookup[ValueRange](valueCache, c.cacheKey()); ok {
			logger.Debug("value range cache hit", "key", c.cacheKey())
			return vr, nil
		}
	}

	api, err := acquisition.As[ValuesAPI](c.This, domain.CapSheetsAPI)
	if err != nil {
		return ValueRange{}, err
	}
	vr, err := api.Get(ctx, c.SpreadsheetID, c.Range)
	if err != nil {
		return ValueRange{}, fmt.Errorf("failed to read %s from %s: %w", c.Range, c.SpreadsheetID, err)
	}

	if cacheErr == nil {
		logger.Debug("value range cache miss", "key", c.cacheKey())
		valueCache.Set(c.cacheKey(), vr)
	}
	return vr, nil
}

// Mappings turns a value range into one mapping per data row. Short rows are
// padded with nil.
func Mappings(vr ValueRange) ([]*contextplus.Mapping, error) {
	if vr.Values == nil {
		return nil, ErrNoValues
	}
	if len(vr.Values) < 1 {
		return nil, ErrNoHeaderRow
	}
	header := make([]string, len(vr.Values[0]))
	for i, cell := range vr.Values[0] {
		header[i] = fmt.Sprint(cell)
	}

	out := make([]*contextplus.Mapping, 0, len(vr.Values)-1)
	for _, row := range vr.Values[1:] {
		out = append(out, contextplus.MappingOf(header, row))
	}
	return out, nil
}

func (c *RowCollection) childFromMapping(m *contextplus.Mapping, index int) *contextplus.MappingItem {
	row := contextplus.NewMappingItem(c.RowType, c, "", m)
	if c.NameFromRow != nil {
		row.SetName(c.NameFromRow(row, index))
	} else {
		row.SetName(strconv.Itoa(index + 1))
	}
	return row
}

// IterChildren implements contextplus.ChildIterator.
func (c *RowCollection) IterChildren(ctx context.Context) iter.Seq2[domain.Node, error] {
	return func(yield func(domain.Node, error) bool) {
		vr, err := c.ValueRange(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		mappings, err := Mappings(vr)
		if err != nil {
			yield(nil, err)
			return
		}
		for i, m := range mappings {
			if !yield(c.childFromMapping(m, i), nil) {
				return
			}
		}
	}
}
