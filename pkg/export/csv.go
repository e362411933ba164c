// Package export writes collections out in tabular formats.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/aretw0/contextplus"
	"github.com/aretw0/contextplus/pkg/domain"
)

// Informer is implemented by nodes that describe themselves as a flat map.
type Informer interface {
	Info(ctx context.Context) (map[string]any, error)
}

// WriteCSV writes a header row then one row per child of c, reading cells from
// each child's Info. Without columns, the sorted keys of the first child's Info
// are used. Missing and nil values are written as empty cells.
func WriteCSV(ctx context.Context, w io.Writer, c contextplus.ChildIterator, columns ...string) error {
	cw := csv.NewWriter(w)
	headerWritten := false

	writeHeader := func() error {
		headerWritten = true
		return cw.Write(columns)
	}

	for child, err := range c.IterChildren(ctx) {
		if err != nil {
			return err
		}
		info, err := infoOf(ctx, child)
		if err != nil {
			return err
		}
		if len(columns) == 0 {
			columns = slices.Sorted(maps.Keys(info))
		}
		if !headerWritten {
			if err := writeHeader(); err != nil {
				return err
			}
		}
		if err := cw.Write(row(info, columns)); err != nil {
			return err
		}
	}

	if !headerWritten && len(columns) > 0 {
		if err := writeHeader(); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func infoOf(ctx context.Context, n domain.Node) (map[string]any, error) {
	i, ok := n.(Informer)
	if !ok {
		return nil, fmt.Errorf("export: %T has no Info", n)
	}
	return i.Info(ctx)
}

func row(info map[string]any, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		if v, ok := info[col]; ok && v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
