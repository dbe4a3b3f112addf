package graphstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Row is one evidence row: result column name to value. Values are scalars,
// slices, or nested maps (graph nodes are flattened to their properties).
type Row map[string]any

// Store defines the graph-store boundary the pipeline reads from.
type Store interface {
	// RunRead executes a read-only query and returns its rows in store order.
	RunRead(ctx context.Context, query string, params map[string]any) ([]Row, error)

	// RunWrite executes a mutating query. Only import tooling uses it.
	RunWrite(ctx context.Context, query string, params map[string]any) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// String returns the value under key as a string, "" when absent.
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Map returns the nested mapping under key, if any.
func (r Row) Map(key string) (map[string]any, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Row:
		return m, true
	}
	return nil, false
}

// Keys returns the column names sorted, for stable logging.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summary renders rows compactly for log lines.
func Summary(rows []Row, limit int) string {
	if len(rows) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[")
	for i, row := range rows {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&b, " ... +%d", len(rows)-limit)
			break
		}
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString("{")
		for j, k := range row.Keys() {
			if j > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "%s:%v", k, row[k])
		}
		b.WriteString("}")
	}
	b.WriteString("]")
	return b.String()
}
