package agentic

import (
	"testing"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
)

// perRow charges a flat cost for every encoded row.
type perRow int

func (c perRow) CountTokens(string) int { return int(c) }

func TestCapRows(t *testing.T) {
	rows := []graphstore.Row{{"code": "A"}, {"code": "B"}, {"code": "C"}}
	tests := []struct {
		name      string
		counter   perRow
		maxTokens int
		kept      int
		dropped   int
	}{
		{name: "fits", counter: 10, maxTokens: 30, kept: 3},
		{name: "prefix", counter: 10, maxTokens: 25, kept: 2, dropped: 1},
		{name: "first row always kept", counter: 100, maxTokens: 5, kept: 1, dropped: 2},
		{name: "no budget", counter: 100, maxTokens: 0, kept: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := capRows(rows, tt.counter, tt.maxTokens)
			if len(got) != tt.kept || dropped != tt.dropped {
				t.Fatalf("kept %d dropped %d, want %d/%d", len(got), dropped, tt.kept, tt.dropped)
			}
			if got[0].String("code") != "A" {
				t.Fatalf("row order changed: %v", got)
			}
		})
	}
}

func TestEvidenceEncodingIsStable(t *testing.T) {
	row := graphstore.Row{"title": "Applied ML", "code": "DMS401", "credits": int64(3)}
	want := `{"code":"DMS401","credits":3,"title":"Applied ML"}`
	for i := 0; i < 5; i++ {
		if got := mustJSON(row); got != want {
			t.Fatalf("encoding = %s, want %s", got, want)
		}
	}
}
