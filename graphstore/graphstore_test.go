package graphstore

import "testing"

func TestRowAccessors(t *testing.T) {
	row := Row{
		"code":    "DMS401",
		"credits": int64(3),
		"c":       map[string]any{"course_code": "DMS440"},
		"nil":     nil,
	}
	if row.String("code") != "DMS401" {
		t.Errorf("unexpected code %q", row.String("code"))
	}
	if row.String("credits") != "3" {
		t.Errorf("expected numeric value to be stringified, got %q", row.String("credits"))
	}
	if row.String("missing") != "" || row.String("nil") != "" {
		t.Errorf("expected empty strings for missing and nil values")
	}
	if m, ok := row.Map("c"); !ok || m["course_code"] != "DMS440" {
		t.Errorf("expected nested map, got %#v", m)
	}
	if _, ok := row.Map("code"); ok {
		t.Errorf("scalar should not be reported as map")
	}
}

func TestSummary(t *testing.T) {
	rows := []Row{{"code": "A", "title": "x"}, {"code": "B"}, {"code": "C"}}
	if got := Summary(rows, 2); got != "[{code:A,title:x} {code:B} ... +1]" {
		t.Errorf("unexpected summary %q", got)
	}
	if Summary(nil, 3) != "[]" {
		t.Errorf("expected empty summary")
	}
}
