package agentic

import (
	"strings"
	"testing"
)

func TestTemplatesNeverMutate(t *testing.T) {
	reg := NewTemplateRegistry()
	gates := []*SafetyGate{NewSafetyGate(false), NewSafetyGate(true)}
	codes := []string{"DMS440", "CSE305", "MTH101", "AB123", "ABCD999"}
	programs := []string{"MSDS", "BSCS", "BASTAT"}

	for _, intent := range reg.Intents() {
		for i, code := range codes {
			plan := &Plan{Intent: intent, CourseCodes: []string{code}, ProgramIDs: []string{programs[i%len(programs)]}}
			spec, ok := reg.Render(plan)
			if !ok {
				t.Fatalf("%s: expected template for %s", intent, code)
			}
			upper := strings.ToUpper(spec.Query)
			for _, kw := range BlockedKeywords {
				if strings.Contains(upper, kw) {
					t.Fatalf("%s template contains blocked keyword %s", intent, kw)
				}
			}
			for _, g := range gates {
				if err := g.Check(spec); err != nil {
					t.Fatalf("%s template rejected: %v", intent, err)
				}
			}
			for _, v := range spec.Params {
				if strings.Contains(spec.Query, v.(string)) {
					t.Fatalf("%s template inlined identifier %v", intent, v)
				}
			}
		}
	}

	for _, q := range []string{PrereqClosureQuery, ProgramVocabularyQuery, DefaultQuery} {
		if err := NewSafetyGate(false).Check(&QuerySpec{Query: q}); err != nil {
			t.Fatalf("built-in query rejected: %v", err)
		}
	}
}

func TestTemplateRenderDeterministic(t *testing.T) {
	reg := NewTemplateRegistry()
	a, _ := reg.Render(&Plan{Intent: IntentAllPrereqs, CourseCodes: []string{"DMS440"}})
	b, _ := reg.Render(&Plan{Intent: IntentAllPrereqs, CourseCodes: []string{"DMS440"}})
	c, _ := reg.Render(&Plan{Intent: IntentAllPrereqs, CourseCodes: []string{"CSE305"}})
	if a.Query != b.Query || a.Query != c.Query {
		t.Fatalf("template text changed between renders")
	}
	if a.Query != AllPrereqsQuery {
		t.Fatalf("unexpected query %q", a.Query)
	}
	if c.Params["code"] != "CSE305" || a.Params["code"] != "DMS440" {
		t.Fatalf("unexpected params %v %v", a.Params, c.Params)
	}
	if a.Source != SourceTemplate {
		t.Fatalf("expected template source, got %s", a.Source)
	}
}

func TestTemplateRequiresIdentifier(t *testing.T) {
	reg := NewTemplateRegistry()
	tests := []struct {
		name  string
		plan  *Plan
		ok    bool
		param string
		value string
	}{
		{"course code", &Plan{Intent: IntentDirectPrereqs, CourseCodes: []string{"DMS440", "MTH201"}}, true, "code", "DMS440"},
		{"target fallback", &Plan{Intent: IntentNextCourses, TargetCourse: "MTH201"}, true, "code", "MTH201"},
		{"no course", &Plan{Intent: IntentCourseDetails}, false, "", ""},
		{"program", &Plan{Intent: IntentProgramRequirements, ProgramIDs: []string{"MSDS"}}, true, "pid", "MSDS"},
		{"program missing", &Plan{Intent: IntentProgramRequirements, CourseCodes: []string{"DMS440"}}, false, "", ""},
		{"unknown", &Plan{Intent: IntentUnknown, CourseCodes: []string{"DMS440"}}, false, "", ""},
		{"eligibility", &Plan{Intent: IntentEligibilityCheck, TargetCourse: "DMS440"}, false, "", ""},
		{"nil plan", nil, false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := reg.Render(tt.plan)
			if ok != tt.ok {
				t.Fatalf("Render ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if len(spec.Params) != 1 || spec.Params[tt.param] != tt.value {
				t.Fatalf("params = %v, want %s=%s", spec.Params, tt.param, tt.value)
			}
		})
	}
}

func TestRegistryIntents(t *testing.T) {
	reg := NewTemplateRegistry()
	got := reg.Intents()
	if len(got) != 6 {
		t.Fatalf("expected 6 templated intents, got %v", got)
	}
	for _, intent := range got {
		if !intent.Valid() || intent == IntentUnknown || intent == IntentEligibilityCheck {
			t.Fatalf("unexpected templated intent %s", intent)
		}
		if _, ok := reg.Lookup(intent); !ok {
			t.Fatalf("Lookup(%s) failed", intent)
		}
	}
}

func TestNewQuerySpecDropsNil(t *testing.T) {
	spec := NewQuerySpec("MATCH (c) RETURN c", map[string]any{"code": "DMS440", "pid": nil}, SourceGenerated)
	if _, ok := spec.Params["pid"]; ok {
		t.Fatalf("nil param kept: %v", spec.Params)
	}
	if spec.Params["code"] != "DMS440" {
		t.Fatalf("param lost: %v", spec.Params)
	}
	if NewQuerySpec("x", nil, SourceDefault).Params == nil {
		t.Fatal("expected non-nil params map")
	}
}
