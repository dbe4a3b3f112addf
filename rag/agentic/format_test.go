package agentic

import (
	"strings"
	"testing"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
)

func TestFormatAnswer(t *testing.T) {
	tests := []struct {
		name   string
		plan   *Plan
		rows   []graphstore.Row
		want   string
		prefix bool
		ok     bool
	}{
		{
			name:   "direct prereqs",
			plan:   &Plan{Intent: IntentDirectPrereqs, CourseCodes: []string{"DMS440"}},
			rows:   []graphstore.Row{{"code": "DMS401", "title": "Applied ML"}},
			want:   "Direct prerequisites (1-hop):\n- DMS401: Applied ML",
			prefix: true,
			ok:     true,
		},
		{
			name: "all prereqs sorted and de-duplicated",
			plan: &Plan{Intent: IntentAllPrereqs},
			rows: []graphstore.Row{
				{"code": "MTH201", "title": "Linear Algebra"},
				{"code": "DMS401", "title": "Applied ML"},
				{"code": "MTH201", "title": "Linear Algebra"},
				{"code": "MTH101"},
				{"title": "no code"},
			},
			want: "All prerequisites (transitive closure):\n- DMS401: Applied ML\n- MTH101\n- MTH201: Linear Algebra",
			ok:   true,
		},
		{
			name: "prereqs not found",
			plan: &Plan{Intent: IntentAllPrereqs, CourseCodes: []string{"DMS440"}},
			want: "I couldn't find prerequisites for that course in the graph.",
			ok:   true,
		},
		{
			name: "direct prereqs not found",
			plan: &Plan{Intent: IntentDirectPrereqs},
			rows: []graphstore.Row{},
			want: PrereqsNotFound,
			ok:   true,
		},
		{
			name: "next courses",
			plan: &Plan{Intent: IntentNextCourses},
			rows: []graphstore.Row{{"code": "DMS440", "title": "Graph ML"}},
			want: "Courses unlocked next:\n- DMS440: Graph ML",
			ok:   true,
		},
		{
			name: "next courses not found",
			plan: &Plan{Intent: IntentNextCourses},
			want: NextCoursesNotFound,
			ok:   true,
		},
		{
			name: "course details from node",
			plan: &Plan{Intent: IntentCourseDetails, CourseCodes: []string{"DMS440"}},
			rows: []graphstore.Row{{"c": map[string]any{
				"course_code": "DMS440", "title": "Graph ML", "level": "Graduate", "credits": int64(3),
				"description": "Learning on graphs.",
			}}},
			want: "**DMS440 — Graph ML** (Graduate, 3 credits)\nLearning on graphs.",
			ok:   true,
		},
		{
			name: "course details flat row without code",
			plan: &Plan{Intent: IntentCourseDetails, TargetCourse: "MTH201"},
			rows: []graphstore.Row{{"title": "Linear Algebra"}},
			want: "**MTH201 — Linear Algebra**",
			ok:   true,
		},
		{
			name: "course not found",
			plan: &Plan{Intent: IntentCourseDetails},
			want: CourseNotFound,
			ok:   true,
		},
		{
			name: "program requirements",
			plan: &Plan{Intent: IntentProgramRequirements, ProgramIDs: []string{"MSDS"}},
			rows: []graphstore.Row{
				{"type": "Elective", "code": "DMS450", "title": "NLP"},
				{"type": "Core", "code": "DMS401", "title": "Applied ML"},
				{"type": "core", "code": "DMS400", "title": "Foundations"},
				{"type": "Capstone", "code": "DMS499"},
				{"type": "Electives", "code": "DMS430", "title": "Agentic AI Systems"},
			},
			want: "Program requirements (from the graph):\n\n" +
				"**Core:**\n- DMS400: Foundations\n- DMS401: Applied ML\n\n" +
				"**Electives:**\n- DMS430: Agentic AI Systems\n- DMS450: NLP\n\n" +
				"**Other:**\n- DMS499",
			ok: true,
		},
		{
			name: "program not found",
			plan: &Plan{Intent: IntentProgramRequirements},
			want: ProgramNotFound,
			ok:   true,
		},
		{
			name: "path order preserved",
			plan: &Plan{Intent: IntentPrereqPath},
			rows: []graphstore.Row{{"path_nodes": []any{
				map[string]any{"course_code": "MTH101"},
				map[string]any{"course_code": "MTH201"},
				map[string]any{"course_code": "DMS440"},
			}, "hops": int64(2)}},
			want: "MTH101 → MTH201 → DMS440",
			ok:   true,
		},
		{
			name: "path of strings and unknown nodes",
			plan: &Plan{Intent: IntentPrereqPath},
			rows: []graphstore.Row{{"path_nodes": []any{"ZZZ900", map[string]any{"title": "x"}, "AAA100"}}},
			want: "ZZZ900 → ? → AAA100",
			ok:   true,
		},
		{
			name: "path nodes without codes fall through",
			plan: &Plan{Intent: IntentPrereqPath},
			rows: []graphstore.Row{{"path_nodes": []any{map[string]any{"title": "Calc"}, map[string]any{"title": "ML"}}}},
			ok:   false,
		},
		{
			name: "path of unreadable values falls through",
			plan: &Plan{Intent: IntentPrereqPath},
			rows: []graphstore.Row{{"path_nodes": []any{42, nil}}},
			ok:   false,
		},
		{
			name: "path without nodes falls through",
			plan: &Plan{Intent: IntentPrereqPath},
			rows: []graphstore.Row{{"hops": int64(2)}},
			ok:   false,
		},
		{
			name: "path with no rows falls through",
			plan: &Plan{Intent: IntentPrereqPath},
			ok:   false,
		},
		{
			name: "unknown intent",
			plan: &Plan{Intent: IntentUnknown},
			rows: []graphstore.Row{{"code": "DMS401"}},
			ok:   false,
		},
		{
			name: "eligibility handled elsewhere",
			plan: &Plan{Intent: IntentEligibilityCheck},
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatAnswer(tt.plan, tt.rows)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (text %q)", ok, tt.ok, got)
			}
			if !ok {
				return
			}
			if tt.prefix {
				if !strings.HasPrefix(got, tt.want) {
					t.Fatalf("answer %q does not start with %q", got, tt.want)
				}
				return
			}
			if got != tt.want {
				t.Fatalf("answer = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAnswerIdempotent(t *testing.T) {
	rows := []graphstore.Row{
		{"code": "MTH201", "title": "Linear Algebra"},
		{"code": "DMS401", "title": "Applied ML"},
	}
	for _, intent := range []Intent{IntentDirectPrereqs, IntentAllPrereqs, IntentNextCourses, IntentProgramRequirements, IntentCourseDetails} {
		plan := &Plan{Intent: intent, CourseCodes: []string{"DMS440"}}
		first, _ := FormatAnswer(plan, rows)
		second, _ := FormatAnswer(plan, rows)
		if first != second {
			t.Fatalf("%s: formatting is not idempotent", intent)
		}
	}
}
