package agentic

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	errorskg "github.com/nehamaheshh/neo4j-agentic-academic-advisor/errors"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/prompt"
)

func testPlanner(t *testing.T, llm *stubLLM, opts ...Option) *planner {
	t.Helper()
	cfg := applyOptions(nil, opts)
	prompts, err := prompt.NewAdvisorManager(cfg.Prompts)
	if err != nil {
		t.Fatalf("NewAdvisorManager error: %v", err)
	}
	return newPlanner(llm, prompts, cfg)
}

func TestPlannerExtract(t *testing.T) {
	p := testPlanner(t, newStubLLM())
	courses, programs := p.extract("Can I take dms440 after MTH201 and DMS401 in the msds program? DMS440 again, not X1234 or DMS4401")
	if want := []string{"DMS440", "MTH201", "DMS401"}; !reflect.DeepEqual(courses, want) {
		t.Fatalf("courses = %v, want %v", courses, want)
	}
	if want := []string{"MSDS"}; !reflect.DeepEqual(programs, want) {
		t.Fatalf("programs = %v, want %v", programs, want)
	}

	courses, programs = p.extract("hello")
	if courses == nil || programs == nil || len(courses)+len(programs) != 0 {
		t.Fatalf("expected empty non-nil candidates, got %v %v", courses, programs)
	}
}

func TestPlannerDefaultsMissingFields(t *testing.T) {
	llm := newStubLLM("```json\n" + `{"intent":"all_prereqs","course_codes":null,"program_ids":null,"need_multihop":null,"notes":null,"target_course":null,"completed_courses":null}` + "\n```")
	p := testPlanner(t, llm)

	plan, err := p.Plan(context.Background(), "What do I need before I can take DMS440?")
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if plan.Intent != IntentAllPrereqs {
		t.Fatalf("intent = %s", plan.Intent)
	}
	if plan.ProgramIDs == nil || plan.CompletedCourses == nil {
		t.Fatalf("expected non-nil slices, got %#v", plan)
	}
	if !reflect.DeepEqual(plan.CourseCodes, []string{"DMS440"}) {
		t.Fatalf("expected regex candidates to fill course codes, got %v", plan.CourseCodes)
	}
	if plan.NeedMultihop || plan.Notes != "" || plan.TargetCourse != "" {
		t.Fatalf("expected zero defaults, got %#v", plan)
	}

	req := llm.requests[0]
	if !req.JSONMode || req.Temperature != 0 {
		t.Fatalf("planner must request JSON at temperature 0, got %+v", req)
	}
	payload := llm.userPayload(0)
	if payload["question"] != "What do I need before I can take DMS440?" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if codes, _ := payload["regex_course_codes"].([]any); len(codes) != 1 || codes[0] != "DMS440" {
		t.Fatalf("regex candidates not sent: %v", payload)
	}
	if !strings.Contains(llm.lastSystem(), "Program ids: MSDS, BSCS, BASTAT") {
		t.Fatalf("system prompt missing vocabulary")
	}
}

func TestPlannerNormalizesCodes(t *testing.T) {
	llm := newStubLLM(`{"intent":"eligibility_check","course_codes":[" dms440 ","DMS440"],"program_ids":[],"need_multihop":true,"notes":"x","target_course":"dms440","completed_courses":["dms401","MTH201",""]}`)
	plan, err := testPlanner(t, llm).Plan(context.Background(), "Can I take DMS440 if I completed DMS401 and MTH201?")
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if !reflect.DeepEqual(plan.CourseCodes, []string{"DMS440"}) {
		t.Fatalf("course codes = %v", plan.CourseCodes)
	}
	if plan.TargetCourse != "DMS440" {
		t.Fatalf("target = %q", plan.TargetCourse)
	}
	if !reflect.DeepEqual(plan.CompletedCourses, []string{"DMS401", "MTH201"}) {
		t.Fatalf("completed = %v", plan.CompletedCourses)
	}
}

func TestPlannerParseErrors(t *testing.T) {
	tests := map[string]string{
		"invalid intent": `{"intent":"write_course","course_codes":[]}`,
		"missing intent": `{"course_codes":["DMS440"]}`,
		"not json":       `I think the intent is all_prereqs`,
		"wrong type":     `{"intent":"all_prereqs","need_multihop":"yes"}`,
		"empty":          ``,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := testPlanner(t, newStubLLM(raw)).Plan(context.Background(), "What is DMS440?")
			if !errors.Is(err, errorskg.ErrPlanParse) {
				t.Fatalf("expected plan parse error, got %v", err)
			}
			var perr *errorskg.PlanParseError
			if !errors.As(err, &perr) || perr.Raw != raw {
				t.Fatalf("expected raw output to be kept, got %#v", perr)
			}
		})
	}
}

func TestPlannerTransportError(t *testing.T) {
	llm := newStubLLM()
	llm.err = errors.New("connection refused")
	_, err := testPlanner(t, llm).Plan(context.Background(), "What is DMS440?")
	if err == nil || errors.Is(err, errorskg.ErrPlanParse) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !errors.Is(err, llm.err) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestPlannerProgramVocabulary(t *testing.T) {
	llm := newStubLLM(planJSON(IntentProgramRequirements))
	p := testPlanner(t, llm, WithPrograms("msds"))
	if _, programs := p.extract("What does BSCS require?"); len(programs) != 0 {
		t.Fatalf("BSCS should not be recognised, got %v", programs)
	}

	p.SetPrograms([]string{"MSAI", "BSCS"})
	plan, err := p.Plan(context.Background(), "What does bscs require?")
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	if !reflect.DeepEqual(plan.ProgramIDs, []string{"BSCS"}) {
		t.Fatalf("program ids = %v", plan.ProgramIDs)
	}
	if !strings.Contains(llm.lastSystem(), "Program ids: MSAI, BSCS") {
		t.Fatalf("system prompt not refreshed")
	}
}
