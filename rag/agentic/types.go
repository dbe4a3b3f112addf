package agentic

import (
	"time"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
)

// Intent is the closed set of graph operations a question can map to.
type Intent string

const (
	IntentCourseDetails       Intent = "course_details"
	IntentDirectPrereqs       Intent = "direct_prereqs"
	IntentAllPrereqs          Intent = "all_prereqs"
	IntentPrereqPath          Intent = "prereq_path"
	IntentProgramRequirements Intent = "program_requirements"
	IntentEligibilityCheck    Intent = "eligibility_check"
	IntentNextCourses         Intent = "next_courses"
	IntentUnknown             Intent = "unknown"
)

// Intents lists every intent in declaration order.
func Intents() []Intent {
	return []Intent{
		IntentCourseDetails,
		IntentDirectPrereqs,
		IntentAllPrereqs,
		IntentPrereqPath,
		IntentProgramRequirements,
		IntentEligibilityCheck,
		IntentNextCourses,
		IntentUnknown,
	}
}

// Valid reports whether i belongs to the closed enumeration.
func (i Intent) Valid() bool {
	switch i {
	case IntentCourseDetails, IntentDirectPrereqs, IntentAllPrereqs, IntentPrereqPath,
		IntentProgramRequirements, IntentEligibilityCheck, IntentNextCourses, IntentUnknown:
		return true
	}
	return false
}

// CourseScoped reports whether the intent is keyed by a course code.
func (i Intent) CourseScoped() bool {
	switch i {
	case IntentCourseDetails, IntentDirectPrereqs, IntentAllPrereqs, IntentPrereqPath, IntentNextCourses:
		return true
	}
	return false
}

// Plan is the planner's structured reading of a question. Every field is
// populated once the planner returns it; downstream stages never mutate it.
type Plan struct {
	Intent           Intent   `json:"intent" validate:"required,oneof=course_details direct_prereqs all_prereqs prereq_path program_requirements eligibility_check next_courses unknown"`
	CourseCodes      []string `json:"course_codes"`
	ProgramIDs       []string `json:"program_ids"`
	NeedMultihop     bool     `json:"need_multihop"`
	Notes            string   `json:"notes"`
	TargetCourse     string   `json:"target_course"`
	CompletedCourses []string `json:"completed_courses"`
}

// CourseCode returns the course identifier course-scoped templates bind to:
// the first extracted code, else the target course.
func (p *Plan) CourseCode() string {
	if p == nil {
		return ""
	}
	if len(p.CourseCodes) > 0 && p.CourseCodes[0] != "" {
		return p.CourseCodes[0]
	}
	return p.TargetCourse
}

// ProgramID returns the first program identifier, if any.
func (p *Plan) ProgramID() string {
	if p == nil || len(p.ProgramIDs) == 0 {
		return ""
	}
	return p.ProgramIDs[0]
}

// EligibilityTarget returns the course an eligibility check is about.
func (p *Plan) EligibilityTarget() string {
	if p == nil {
		return ""
	}
	if p.TargetCourse != "" {
		return p.TargetCourse
	}
	return p.CourseCode()
}

// QuerySource records which tier of the builder produced a query.
type QuerySource string

const (
	SourceTemplate  QuerySource = "template"
	SourceGenerated QuerySource = "generated"
	SourceDefault   QuerySource = "default"
)

// QuerySpec is an executable read query. Params never hold nil values.
type QuerySpec struct {
	Query  string         `json:"query"`
	Params map[string]any `json:"params"`
	Source QuerySource    `json:"source,omitempty"`
}

// NewQuerySpec builds a QuerySpec, dropping nil-valued params.
func NewQuerySpec(query string, params map[string]any, source QuerySource) *QuerySpec {
	clean := make(map[string]any, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		clean[k] = v
	}
	return &QuerySpec{Query: query, Params: clean, Source: source}
}

// Empty reports whether no query was built (the eligibility shortcut).
func (q *QuerySpec) Empty() bool {
	return q == nil || q.Query == ""
}

// Verdict is the verifier's judgement of an answer.
type Verdict string

const (
	VerdictPass      Verdict = "pass"
	VerdictNeedsMore Verdict = "needs_more"
	VerdictFail      Verdict = "fail"
)

// Valid reports whether v belongs to the closed enumeration.
func (v Verdict) Valid() bool {
	return v == VerdictPass || v == VerdictNeedsMore || v == VerdictFail
}

// Terminal reports whether the verdict ends the attempt loop.
func (v Verdict) Terminal() bool {
	return v != VerdictNeedsMore
}

// VerifierVerdict is produced once per attempt.
type VerifierVerdict struct {
	Verdict      Verdict `json:"verdict"`
	Reason       string  `json:"reason"`
	FollowupHint string  `json:"followup_cypher_hint"`
	// Malformed is set when the verifier output could not be decoded and the
	// verdict was substituted.
	Malformed bool `json:"malformed,omitempty"`
}

// CourseRef names a course by code and title.
type CourseRef struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// EligibilityResult is derived from the prerequisite closure and the learner's
// completed courses only.
type EligibilityResult struct {
	Target        string      `json:"target"`
	Eligible      bool        `json:"eligible"`
	Missing       []CourseRef `json:"missing"`
	Prerequisites []CourseRef `json:"prerequisites"`
	Completed     []string    `json:"completed"`
}

// Attempt records one build/execute/answer/verify cycle.
type Attempt struct {
	Number   int              `json:"number"`
	Query    *QuerySpec       `json:"query"`
	RowCount int              `json:"row_count"`
	Answer   string           `json:"answer"`
	Verdict  *VerifierVerdict `json:"verdict"`
}

// Response is what callers receive for one question.
type Response struct {
	TurnID      string             `json:"turn_id"`
	Question    string             `json:"question"`
	Plan        *Plan              `json:"plan"`
	Query       *QuerySpec         `json:"query"`
	Rows        []graphstore.Row   `json:"rows"`
	Answer      string             `json:"answer"`
	Verdict     *VerifierVerdict   `json:"verdict"`
	Attempts    []Attempt          `json:"attempts,omitempty"`
	Eligibility *EligibilityResult `json:"eligibility,omitempty"`
	Duration    time.Duration      `json:"duration"`
}
