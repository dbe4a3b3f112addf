package agentic

import "sort"

// Read templates, one per templated intent. Identifiers are always bound as
// parameters: $code for course-scoped intents, $pid for programs.
const (
	CourseDetailsQuery       = "MATCH (c:Course {course_code:$code}) RETURN c LIMIT 1"
	DirectPrereqsQuery       = "MATCH (pre:Course)-[:PREREQUISITE]->(c:Course {course_code:$code}) RETURN pre.course_code AS code, pre.title AS title ORDER BY code LIMIT 200"
	AllPrereqsQuery          = "MATCH (pre:Course)-[:PREREQUISITE*1..10]->(c:Course {course_code:$code}) RETURN DISTINCT pre.course_code AS code, pre.title AS title ORDER BY code LIMIT 500"
	PrereqPathQuery          = "MATCH p=(pre:Course)-[:PREREQUISITE*1..10]->(c:Course {course_code:$code}) RETURN nodes(p) AS path_nodes, length(p) AS hops ORDER BY hops ASC LIMIT 1"
	ProgramRequirementsQuery = "MATCH (p:Program {program_id:$pid})-[r:REQUIRES]->(c:Course) RETURN r.requirement_type AS type, c.course_code AS code, c.title AS title ORDER BY type, code LIMIT 500"
	NextCoursesQuery         = "MATCH (completed:Course {course_code:$code})<-[:PREREQUISITE]-(next:Course) RETURN next.course_code AS code, next.title AS title ORDER BY code LIMIT 200"

	// PrereqClosureQuery feeds the eligibility engine; depth is capped at 6.
	PrereqClosureQuery = "MATCH (pre:Course)-[:PREREQUISITE*1..6]->(target:Course {course_code:$code}) RETURN DISTINCT pre.course_code AS code, pre.title AS title ORDER BY code"

	// ProgramVocabularyQuery lists program identifiers known to the store.
	ProgramVocabularyQuery = "MATCH (p:Program) RETURN p.program_id AS pid ORDER BY pid"

	// DefaultQuery is the conservative lookup used when generation fails.
	DefaultQuery = "MATCH (c:Course) RETURN c LIMIT 1"
)

// Template binds a fixed query to the rule extracting its parameters.
type Template struct {
	Intent Intent
	Query  string
	// Param is the parameter name the query expects.
	Param string
	// Value pulls the parameter value from a plan. An empty result means the
	// template does not apply.
	Value func(*Plan) string
}

// TemplateRegistry is the intent-indexed set of read templates.
type TemplateRegistry struct {
	templates map[Intent]Template
}

// NewTemplateRegistry returns the registry with the built-in templates.
func NewTemplateRegistry() *TemplateRegistry {
	course := func(p *Plan) string { return p.CourseCode() }
	program := func(p *Plan) string { return p.ProgramID() }

	r := &TemplateRegistry{templates: make(map[Intent]Template)}
	for _, t := range []Template{
		{Intent: IntentCourseDetails, Query: CourseDetailsQuery, Param: "code", Value: course},
		{Intent: IntentDirectPrereqs, Query: DirectPrereqsQuery, Param: "code", Value: course},
		{Intent: IntentAllPrereqs, Query: AllPrereqsQuery, Param: "code", Value: course},
		{Intent: IntentPrereqPath, Query: PrereqPathQuery, Param: "code", Value: course},
		{Intent: IntentProgramRequirements, Query: ProgramRequirementsQuery, Param: "pid", Value: program},
		{Intent: IntentNextCourses, Query: NextCoursesQuery, Param: "code", Value: course},
	} {
		r.templates[t.Intent] = t
	}
	return r
}

// Intents returns the templated intents, sorted.
func (r *TemplateRegistry) Intents() []Intent {
	out := make([]Intent, 0, len(r.templates))
	for intent := range r.templates {
		out = append(out, intent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup returns the template for intent.
func (r *TemplateRegistry) Lookup(intent Intent) (Template, bool) {
	t, ok := r.templates[intent]
	return t, ok
}

// Render resolves plan against its intent's template. It reports false when
// the intent has no template or the plan lacks the required identifier.
func (r *TemplateRegistry) Render(plan *Plan) (*QuerySpec, bool) {
	if plan == nil {
		return nil, false
	}
	t, ok := r.templates[plan.Intent]
	if !ok {
		return nil, false
	}
	value := t.Value(plan)
	if value == "" {
		return nil, false
	}
	return NewQuerySpec(t.Query, map[string]any{t.Param: value}, SourceTemplate), true
}
