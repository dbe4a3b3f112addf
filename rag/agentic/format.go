package agentic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
)

// Fixed answers for empty evidence.
const (
	CourseNotFound       = "I couldn't find that course in the graph."
	PrereqsNotFound      = "I couldn't find prerequisites for that course in the graph."
	NextCoursesNotFound  = "I couldn't find any next courses unlocked by that course in the graph."
	ProgramNotFound      = "I couldn't find program requirements for that program in the graph."
	GenericNotFound      = "I couldn't find that in the graph."
	pathSeparator        = " → "
	programRequirementsH = "Program requirements (from the graph):"
)

var listHeaders = map[Intent]string{
	IntentDirectPrereqs: "Direct prerequisites (1-hop):",
	IntentAllPrereqs:    "All prerequisites (transitive closure):",
	IntentNextCourses:   "Courses unlocked next:",
}

// FormatAnswer renders rows without generation. It reports false when no
// deterministic rule covers the intent and rows, in which case the caller
// falls back to generative summarisation.
func FormatAnswer(plan *Plan, rows []graphstore.Row) (string, bool) {
	if plan == nil {
		return "", false
	}
	switch plan.Intent {
	case IntentCourseDetails:
		return formatCourseDetails(plan, rows), true
	case IntentDirectPrereqs, IntentAllPrereqs, IntentNextCourses:
		if len(rows) == 0 {
			if plan.Intent == IntentNextCourses {
				return NextCoursesNotFound, true
			}
			return PrereqsNotFound, true
		}
		return listHeaders[plan.Intent] + "\n" + formatCourseList(rows), true
	case IntentProgramRequirements:
		if len(rows) == 0 {
			return ProgramNotFound, true
		}
		return programRequirementsH + "\n\n" + formatProgramRequirements(rows), true
	case IntentPrereqPath:
		return formatPath(rows)
	case IntentEligibilityCheck, IntentUnknown:
		return "", false
	}
	return "", false
}

func formatCourseDetails(plan *Plan, rows []graphstore.Row) string {
	if len(rows) == 0 {
		return CourseNotFound
	}
	course, ok := rows[0].Map("c")
	if !ok {
		course = rows[0]
	}
	props := graphstore.Row(course)

	code := props.String("course_code")
	if code == "" {
		code = plan.CourseCode()
	}
	if code == "" {
		code = "Unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s — %s**", code, props.String("title"))
	var meta []string
	if level := props.String("level"); level != "" {
		meta = append(meta, level)
	}
	if credits := props.String("credits"); credits != "" {
		meta = append(meta, credits+" credits")
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(meta, ", "))
	}
	if desc := props.String("description"); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
	}
	return b.String()
}

// formatCourseList renders "- CODE: title" lines, one per distinct code,
// sorted by code. A later row for the same code wins.
func formatCourseList(rows []graphstore.Row) string {
	titles := make(map[string]string)
	for _, row := range rows {
		code := row.String("code")
		if code == "" {
			continue
		}
		titles[code] = row.String("title")
	}
	codes := make([]string, 0, len(titles))
	for code := range titles {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	lines := make([]string, 0, len(codes))
	for _, code := range codes {
		lines = append(lines, courseLine(code, titles[code]))
	}
	return strings.Join(lines, "\n")
}

func courseLine(code, title string) string {
	if title == "" {
		return "- " + code
	}
	return "- " + code + ": " + title
}

func formatProgramRequirements(rows []graphstore.Row) string {
	var core, elective, other []string
	for _, row := range rows {
		code := row.String("code")
		if code == "" {
			continue
		}
		line := courseLine(code, row.String("title"))
		switch strings.ToLower(strings.TrimSpace(row.String("type"))) {
		case "core":
			core = append(core, line)
		case "elective", "electives":
			elective = append(elective, line)
		default:
			other = append(other, line)
		}
	}

	var parts []string
	for _, section := range []struct {
		title string
		lines []string
	}{
		{"**Core:**", core},
		{"**Electives:**", elective},
		{"**Other:**", other},
	} {
		if len(section.lines) == 0 {
			continue
		}
		sort.Strings(section.lines)
		parts = append(parts, section.title+"\n"+strings.Join(section.lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// formatPath renders the first row's path_nodes in store order.
const unknownPathNode = "?"

func formatPath(rows []graphstore.Row) (string, bool) {
	if len(rows) == 0 {
		return "", false
	}
	nodes, ok := rows[0]["path_nodes"].([]any)
	if !ok || len(nodes) == 0 {
		return "", false
	}
	codes := make([]string, 0, len(nodes))
	known := 0
	for _, node := range nodes {
		code := pathNodeCode(node)
		if code != unknownPathNode {
			known++
		}
		codes = append(codes, code)
	}
	// A chain with no extractable code is left to the generative fallback.
	if known == 0 {
		return "", false
	}
	return strings.Join(codes, pathSeparator), true
}

func pathNodeCode(node any) string {
	switch n := node.(type) {
	case string:
		if n != "" {
			return n
		}
	case map[string]any:
		if code := graphstore.Row(n).String("course_code"); code != "" {
			return code
		}
	case graphstore.Row:
		if code := n.String("course_code"); code != "" {
			return code
		}
	}
	return unknownPathNode
}
