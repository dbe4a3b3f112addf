// Package inmemory provides a course graph held in memory that answers the
// advisor's registered read queries. It backs the CLI demo mode and tests
// that need realistic evidence without a Neo4j server.
package inmemory

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/graphstore"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/pkg/logging"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/agentic"
)

//go:embed sample.yaml
var sampleFixture []byte

var _ graphstore.Store = (*Store)(nil)

// Course is a (:Course) node plus its incoming PREREQUISITE edges.
type Course struct {
	Code          string   `yaml:"course_code"`
	Title         string   `yaml:"title"`
	Department    string   `yaml:"department"`
	Level         string   `yaml:"level"`
	Credits       int      `yaml:"credits"`
	Description   string   `yaml:"description"`
	Prerequisites []string `yaml:"prerequisites"`
}

// Requirement is a (:Program)-[:REQUIRES]->(:Course) edge.
type Requirement struct {
	Course string `yaml:"course_code"`
	Type   string `yaml:"requirement_type"`
}

// Program is a (:Program) node with its requirements.
type Program struct {
	ID          string        `yaml:"program_id"`
	Name        string        `yaml:"program_name"`
	DegreeType  string        `yaml:"degree_type"`
	Department  string        `yaml:"department"`
	Description string        `yaml:"description"`
	Requires    []Requirement `yaml:"requires"`
}

// Fixture is the YAML document layout.
type Fixture struct {
	Courses  []Course  `yaml:"courses"`
	Programs []Program `yaml:"programs"`
}

type handler func(params map[string]any) ([]graphstore.Row, error)

// Store is a read-only graph built from a Fixture.
type Store struct {
	mu       sync.RWMutex
	courses  map[string]*Course
	programs map[string]*Program
	// unlocks maps a course to the courses listing it as a prerequisite.
	unlocks  map[string][]string
	handlers map[string]handler
	closed   bool
}

// Load reads a YAML fixture from path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inmemory: read fixture: %w", err)
	}
	return Parse(data)
}

// Sample returns the store built from the bundled demo fixture.
func Sample() (*Store, error) {
	return Parse(sampleFixture)
}

// Parse decodes a YAML fixture.
func Parse(data []byte) (*Store, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("inmemory: decode fixture: %w", err)
	}
	return New(fx)
}

// New indexes fx. Course codes and program ids are upper-cased. Edges that
// name an unknown course create a bare node for it, as an import would.
func New(fx Fixture) (*Store, error) {
	s := &Store{
		courses:  make(map[string]*Course),
		programs: make(map[string]*Program),
		unlocks:  make(map[string][]string),
	}

	for i := range fx.Courses {
		c := fx.Courses[i]
		c.Code = normalize(c.Code)
		if c.Code == "" {
			return nil, fmt.Errorf("inmemory: course %d has no course_code", i)
		}
		if _, dup := s.courses[c.Code]; dup {
			return nil, fmt.Errorf("inmemory: duplicate course %s", c.Code)
		}
		s.courses[c.Code] = &c
	}

	for _, c := range s.sortedCourses() {
		seen := make(map[string]bool)
		var pres []string
		for _, pre := range c.Prerequisites {
			pre = normalize(pre)
			if pre == "" || pre == c.Code || seen[pre] {
				continue
			}
			seen[pre] = true
			s.ensureCourse(pre)
			pres = append(pres, pre)
			s.unlocks[pre] = append(s.unlocks[pre], c.Code)
		}
		c.Prerequisites = pres
	}

	for i := range fx.Programs {
		p := fx.Programs[i]
		p.ID = normalize(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("inmemory: program %d has no program_id", i)
		}
		if _, dup := s.programs[p.ID]; dup {
			return nil, fmt.Errorf("inmemory: duplicate program %s", p.ID)
		}
		reqs := make([]Requirement, 0, len(p.Requires))
		for _, r := range p.Requires {
			r.Course = normalize(r.Course)
			if r.Course == "" {
				continue
			}
			s.ensureCourse(r.Course)
			reqs = append(reqs, r)
		}
		p.Requires = reqs
		s.programs[p.ID] = &p
	}

	s.handlers = map[string]handler{
		agentic.CourseDetailsQuery:       s.courseDetails,
		agentic.DirectPrereqsQuery:       s.directPrereqs,
		agentic.AllPrereqsQuery:          s.closure(10, 500),
		agentic.PrereqClosureQuery:       s.closure(6, 0),
		agentic.PrereqPathQuery:          s.prereqPath,
		agentic.ProgramRequirementsQuery: s.programRequirements,
		agentic.NextCoursesQuery:         s.nextCourses,
		agentic.ProgramVocabularyQuery:   s.vocabulary,
		agentic.DefaultQuery:             s.firstCourse,
	}
	return s, nil
}

// RunRead answers the registered query texts. Any other query, typically a
// generated one, yields no rows.
func (s *Store) RunRead(ctx context.Context, query string, params map[string]any) ([]graphstore.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("inmemory: store closed")
	}

	h, ok := s.handlers[strings.TrimSpace(query)]
	if !ok {
		logging.WithComponent("inmemory_graph").Warn("unsupported query, returning no rows",
			"query", query)
		return []graphstore.Row{}, nil
	}
	return h(params)
}

// RunWrite always fails; fixtures are loaded once.
func (s *Store) RunWrite(ctx context.Context, query string, params map[string]any) error {
	return fmt.Errorf("inmemory: store is read-only")
}

// Close marks the store closed.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Counts reports node and edge totals.
func (s *Store) Counts() (courses, programs, prereqs, requires int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		prereqs += len(c.Prerequisites)
	}
	for _, p := range s.programs {
		requires += len(p.Requires)
	}
	return len(s.courses), len(s.programs), prereqs, requires
}

func (s *Store) courseDetails(params map[string]any) ([]graphstore.Row, error) {
	c, ok := s.courses[stringParam(params, "code")]
	if !ok {
		return []graphstore.Row{}, nil
	}
	return []graphstore.Row{{"c": courseNode(c)}}, nil
}

func (s *Store) directPrereqs(params map[string]any) ([]graphstore.Row, error) {
	c, ok := s.courses[stringParam(params, "code")]
	if !ok {
		return []graphstore.Row{}, nil
	}
	return s.codeRows(c.Prerequisites, 200), nil
}

// closure walks PREREQUISITE edges backwards up to depth hops.
func (s *Store) closure(depth, limit int) handler {
	return func(params map[string]any) ([]graphstore.Row, error) {
		start := stringParam(params, "code")
		if _, ok := s.courses[start]; !ok {
			return []graphstore.Row{}, nil
		}
		found := make(map[string]bool)
		frontier := []string{start}
		for hop := 0; hop < depth && len(frontier) > 0; hop++ {
			var next []string
			for _, code := range frontier {
				for _, pre := range s.courses[code].Prerequisites {
					if !found[pre] {
						found[pre] = true
						next = append(next, pre)
					}
				}
			}
			frontier = next
		}
		codes := make([]string, 0, len(found))
		for code := range found {
			codes = append(codes, code)
		}
		return s.codeRows(codes, limit), nil
	}
}

// prereqPath returns the shortest chain ending at the course, breaking ties
// by the lexically smallest starting course.
func (s *Store) prereqPath(params map[string]any) ([]graphstore.Row, error) {
	target := stringParam(params, "code")
	c, ok := s.courses[target]
	if !ok || len(c.Prerequisites) == 0 {
		return []graphstore.Row{}, nil
	}
	pres := append([]string(nil), c.Prerequisites...)
	sort.Strings(pres)
	nodes := []any{courseNode(s.courses[pres[0]]), courseNode(c)}
	return []graphstore.Row{{"path_nodes": nodes, "hops": int64(1)}}, nil
}

func (s *Store) programRequirements(params map[string]any) ([]graphstore.Row, error) {
	p, ok := s.programs[stringParam(params, "pid")]
	if !ok {
		return []graphstore.Row{}, nil
	}
	rows := make([]graphstore.Row, 0, len(p.Requires))
	for _, r := range p.Requires {
		rows = append(rows, graphstore.Row{
			"type":  nullable(r.Type),
			"code":  r.Course,
			"title": nullable(s.courses[r.Course].Title),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].String("type"), rows[j].String("type")
		if ti != tj {
			return ti < tj
		}
		return rows[i].String("code") < rows[j].String("code")
	})
	if len(rows) > 500 {
		rows = rows[:500]
	}
	return rows, nil
}

func (s *Store) nextCourses(params map[string]any) ([]graphstore.Row, error) {
	code := stringParam(params, "code")
	if _, ok := s.courses[code]; !ok {
		return []graphstore.Row{}, nil
	}
	return s.codeRows(s.unlocks[code], 200), nil
}

func (s *Store) vocabulary(map[string]any) ([]graphstore.Row, error) {
	ids := make([]string, 0, len(s.programs))
	for id := range s.programs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([]graphstore.Row, len(ids))
	for i, id := range ids {
		rows[i] = graphstore.Row{"pid": id}
	}
	return rows, nil
}

func (s *Store) firstCourse(map[string]any) ([]graphstore.Row, error) {
	courses := s.sortedCourses()
	if len(courses) == 0 {
		return []graphstore.Row{}, nil
	}
	return []graphstore.Row{{"c": courseNode(courses[0])}}, nil
}

// codeRows renders {code, title} rows sorted by code; limit <= 0 means all.
func (s *Store) codeRows(codes []string, limit int) []graphstore.Row {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	rows := make([]graphstore.Row, len(sorted))
	for i, code := range sorted {
		rows[i] = graphstore.Row{"code": code, "title": nullable(s.courses[code].Title)}
	}
	return rows
}

func (s *Store) ensureCourse(code string) {
	if _, ok := s.courses[code]; !ok {
		s.courses[code] = &Course{Code: code}
	}
}

func (s *Store) sortedCourses() []*Course {
	out := make([]*Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// courseNode mirrors the property map a Neo4j node converts to: unset
// properties are absent.
func courseNode(c *Course) map[string]any {
	node := map[string]any{"course_code": c.Code}
	for k, v := range map[string]string{
		"title":       c.Title,
		"department":  c.Department,
		"level":       c.Level,
		"description": c.Description,
	} {
		if v != "" {
			node[k] = v
		}
	}
	if c.Credits > 0 {
		node["credits"] = int64(c.Credits)
	}
	return node
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
