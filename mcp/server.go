// Package mcp exposes the course advisor as a Model Context Protocol server
// with two tools: ask_course_graph and check_eligibility.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/pkg/logging"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/agentic"
)

const (
	ToolAsk         = "ask_course_graph"
	ToolEligibility = "check_eligibility"
)

// Advisor is what the server needs from the runner.
type Advisor interface {
	Ask(ctx context.Context, question string) (*agentic.Response, error)
	CheckEligibility(ctx context.Context, target string, completed []string) (*agentic.EligibilityResult, error)
}

// Option configures optional server behaviour.
type Option func(*serverConfig)

type serverConfig struct {
	implementation sdkmcp.Implementation
	logger         *slog.Logger
	instructions   string
}

// WithServerInfo overrides the implementation metadata advertised to clients.
func WithServerInfo(name, version string) Option {
	return func(cfg *serverConfig) {
		if name != "" {
			cfg.implementation.Name = name
		}
		if version != "" {
			cfg.implementation.Version = version
		}
	}
}

// WithLogger sets the logger used for tool calls.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serverConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

func defaultConfig() serverConfig {
	return serverConfig{
		implementation: sdkmcp.Implementation{
			Name:    "course-advisor",
			Title:   "Course graph advisor",
			Version: "0.1.0",
		},
		logger:       logging.WithComponent("mcp"),
		instructions: "Answer questions about courses, prerequisites and programs from the course graph.",
	}
}

// Server wraps the SDK server with the advisor tools registered.
type Server struct {
	server  *sdkmcp.Server
	advisor Advisor
	logger  *slog.Logger
}

// NewServer builds the MCP server around advisor.
func NewServer(advisor Advisor, opts ...Option) (*Server, error) {
	if advisor == nil {
		return nil, errors.New("mcp: advisor cannot be nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	impl := cfg.implementation
	s := &Server{
		server:  sdkmcp.NewServer(&impl, &sdkmcp.ServerOptions{Instructions: cfg.instructions}),
		advisor: advisor,
		logger:  cfg.logger,
	}
	s.addAskTool()
	s.addEligibilityTool()
	return s, nil
}

// SDK returns the underlying SDK server.
func (s *Server) SDK() *sdkmcp.Server {
	return s.server
}

// Run serves over stdio until ctx ends or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, &sdkmcp.StdioTransport{})
}

// Serve serves over the given transport.
func (s *Server) Serve(ctx context.Context, transport sdkmcp.Transport) error {
	s.logger.Info("mcp server starting")
	err := s.server.Run(ctx, transport)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp: serve: %w", err)
	}
	return nil
}

// AskResult is the ask_course_graph payload.
type AskResult struct {
	TurnID      string `json:"turn_id"`
	Answer      string `json:"answer"`
	Verdict     string `json:"verdict"`
	Reason      string `json:"reason,omitempty"`
	Intent      string `json:"intent,omitempty"`
	Query       string `json:"query,omitempty"`
	QuerySource string `json:"query_source,omitempty"`
	RowCount    int    `json:"row_count"`
	Attempts    int    `json:"attempts"`
}

// NewAskResult flattens a pipeline response for tool output.
func NewAskResult(resp *agentic.Response) *AskResult {
	if resp == nil {
		return &AskResult{}
	}
	out := &AskResult{
		TurnID:   resp.TurnID,
		Answer:   resp.Answer,
		RowCount: len(resp.Rows),
		Attempts: len(resp.Attempts),
	}
	if resp.Verdict != nil {
		out.Verdict = string(resp.Verdict.Verdict)
		out.Reason = resp.Verdict.Reason
	}
	if resp.Plan != nil {
		out.Intent = string(resp.Plan.Intent)
	}
	if !resp.Query.Empty() {
		out.Query = resp.Query.Query
		out.QuerySource = string(resp.Query.Source)
	}
	return out
}

func (s *Server) addAskTool() {
	type args struct {
		Question string `json:"question" jsonschema:"Natural-language question about courses, prerequisites or programs"`
	}

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        ToolAsk,
		Description: "Answer a question from the course prerequisite graph",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, a args) (*sdkmcp.CallToolResult, any, error) {
		question := strings.TrimSpace(a.Question)
		if question == "" {
			return nil, nil, errors.New("question is required")
		}
		s.logger.Debug("tool call", "tool", ToolAsk, "question", question)

		resp, err := s.advisor.Ask(ctx, question)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(NewAskResult(resp))
	})
}

func (s *Server) addEligibilityTool() {
	type args struct {
		TargetCourse     string   `json:"target_course" jsonschema:"Course code to check, e.g. DMS440"`
		CompletedCourses []string `json:"completed_courses,omitempty" jsonschema:"Course codes already completed"`
	}

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        ToolEligibility,
		Description: "Check whether completed courses satisfy every prerequisite of a target course",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, a args) (*sdkmcp.CallToolResult, any, error) {
		target := strings.TrimSpace(a.TargetCourse)
		if target == "" {
			return nil, nil, errors.New("target_course is required")
		}
		s.logger.Debug("tool call", "tool", ToolEligibility, "target", target, "completed", len(a.CompletedCourses))

		res, err := s.advisor.CheckEligibility(ctx, target, a.CompletedCourses)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(res)
	})
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
