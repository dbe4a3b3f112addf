package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/mcp"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/rag/agentic"
	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/runner"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.runner.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	return cmd
}

func newEligibilityCmd(opts *rootOptions) *cobra.Command {
	var (
		target    string
		completed []string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "eligibility",
		Short: "Check whether completed courses satisfy a course's prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(target) == "" {
				return errors.New("--target is required")
			}
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.runner.CheckEligibility(cmd.Context(), target, completed)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			_, err = fmt.Fprintln(out, agentic.EligibilityAnswer(res))
			return err
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "course to check, e.g. DMS440")
	cmd.Flags().StringSliceVar(&completed, "completed", nil, "completed course codes, comma separated")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	var (
		file   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Answer questions from a file, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			questions, err := readQuestions(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return errors.New("no questions to answer")
			}

			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			results := a.runner.RunBatch(cmd.Context(), questions)
			for _, res := range results {
				if asJSON {
					line := map[string]any{"index": res.Index, "question": res.Question}
					if res.Error != nil {
						line["error"] = res.Error.Error()
					} else {
						line["result"] = mcp.NewAskResult(res.Response)
					}
					if err := writeJSON(out, line); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintf(out, "[%d] %s\n", res.Index+1, res.Question)
				if res.Error != nil {
					fmt.Fprintf(out, "error: %v\n\n", res.Error)
					continue
				}
				fmt.Fprintf(out, "%s\n\n", res.Response.Answer)
			}
			if n := runner.Failed(results); n > 0 {
				return fmt.Errorf("%d of %d questions failed", n, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "questions file, '-' for stdin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per question")
	return cmd
}

func newReplCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Ask questions interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Ask about courses, prerequisites or programs. Type 'exit' to quit.")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "exit", "quit":
					return nil
				}

				resp, err := a.runner.Ask(cmd.Context(), line)
				if err != nil {
					if cmd.Context().Err() != nil {
						return err
					}
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}
				if err := printResponse(out, resp, false); err != nil {
					return err
				}
			}
		},
	}
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the advisor as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := mcp.NewServer(a.runner, mcp.WithServerInfo("course-advisor", version))
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		},
	}
}

func newVocabCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "Show the program identifiers the planner recognises, loaded from the graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			programs, err := a.pipeline.RefreshPrograms(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range programs {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently answered questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.history == nil {
				return errors.New("history is disabled; set HISTORY_BACKEND or --history")
			}

			turns, err := a.history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, turns)
			}
			for _, t := range turns {
				status := t.Verdict
				if t.Error != "" {
					status = "error"
				}
				fmt.Fprintf(out, "%s  %-10s %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04:05"), status, t.Question)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of turns to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print turns as JSON")
	return cmd
}

func printResponse(w io.Writer, resp *agentic.Response, asJSON bool) error {
	if asJSON {
		return writeJSON(w, resp)
	}
	if resp == nil {
		return nil
	}
	if _, err := fmt.Fprintln(w, resp.Answer); err != nil {
		return err
	}
	r := mcp.NewAskResult(resp)
	source := r.QuerySource
	if source == "" {
		source = "none"
	}
	_, err := fmt.Fprintf(w, "\n(verdict: %s, query: %s, rows: %d, attempts: %d)\n", r.Verdict, source, r.RowCount, r.Attempts)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readQuestions reads non-blank lines, skipping '#' comments.
func readQuestions(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open questions: %w", err)
		}
		defer f.Close()
		r = f
	}

	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return out, nil
}
