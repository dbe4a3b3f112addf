package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nehamaheshh/neo4j-agentic-academic-advisor/history/store"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath        string
	demo              bool
	fixture           string
	metricsAddr       string
	programsFromStore bool
	historyBackend    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "advisor",
		Short: "Ask questions about courses, prerequisites and programs",
		Long: `advisor answers natural-language questions from a course prerequisite graph.

Questions are planned by an LLM, answered from read-only graph queries, and
checked by a verifier before they are returned. Use --demo to run against the
bundled in-memory graph instead of Neo4j.`,
		Version:      version,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (environment variables override it)")
	flags.BoolVar(&opts.demo, "demo", false, "use the in-memory course graph instead of Neo4j")
	flags.StringVar(&opts.fixture, "fixture", "", "YAML course graph for the in-memory store (implies --demo)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.BoolVar(&opts.programsFromStore, "programs-from-store", false, "load the program vocabulary from the graph at startup")
	flags.StringVar(&opts.historyBackend, "history", "", "history backend: "+strings.Join(store.Backends(), "|"))

	cmd.AddCommand(
		newAskCmd(opts),
		newEligibilityCmd(opts),
		newBatchCmd(opts),
		newReplCmd(opts),
		newMCPCmd(opts),
		newVocabCmd(opts),
		newHistoryCmd(opts),
	)
	return cmd
}
