package hypergraph

import (
	"log/slog"
	"runtime"
)

// DefaultMaxExpansions is the default number of TNodes a search may build before giving up.
const DefaultMaxExpansions = 100000

// An Option configures a Hypergraph.
type Option func(*Hypergraph)

// WithLogger sets the logger used by the hypergraph and its searches.
// If nil or omitted, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Hypergraph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// A SolveOption configures a single call to Solve or SolveAll.
type SolveOption func(*solveConfig)

type solveConfig struct {
	maxExpansions int
	minIndex      int
	workers       int
	debugNodes    map[string]bool
	debugEdges    map[string]bool
}

func defaultSolveConfig() solveConfig {
	return solveConfig{
		maxExpansions: DefaultMaxExpansions,
		workers:       runtime.GOMAXPROCS(0),
		debugNodes:    make(map[string]bool),
		debugEdges:    make(map[string]bool),
	}
}

// WithMaxExpansions sets the number of TNodes a search may build before failing with ErrSearchLimit.
// Values <= 0 are ignored.
func WithMaxExpansions(n int) SolveOption {
	return func(c *solveConfig) {
		if n > 0 {
			c.maxExpansions = n
		}
	}
}

// WithMinIndex only accepts derivations of the target whose index is at least n.
// Derivations of the target with a lower index are explored like any other TNode.
func WithMinIndex(n int) SolveOption {
	return func(c *solveConfig) { c.minIndex = n }
}

// WithWorkers sets how many searches SolveAll runs concurrently.
// Values <= 0 are ignored.
func WithWorkers(n int) SolveOption {
	return func(c *solveConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithDebugNodes logs, at debug level, every exploration of the given nodes along with its derivation.
func WithDebugNodes(labels ...string) SolveOption {
	return func(c *solveConfig) {
		for _, l := range labels {
			c.debugNodes[l] = true
		}
	}
}

// WithDebugEdges logs, at debug level, the found TNodes and combinations of the given edges.
func WithDebugEdges(labels ...string) SolveOption {
	return func(c *solveConfig) {
		for _, l := range labels {
			c.debugEdges[l] = true
		}
	}
}
