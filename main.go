package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/crillab/gopherhg/config"
	"github.com/crillab/gopherhg/explain"
	"github.com/crillab/gopherhg/hypergraph"
	"github.com/crillab/gopherhg/model"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(afero.NewOsFs(), os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type solveFlags struct {
	targets       []string
	inputs        []string
	minIndex      int
	maxExpansions int
	debugNodes    []string
	debugEdges    []string
	values        bool
}

type app struct {
	fs         afero.Fs
	out        io.Writer
	logOut     io.Writer
	configPath string
	verbose    bool
}

func newRootCmd(fs afero.Fs, out, logOut io.Writer) *cobra.Command {
	a := &app{fs: fs, out: out, logOut: logOut}
	root := &cobra.Command{
		Use:           "gopherhg",
		Short:         "Solve constraint hypergraphs described in model files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log the search at debug level")
	root.AddCommand(a.solveCmd(), a.pathsCmd(), a.checkCmd(), a.versionCmd())
	return root
}

func (a *app) solveCmd() *cobra.Command {
	var f solveFlags
	cmd := &cobra.Command{
		Use:   "solve MODEL",
		Short: "Find the cheapest derivation of one or more targets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.solve(cmd, args[0], f)
		},
	}
	cmd.Flags().StringSliceVarP(&f.targets, "target", "t", nil, "node to solve for (default: the model's target); can be repeated")
	cmd.Flags().StringArrayVarP(&f.inputs, "input", "i", nil, "known value as label=value, overriding the model's inputs; can be repeated")
	cmd.Flags().IntVar(&f.minIndex, "min-index", 0, "minimum iteration index of the target")
	cmd.Flags().IntVar(&f.maxExpansions, "max-expansions", hypergraph.DefaultMaxExpansions, "maximum number of derivations built per search")
	cmd.Flags().StringSliceVar(&f.debugNodes, "debug-node", nil, "log every exploration of this node")
	cmd.Flags().StringSliceVar(&f.debugEdges, "debug-edge", nil, "log every combination tried on this edge")
	cmd.Flags().BoolVar(&f.values, "values", false, "print the history of the values found along the derivation")
	return cmd
}

func (a *app) pathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths MODEL TARGET",
		Short: "Print the hypertree of every path leading to a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, g, err := a.load(args[0])
			if err != nil {
				return err
			}
			out, err := explain.Paths(g, args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, out)
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var inputs []string
	cmd := &cobra.Command{
		Use:   "check MODEL TARGET",
		Short: "List the inputs a node depends on that have no value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, m, g, err := a.load(args[0])
			if err != nil {
				return err
			}
			known, err := mergeInputs(m.Inputs, inputs)
			if err != nil {
				return err
			}
			missing, err := explain.MissingInputs(g, args[1], known)
			if err != nil {
				return err
			}
			if len(missing) == 0 {
				fmt.Fprintln(a.out, "c all inputs known")
				return nil
			}
			fmt.Fprintf(a.out, "c missing inputs: %s\n", strings.Join(missing, ", "))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "known value as label=value; can be repeated")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "gopherhg %s\n", version)
		},
	}
}

// load reads the configuration and the model at path, and builds its hypergraph.
func (a *app) load(path string) (config.Config, *model.Model, *hypergraph.Hypergraph, error) {
	cfg, err := config.Load(a.fs, a.configPath)
	if err != nil {
		return cfg, nil, nil, err
	}
	logger, err := cfg.Logging.Logger(a.logOut, a.verbose)
	if err != nil {
		return cfg, nil, nil, err
	}
	m, err := model.Load(a.fs, path)
	if err != nil {
		return cfg, nil, nil, err
	}
	g, err := m.Build(logger)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("could not build %s: %w", path, err)
	}
	return cfg, m, g, nil
}

func (a *app) solve(cmd *cobra.Command, path string, f solveFlags) error {
	cfg, m, g, err := a.load(path)
	if err != nil {
		return err
	}
	targets := f.targets
	if len(targets) == 0 {
		if m.Target == "" {
			return fmt.Errorf("no target given and %s has no default target", path)
		}
		targets = []string{m.Target}
	}
	known, err := mergeInputs(m.Inputs, f.inputs)
	if err != nil {
		return err
	}
	opts := cfg.Search.SolveOptions()
	if cmd.Flags().Changed("min-index") {
		opts = append(opts, hypergraph.WithMinIndex(f.minIndex))
	}
	if cmd.Flags().Changed("max-expansions") {
		opts = append(opts, hypergraph.WithMaxExpansions(f.maxExpansions))
	}
	opts = append(opts, hypergraph.WithDebugNodes(f.debugNodes...), hypergraph.WithDebugEdges(f.debugEdges...))

	if a.verbose {
		fmt.Fprintf(a.out, "c solving %s\n", path)
		fmt.Fprintf(a.out, "c %d nodes, %d edges\n", len(g.Nodes()), len(g.Edges()))
	}
	results, err := g.SolveAll(cmd.Context(), targets, known, opts...)
	for _, target := range targets {
		res, ok := results[target]
		if !ok {
			continue
		}
		a.printResult(g, target, res, known, f.values)
	}
	return err
}

func (a *app) printResult(g *hypergraph.Hypergraph, target string, res hypergraph.Result, known map[string]any, values bool) {
	fmt.Fprintf(a.out, "s %s %s\n", res.Status, target)
	if a.verbose {
		fmt.Fprintf(a.out, "c search %s: %d expansions, %d derivations built, %d rejected\n",
			res.SearchID, res.Stats.NbExpansions, res.Stats.NbTNodes, res.Stats.NbRejected)
	}
	if res.Status != hypergraph.Solved {
		if missing, err := explain.MissingInputs(g, target, known); err == nil && len(missing) > 0 {
			fmt.Fprintf(a.out, "c missing inputs: %s\n", strings.Join(missing, ", "))
		}
		return
	}
	fmt.Fprintf(a.out, "v %v\n", res.Value())
	fmt.Fprint(a.out, explain.Tree(res.Tree))
	if values {
		labels := make([]string, 0, len(res.Values))
		for l := range res.Values {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			fmt.Fprintf(a.out, "c %s: %v\n", l, res.Values[l])
		}
	}
}

// mergeInputs returns the model's inputs, overridden by the assignments given on the command line.
func mergeInputs(defaults map[string]any, assignments []string) (map[string]any, error) {
	res := make(map[string]any, len(defaults)+len(assignments))
	for l, v := range defaults {
		res[l] = v
	}
	for _, s := range assignments {
		label, value, err := model.ParseInput(s)
		if err != nil {
			return nil, err
		}
		res[label] = value
	}
	return res, nil
}
