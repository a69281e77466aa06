package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-layout/pkg/algorithms"
	"github.com/dd0wney/cluso-layout/pkg/graph"
	"github.com/dd0wney/cluso-layout/pkg/layout"
	"github.com/dd0wney/cluso-layout/pkg/logging"
	"github.com/dd0wney/cluso-layout/pkg/metrics"
	"github.com/dd0wney/cluso-layout/pkg/visualization"
)

type runOptions struct {
	configPath string
	ticks      int
	detect     string
	lpaRounds  int
	seedLayout string
	seed       uint64
	workers    int
	format     string
	fitWidth   float64
	fitHeight  float64
	quiet      bool
}

func newRunCmd() *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run <graph.yaml>",
		Short: "Lay out a graph and print node positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "layout config YAML (default settings when empty)")
	cmd.Flags().IntVarP(&opts.ticks, "ticks", "n", 100, "number of layout steps")
	cmd.Flags().StringVar(&opts.detect, "detect", "none", "community detection before layout: none, lpa or components")
	cmd.Flags().IntVar(&opts.lpaRounds, "lpa-rounds", 20, "label propagation iteration limit")
	cmd.Flags().StringVar(&opts.seedLayout, "seed-layout", "none", "initial placement: none, circular or random")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "seed for random placement")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "worker pool size (0 = hardware parallelism)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "output format: table or json")
	cmd.Flags().Float64Var(&opts.fitWidth, "fit-width", 0, "scale output positions into this width")
	cmd.Flags().Float64Var(&opts.fitHeight, "fit-height", 0, "scale output positions into this height")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "omit the summary box")

	return cmd
}

// runSummary collects what the summary box reports
type runSummary struct {
	nodes       int
	edges       int
	ticks       uint64
	mode        string
	communities int
	modularity  float64
	detected    bool
	duration    time.Duration
	runID       string
}

func runLayout(cmd *cobra.Command, path string, opts runOptions) error {
	if opts.ticks < 0 {
		return fmt.Errorf("--ticks must not be negative")
	}
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	logger := loggerFromContext(cmd.Context())

	cfg := layout.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := layout.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	g, err := graph.LoadFile(path)
	if err != nil {
		return err
	}
	logger.Info("graph loaded",
		logging.String("path", path),
		logging.Int("nodes", g.NodeCount()),
		logging.Int("edges", g.EdgeCount()))

	summary := runSummary{nodes: g.NodeCount(), edges: g.EdgeCount(), mode: cfg.Mode()}

	err = g.Update(func(view graph.View) error {
		result, err := detectCommunities(view, opts)
		if err != nil || result == nil {
			return err
		}
		summary.detected = true
		summary.communities = len(result.Communities)
		summary.modularity = result.Modularity
		return result.Assign(view, cfg.CommunityColumnName)
	})
	if err != nil {
		return fmt.Errorf("community detection: %w", err)
	}

	if err := g.Update(func(view graph.View) error { return seedPositions(view, opts) }); err != nil {
		return fmt.Errorf("seed layout: %w", err)
	}

	engine, err := layout.NewEngine(cfg, layout.Options{
		Workers: opts.workers,
		Logger:  logger,
		Metrics: metrics.NewRegistry(),
	})
	if err != nil {
		return err
	}

	start := time.Now()
	err = g.Update(func(view graph.View) error {
		if err := engine.Initialize(view); err != nil {
			return err
		}
		for i := 0; i < opts.ticks; i++ {
			if err := engine.Tick(cmd.Context(), view); err != nil {
				_ = engine.Finish(view)
				return err
			}
		}
		return engine.Finish(view)
	})
	if err != nil {
		return err
	}
	summary.duration = time.Since(start)
	summary.ticks = engine.Ticks()
	summary.runID = engine.RunID()

	if err := g.Read(func(view graph.View) error { return writePositions(cmd.OutOrStdout(), view, opts) }); err != nil {
		return err
	}

	if !opts.quiet {
		fmt.Fprintln(cmd.ErrOrStderr(), renderSummary("Layout complete", summary.stats()))
	}
	return nil
}

func detectCommunities(view graph.View, opts runOptions) (*algorithms.CommunityDetectionResult, error) {
	switch opts.detect {
	case "", "none":
		return nil, nil
	case "lpa":
		return algorithms.LabelPropagation(view, opts.lpaRounds)
	case "components":
		return algorithms.ConnectedComponents(view)
	default:
		return nil, fmt.Errorf("unknown detection method %q", opts.detect)
	}
}

func seedPositions(view graph.View, opts runOptions) error {
	config := &visualization.LayoutConfig{Width: 1000, Height: 1000, Seed: opts.seed}
	switch opts.seedLayout {
	case "", "none":
		return nil
	case "circular":
		return visualization.Place(view, visualization.NewCircularLayout(config))
	case "random":
		return visualization.Place(view, visualization.NewRandomLayout(config))
	default:
		return fmt.Errorf("unknown seed layout %q", opts.seedLayout)
	}
}

func writePositions(w io.Writer, view graph.View, opts runOptions) error {
	vis := visualization.FromView(view)
	if opts.fitWidth > 0 && opts.fitHeight > 0 {
		vis.Positions = visualization.Fit(vis.Positions, &visualization.LayoutConfig{
			Width:  opts.fitWidth,
			Height: opts.fitHeight,
		})
	}

	if opts.format == "json" {
		data, err := vis.ExportJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tX\tY\tFIXED")
	for _, n := range vis.Nodes {
		pos := vis.Positions[n.ID]
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%.4f\t%t\n", n.ID, n.Label, pos.X, pos.Y, n.IsFixed())
	}
	return tw.Flush()
}

func (s runSummary) stats() []stat {
	out := []stat{
		statf("Nodes", "%d", s.nodes),
		statf("Edges", "%d", s.edges),
		statf("Ticks", "%d", s.ticks),
		statf("Mode", "%s", s.mode),
	}
	if s.detected {
		out = append(out,
			statf("Communities", "%d", s.communities),
			statf("Modularity", "%.4f", s.modularity))
	}
	return append(out,
		statf("Duration", "%s", s.duration.Round(time.Microsecond)),
		statf("Run ID", "%s", s.runID))
}
