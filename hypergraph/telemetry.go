package hypergraph

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("gopherhg.hypergraph")
	meter  = otel.Meter("gopherhg.hypergraph")
)

// instruments are shared by every hypergraph of the process.
type instruments struct {
	solveLatency metric.Float64Histogram
	expansions   metric.Int64Counter
	tnodes       metric.Int64Counter
	outcomes     metric.Int64Counter
}

var (
	instrumentsOnce sync.Once
	inst            instruments
)

// initInstruments lazily creates the metric instruments.
// Failures are logged once; the solve goes on without the failing instrument.
func initInstruments(logger *slog.Logger) *instruments {
	instrumentsOnce.Do(func() {
		var initErrors []string
		var err error
		inst.solveLatency, err = meter.Float64Histogram("hypergraph_solve_duration_seconds",
			metric.WithDescription("Time spent searching for a derivation"),
			metric.WithUnit("s"),
		)
		if err != nil {
			initErrors = append(initErrors, "solve_latency: "+err.Error())
		}
		inst.expansions, err = meter.Int64Counter("hypergraph_expansions_total",
			metric.WithDescription("Number of TNodes popped from the frontier"),
		)
		if err != nil {
			initErrors = append(initErrors, "expansions: "+err.Error())
		}
		inst.tnodes, err = meter.Int64Counter("hypergraph_tnodes_total",
			metric.WithDescription("Number of TNodes built during searches"),
		)
		if err != nil {
			initErrors = append(initErrors, "tnodes: "+err.Error())
		}
		inst.outcomes, err = meter.Int64Counter("hypergraph_solve_outcome_total",
			metric.WithDescription("Number of solves by outcome"),
		)
		if err != nil {
			initErrors = append(initErrors, "outcomes: "+err.Error())
		}
		if len(initErrors) > 0 {
			logger.Error("failed to initialize some hypergraph metrics",
				slog.Int("failed_count", len(initErrors)),
				slog.Any("errors", initErrors),
			)
		}
	})
	return &inst
}

func (in *instruments) record(ctx context.Context, target string, status Status, stats Stats, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("status", status.String()),
	)
	if in.solveLatency != nil {
		in.solveLatency.Record(ctx, elapsed.Seconds(), attrs)
	}
	if in.expansions != nil {
		in.expansions.Add(ctx, int64(stats.NbExpansions), attrs)
	}
	if in.tnodes != nil {
		in.tnodes.Add(ctx, int64(stats.NbTNodes), attrs)
	}
	if in.outcomes != nil {
		in.outcomes.Add(ctx, 1, attrs)
	}
}
