package optim

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/fuelcycle/internal/experiment"
	"github.com/san-kum/fuelcycle/internal/sim"
)

// Point is one evaluated grid node.
type Point struct {
	Params  map[string]float64
	Attempt sim.Attempt
}

func (p Point) Feasible() bool { return p.Attempt.Outcome == sim.Accepted }

// GridSearch evaluates every combination of parameter values with a single
// forward integration each. Points run in parallel, each on its own freshly
// built experiment, so no network state is shared between them.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.GOMAXPROCS(0)}
}

// SetWorkers bounds the number of concurrent integrations.
func (g *GridSearch) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

// Search returns the points in grid order. The first failing build or
// integration cancels the rest.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
) ([]Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	var combos []map[string]float64
	g.expand(0, make(map[string]float64), &combos)

	points := make([]Point, len(combos))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, params := range combos {
		eg.Go(func() error {
			exp, err := buildExperiment(params)
			if err != nil {
				return fmt.Errorf("build %v: %w", params, err)
			}
			a, err := exp.Evaluate(ctx)
			if err != nil {
				return fmt.Errorf("evaluate %v: %w", params, err)
			}
			points[i] = Point{Params: params, Attempt: a}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

func (g *GridSearch) expand(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.expand(depth+1, newParams, out)
	}
}

// Best picks the feasible point with the lowest startup inventory, breaking
// ties on the lowest TBR. It reports false when no point is feasible.
func Best(points []Point) (Point, bool) {
	var feasible []Point
	for _, p := range points {
		if p.Feasible() {
			feasible = append(feasible, p)
		}
	}
	if len(feasible) == 0 {
		return Point{}, false
	}
	sort.SliceStable(feasible, func(i, j int) bool {
		a, b := feasible[i].Attempt, feasible[j].Attempt
		if a.IStartup != b.IStartup {
			return a.IStartup < b.IStartup
		}
		return a.TBR < b.TBR
	})
	return feasible[0], true
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
