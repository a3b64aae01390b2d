package optim

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Objective scores one hyperparameter combination, typically by building
// a model, training it, and returning its final loss. Lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

// Result is one evaluated combination.
type Result struct {
	Params map[string]float64
	Score  float64
}

var ErrNoTrials = errors.New("optim: no trial succeeded")

// GridSearch exhaustively evaluates the cross product of per-parameter
// value ranges.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: 1}
}

// WithWorkers sets how many trials run concurrently. Each trial must be
// self-contained (own session, own model); sharing state across trials is
// the objective's bug to avoid.
func (g *GridSearch) WithWorkers(n int) *GridSearch {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Search runs every combination and returns the best result plus all
// completed trials sorted by score. Trials that error are dropped; if
// every trial errors the first error is returned wrapped in ErrNoTrials.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (Result, []Result, error) {
	combos := g.expand()

	jobs := make(chan map[string]float64)
	results := make(chan Result, len(combos))
	failures := make(chan error, len(combos))

	var wg sync.WaitGroup
	for w := 0; w < g.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				score, err := obj(ctx, params)
				if err != nil {
					failures <- err
					continue
				}
				results <- Result{Params: params, Score: score}
			}
		}()
	}

	for _, params := range combos {
		if err := ctx.Err(); err != nil {
			close(jobs)
			wg.Wait()
			return Result{}, nil, err
		}
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return Result{}, nil, ctx.Err()
		case jobs <- params:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	close(failures)

	all := make([]Result, 0, len(combos))
	for r := range results {
		all = append(all, r)
	}
	if len(all) == 0 {
		if err := <-failures; err != nil {
			return Result{}, nil, errors.Wrap(ErrNoTrials, err.Error())
		}
		return Result{}, nil, ErrNoTrials
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Score < all[j].Score })

	best := all[0]
	if math.IsNaN(best.Score) {
		return Result{}, all, ErrNoTrials
	}
	return best, all, nil
}

// expand walks the ranges depth-first and materializes every combination.
func (g *GridSearch) expand() []map[string]float64 {
	var combos []map[string]float64
	var walk func(depth int, current map[string]float64)
	walk = func(depth int, current map[string]float64) {
		if depth == len(g.paramNames) {
			combo := make(map[string]float64, len(current))
			for k, v := range current {
				combo[k] = v
			}
			combos = append(combos, combo)
			return
		}
		for _, val := range g.ranges[depth] {
			current[g.paramNames[depth]] = val
			walk(depth+1, current)
		}
	}
	walk(0, make(map[string]float64))
	return combos
}
